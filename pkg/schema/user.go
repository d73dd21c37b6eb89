package schema

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// User is the signed-in identity mirrored to the "user-data" slot.
type User struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Role       Role    `json:"role"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Department string  `json:"department,omitempty"`
	Avatar     *string `json:"avatar,omitempty"`
}

func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin is the only authorization check the system performs.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full-time"
	EmploymentPartTime EmploymentType = "part-time"
	EmploymentContract EmploymentType = "contract"
	EmploymentIntern   EmploymentType = "intern"
)

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type EmploymentDetails struct {
	EmployeeID     string         `json:"employeeId"`
	StartDate      string         `json:"startDate"`
	Manager        string         `json:"manager"`
	Salary         float64        `json:"salary"`
	EmploymentType EmploymentType `json:"employmentType"`
}

// Employee is a user directory entry managed by admins.
type Employee struct {
	ID                string            `json:"id"`
	FirstName         string            `json:"firstName"`
	LastName          string            `json:"lastName"`
	Email             string            `json:"email"`
	Role              Role              `json:"role"`
	Department        string            `json:"department"`
	Position          string            `json:"position"`
	Phone             string            `json:"phone"`
	EmergencyContact  EmergencyContact  `json:"emergencyContact"`
	Address           Address           `json:"address"`
	EmploymentDetails EmploymentDetails `json:"employmentDetails"`
	Status            EmployeeStatus    `json:"status"`
	Avatar            *string           `json:"avatar,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// EmployeeForm is the editable part of an Employee.
type EmployeeForm struct {
	FirstName         string            `json:"firstName" binding:"required"`
	LastName          string            `json:"lastName" binding:"required"`
	Email             string            `json:"email" binding:"required"`
	Role              Role              `json:"role"`
	Department        string            `json:"department"`
	Position          string            `json:"position"`
	Phone             string            `json:"phone"`
	EmergencyContact  EmergencyContact  `json:"emergencyContact"`
	Address           Address           `json:"address"`
	EmploymentDetails EmploymentDetails `json:"employmentDetails"`
	Status            EmployeeStatus    `json:"status"`
}

// Theme and FontSize are stored as plain strings, not JSON.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)
