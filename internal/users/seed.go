package users

import (
	"time"

	"github.com/celerix-dev/certify-one/pkg/schema"
)

func seedEmployees() []schema.Employee {
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}

	return []schema.Employee{
		{
			ID:         "1",
			FirstName:  "John",
			LastName:   "Doe",
			Email:      "john.doe@certifyone.com",
			Role:       schema.RoleEmployee,
			Department: "Engineering",
			Position:   "Software Engineer",
			Phone:      "+1-555-0123",
			EmergencyContact: schema.EmergencyContact{
				Name:         "Jane Doe",
				Relationship: "Spouse",
				Phone:        "+1-555-0124",
			},
			Address: schema.Address{
				Street:  "123 Main St",
				City:    "New York",
				State:   "NY",
				ZipCode: "10001",
				Country: "USA",
			},
			EmploymentDetails: schema.EmploymentDetails{
				EmployeeID:     "EMP001",
				StartDate:      "2023-01-15",
				Manager:        "Sarah Wilson",
				Salary:         75000,
				EmploymentType: schema.EmploymentFullTime,
			},
			Status:    schema.EmployeeActive,
			CreatedAt: at("2023-01-15T09:00:00Z"),
			UpdatedAt: at("2023-01-15T09:00:00Z"),
		},
		{
			ID:         "2",
			FirstName:  "Sarah",
			LastName:   "Wilson",
			Email:      "sarah.wilson@certifyone.com",
			Role:       schema.RoleAdmin,
			Department: "HR",
			Position:   "HR Manager",
			Phone:      "+1-555-0125",
			EmergencyContact: schema.EmergencyContact{
				Name:         "Mike Wilson",
				Relationship: "Husband",
				Phone:        "+1-555-0126",
			},
			Address: schema.Address{
				Street:  "456 Oak Ave",
				City:    "New York",
				State:   "NY",
				ZipCode: "10002",
				Country: "USA",
			},
			EmploymentDetails: schema.EmploymentDetails{
				EmployeeID:     "EMP002",
				StartDate:      "2022-06-01",
				Manager:        "CEO",
				Salary:         85000,
				EmploymentType: schema.EmploymentFullTime,
			},
			Status:    schema.EmployeeActive,
			CreatedAt: at("2022-06-01T09:00:00Z"),
			UpdatedAt: at("2022-06-01T09:00:00Z"),
		},
	}
}
