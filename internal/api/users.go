package api

import (
	"net/http"

	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/gin-gonic/gin"
)

// ListUsers accepts ?search= and ?tab=all|active|inactive.
func (h *Handler) ListUsers(c *gin.Context) {
	tab := c.DefaultQuery("tab", "all")
	c.JSON(http.StatusOK, gin.H{
		"users":  h.Users.Search(c.Query("search"), tab),
		"counts": h.Users.Counts(),
	})
}

func (h *Handler) GetUser(c *gin.Context) {
	e, err := h.Users.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) AddUser(c *gin.Context) {
	var form schema.EmployeeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}
	e, err := h.Users.Add(c.Request.Context(), form)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var form schema.EmployeeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}
	e, err := h.Users.Update(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ToggleUserStatus(c *gin.Context) {
	e, err := h.Users.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
