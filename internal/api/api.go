// Package api exposes the training store, session, preferences and user
// directory over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/celerix-dev/certify-one/internal/auth"
	"github.com/celerix-dev/certify-one/internal/engine"
	"github.com/celerix-dev/certify-one/internal/logger"
	"github.com/celerix-dev/certify-one/internal/prefs"
	"github.com/celerix-dev/certify-one/internal/report"
	"github.com/celerix-dev/certify-one/internal/users"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/gin-gonic/gin"
)

// TrainingService is the store surface the API needs.
type TrainingService interface {
	pkgengine.TrainingStore
	BulkDelete(ctx context.Context, ids []string) (int, error)
}

var _ TrainingService = (*engine.Store)(nil)

type Handler struct {
	Store TrainingService
	Auth  *auth.Authenticator
	Prefs *prefs.Preferences
	Users *users.Directory
	Log   *logger.Logger
	Now   func() time.Time
}

// Register mounts every route under /api.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.POST("/auth/login", h.Login)

	authed := api.Group("", h.RequireAuth())
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/me", h.Me)

	authed.GET("/trainings", h.ListTrainings)
	authed.POST("/trainings", h.AddTraining)
	authed.GET("/trainings/:id", h.GetTraining)
	authed.PUT("/trainings/:id", h.UpdateTraining)
	authed.DELETE("/trainings/:id", h.DeleteTraining)
	authed.GET("/certifications", h.listKind(schema.KindCertification))
	authed.GET("/courses", h.listKind(schema.KindCourse))
	authed.GET("/sessions", h.listKind(schema.KindSession))

	authed.GET("/preferences", h.GetPreferences)
	authed.PUT("/preferences", h.PutPreferences)
	authed.POST("/preferences/theme/toggle", h.ToggleTheme)

	admin := authed.Group("", h.RequireAdmin())
	admin.POST("/trainings/bulk-delete", h.BulkDelete)
	admin.POST("/trainings/export", h.Export)
	admin.GET("/reports", h.Report)

	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.AddUser)
	admin.GET("/users/:id", h.GetUser)
	admin.PUT("/users/:id", h.UpdateUser)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.POST("/users/:id/toggle-status", h.ToggleUserStatus)
}

func (h *Handler) log() *logger.Logger {
	if h.Log == nil {
		return logger.Nop()
	}
	return h.Log
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) ListTrainings(c *gin.Context) {
	var filter report.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}
	records, err := h.Store.List()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, filter.Apply(records))
}

func (h *Handler) listKind(kind schema.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := h.Store.ListKind(kind)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

func (h *Handler) GetTraining(c *gin.Context) {
	rec, err := h.Store.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// AddTraining fills an empty employee name and department from the caller.
func (h *Handler) AddTraining(c *gin.Context) {
	var form schema.FormData
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}
	if user, ok := currentUser(c); ok {
		if form.EmployeeName == "" {
			form.EmployeeName = user.DisplayName()
		}
		if form.Department == "" {
			form.Department = user.Department
		}
	}

	rec, err := h.Store.Add(c.Request.Context(), form)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) UpdateTraining(c *gin.Context) {
	var form schema.FormData
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.Store.Update(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteTraining(c *gin.Context) {
	if err := h.Store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var input struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	n, err := h.Store.BulkDelete(c.Request.Context(), input.IDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// Export streams the selected records as CSV. An empty selection exports
// every record.
func (h *Handler) Export(c *gin.Context) {
	var input idsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
	}
	records, err := h.Store.List()
	if err != nil {
		fail(c, err)
		return
	}
	if len(input.IDs) > 0 {
		records = selectIDs(records, input.IDs)
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.ExportFilename(h.now())+`"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, records); err != nil {
		h.log().Error("CSV export failed", "error", err)
	}
}

func selectIDs(records []schema.Record, ids []string) []schema.Record {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := []schema.Record{}
	for _, rec := range records {
		if _, ok := want[rec.Common().ID]; ok {
			out = append(out, rec)
		}
	}
	return out
}

func (h *Handler) Report(c *gin.Context) {
	var filter report.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}
	records, err := h.Store.List()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report.Summarize(filter.Apply(records)))
}
