package api

import (
	"net/http"

	"github.com/celerix-dev/certify-one/internal/prefs"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

var errForbidden = errors.New("admin role required")

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// fail maps a domain error onto an HTTP status and error code.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgengine.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgengine.ErrInvalidRecord),
		errors.Is(err, pkgengine.ErrUnsupportedKind),
		errors.Is(err, prefs.ErrInvalidPreference):
		respondError(c, http.StatusBadRequest, "invalid", err)
	case errors.Is(err, pkgengine.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid_credentials", err)
	case errors.Is(err, pkgengine.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, errForbidden):
		respondError(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, pkgengine.ErrPersistence):
		respondError(c, http.StatusInternalServerError, "persistence", err)
	default:
		respondError(c, http.StatusInternalServerError, "internal", err)
	}
}

func badRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "bad_request", err)
}

// NoRoute answers unknown paths with the error envelope.
func NoRoute(c *gin.Context) {
	respondError(c, http.StatusNotFound, "not_found", errors.Errorf("route %s %s not found", c.Request.Method, c.Request.URL.Path))
}
