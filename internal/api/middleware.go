package api

import (
	"strings"
	"time"

	"github.com/celerix-dev/certify-one/internal/logger"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const userKey = "certify.user"

// RequireAuth rejects requests without a valid bearer token and stores the
// token's user on the context.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			fail(c, pkgengine.ErrUnauthorized)
			return
		}
		user, err := h.Auth.Verify(token)
		if err != nil {
			h.log().Debug("Token rejected", "error", err)
			fail(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok || !user.IsAdmin() {
			fail(c, errForbidden)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func currentUser(c *gin.Context) (schema.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return schema.User{}, false
	}
	user, ok := v.(schema.User)
	return user, ok
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if user, ok := currentUser(c); ok {
			fields = append(fields, "user_id", user.ID)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// CORS lets a browser dashboard on another origin call the API.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "Accept-Encoding"},
		ExposeHeaders:   []string{"Content-Disposition"},
		MaxAge:          12 * time.Hour,
	})
}
