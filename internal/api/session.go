package api

import (
	"net/http"

	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	token, user, err := h.Auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) Me(c *gin.Context) {
	user, _ := currentUser(c)
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetPreferences(c *gin.Context) {
	snap, err := h.Prefs.Snapshot(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// PutPreferences updates whichever of theme and fontSize is present.
func (h *Handler) PutPreferences(c *gin.Context) {
	var input struct {
		Theme    *schema.Theme    `json:"theme"`
		FontSize *schema.FontSize `json:"fontSize"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	if input.Theme != nil {
		if err := h.Prefs.SetTheme(ctx, *input.Theme); err != nil {
			fail(c, err)
			return
		}
	}
	if input.FontSize != nil {
		if err := h.Prefs.SetFontSize(ctx, *input.FontSize); err != nil {
			fail(c, err)
			return
		}
	}
	h.GetPreferences(c)
}

func (h *Handler) ToggleTheme(c *gin.Context) {
	theme, err := h.Prefs.ToggleTheme(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}
