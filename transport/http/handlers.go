package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, logger *slog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
	}
}

// Challenge returns the string a wallet signs to authenticate
func (h *AuthHandlers) Challenge(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"string_to_sign": h.authService.Challenge()})
}

// Authenticate handles the login request. The address and signature may
// come as a JSON body, a form, or query parameters.
func (h *AuthHandlers) Authenticate(c *gin.Context) {
	var req struct {
		Address   string `json:"address" form:"address" binding:"required"`
		Signature string `json:"signature" form:"signature" binding:"required"`
	}

	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "Address and signature are required")
		return
	}

	cred, err := h.authService.Authenticate(c.Request.Context(), req.Address, req.Signature)
	if err != nil {
		if !errors.Is(err, core.ErrAuthenticationFailed) {
			h.logger.ErrorContext(c.Request.Context(), "failed to issue credential", "err", err)
			writeError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Authentication failed.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Authenticated successfully.",
		"access_token": cred.Token,
		"token_type":   "Bearer",
		"expires_in":   int(cred.ExpiresAt.Sub(cred.IssuedAt).Seconds()),
	})
}

// Check confirms the presented credential is valid
func (h *AuthHandlers) Check(c *gin.Context) {
	address, exists := addressFrom(c)
	if !exists {
		writeError(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"address": address,
	})
}
