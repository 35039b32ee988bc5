package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletvault/service"
)

// AddressKey is the gin context key holding the authenticated address
const AddressKey = "userAddress"

// AuthMiddleware creates middleware that validates bearer credentials.
// Expired and invalid credentials get the same reply.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(c, http.StatusUnauthorized, "unauthorized", "Invalid authorization header")
			return
		}

		address, err := authService.ValidateCredential(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			writeError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		c.Set(AddressKey, address)

		c.Next()
	}
}

// addressFrom returns the authenticated address set by AuthMiddleware
func addressFrom(c *gin.Context) (string, bool) {
	address := c.GetString(AddressKey)
	return address, address != ""
}

// RequestLogger logs one line per request through slog
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// BodyLimit caps request bodies at limit bytes. Zero disables the cap.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
