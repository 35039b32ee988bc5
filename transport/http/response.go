package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletvault/core"
)

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DeleteErrorResponse is returned when a bulk delete stops part way.
// Deleted counts the leading paths that were removed before the failure.
type DeleteErrorResponse struct {
	ErrorResponse
	Deleted int `json:"deleted"`
}

func writeError(c *gin.Context, code int, errCode, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: errCode, Message: message})
}

// errorStatus maps domain errors to status codes in one place
func errorStatus(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, core.ErrUnreadableArtifact) && errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{"artifact_not_found", "File or signature file not found"}
	case errors.Is(err, core.ErrUnreadableArtifact):
		return http.StatusBadRequest, ErrorResponse{"artifact_unreadable", "File or signature file could not be read"}
	case errors.Is(err, core.ErrVerificationFailed):
		return http.StatusUnauthorized, ErrorResponse{"verification_failed", "Signature verification failed"}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{"not_found", "File not found"}
	case errors.Is(err, core.ErrInvalidPath):
		return http.StatusBadRequest, ErrorResponse{"invalid_path", "Invalid path"}
	case errors.Is(err, core.ErrEmptyRequest):
		return http.StatusBadRequest, ErrorResponse{"invalid_request", "Nothing to process"}
	case errors.Is(err, core.ErrAlreadyExists):
		return http.StatusConflict, ErrorResponse{"already_exists", "Target already exists"}
	default:
		return http.StatusInternalServerError, ErrorResponse{"internal_error", "Internal server error"}
	}
}

func handleError(c *gin.Context, logger *slog.Logger, err error) {
	code, body := errorStatus(err)
	if code == http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request error", "path", c.FullPath(), "err", err)
	}
	c.AbortWithStatusJSON(code, body)
}
