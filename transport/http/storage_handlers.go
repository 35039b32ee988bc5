package http

import (
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletvault/service"
)

// StorageHandlers contains HTTP handlers for the caller's file partition
type StorageHandlers struct {
	storage *service.StorageService
	logger  *slog.Logger
}

// NewStorageHandlers creates new storage handlers
func NewStorageHandlers(storage *service.StorageService, logger *slog.Logger) *StorageHandlers {
	return &StorageHandlers{
		storage: storage,
		logger:  logger,
	}
}

// List returns every file of the caller
func (h *StorageHandlers) List(c *gin.Context) {
	address, _ := addressFrom(c)

	files, err := h.storage.List(c.Request.Context(), address)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// Upload stores the multipart "files" under the "path" directory
func (h *StorageHandlers) Upload(c *gin.Context) {
	address, _ := addressFrom(c)

	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "Multipart form with files is required")
		return
	}

	headers := form.File["files"]
	uploads := make([]service.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request", "Uploaded file could not be read")
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, service.UploadFile{Name: fh.Filename, Content: f})
	}

	entries, err := h.storage.Upload(c.Request.Context(), address, c.PostForm("path"), uploads)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Upload done!",
		"files":   entries,
	})
}

// Download streams a file. With verify=true the file is only delivered
// when its ".sig" sibling proves the caller's wallet signed it.
func (h *StorageHandlers) Download(c *gin.Context) {
	address, _ := addressFrom(c)

	name := c.Query("path")
	if name == "" {
		writeError(c, http.StatusBadRequest, "invalid_path", "Path is required")
		return
	}

	verify := false
	if raw := c.Query("verify"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request", "verify must be a boolean")
			return
		}
		verify = v
	}

	d, err := h.storage.Download(c.Request.Context(), address, name, verify)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	defer func() { _ = d.Content.Close() }()

	extra := map[string]string{
		"Content-Disposition":  mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(name)}),
		"X-Signature-Verified": strconv.FormatBool(d.Verified),
	}
	if d.Entry.ETag != "" {
		extra["ETag"] = `"` + d.Entry.ETag + `"`
	}

	c.DataFromReader(http.StatusOK, d.Entry.Size, d.Entry.ContentType, d.Content, extra)
}

type renameRequest struct {
	Path    string `json:"path" form:"path" binding:"required"`
	NewName string `json:"new_name" form:"new_name" binding:"required"`
}

// Rename renames a file within its directory
func (h *StorageHandlers) Rename(c *gin.Context) {
	address, _ := addressFrom(c)

	var req renameRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "path and new_name are required")
		return
	}

	if err := h.storage.Rename(c.Request.Context(), address, req.Path, req.NewName); err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "File renamed to " + req.NewName + "."})
}

type transferRequest struct {
	From string `json:"from" form:"from" binding:"required"`
	To   string `json:"to" form:"to" binding:"required"`
}

// Move moves a file, creating the target directory when missing
func (h *StorageHandlers) Move(c *gin.Context) {
	address, _ := addressFrom(c)

	var req transferRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "from and to are required")
		return
	}

	if err := h.storage.Move(c.Request.Context(), address, req.From, req.To); err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "File moved to " + req.To + "."})
}

// Copy copies a file, creating the target directory when missing
func (h *StorageHandlers) Copy(c *gin.Context) {
	address, _ := addressFrom(c)

	var req transferRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "from and to are required")
		return
	}

	if err := h.storage.Copy(c.Request.Context(), address, req.From, req.To); err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "File copied to " + req.To + "."})
}

// Delete removes a list of files
func (h *StorageHandlers) Delete(c *gin.Context) {
	address, _ := addressFrom(c)

	var req struct {
		Paths []string `json:"paths" form:"paths" binding:"required,min=1"`
	}
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "paths are required")
		return
	}

	deleted, err := h.storage.Delete(c.Request.Context(), address, req.Paths)
	if err != nil {
		code, body := errorStatus(err)
		if code == http.StatusInternalServerError {
			h.logger.ErrorContext(c.Request.Context(), "request error", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(code, DeleteErrorResponse{ErrorResponse: body, Deleted: deleted})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Files successfully deleted.",
		"deleted": deleted,
	})
}
