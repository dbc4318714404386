package handler

import (
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/classroll/classroll-api/internal/service"
	"github.com/classroll/classroll-api/pkg/response"
	"github.com/classroll/classroll-api/pkg/storage"
)

// ExportHandler serves signed artifact downloads. The HMAC token is the only
// credential; no session is required.
type ExportHandler struct {
	reports *service.ReportService
	files   *storage.LocalStorage
}

// NewExportHandler creates a new handler.
func NewExportHandler(reports *service.ReportService, files *storage.LocalStorage) *ExportHandler {
	return &ExportHandler{reports: reports, files: files}
}

// Download godoc
// @Summary Download a finished export
// @Tags Admin
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	relPath, err := h.reports.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(h.files.Path(relPath), filepath.Base(relPath))
}
