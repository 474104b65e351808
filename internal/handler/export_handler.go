package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	"github.com/makeyourchoice/electives-api/internal/service"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
	"github.com/makeyourchoice/electives-api/pkg/response"
)

// ExportRequest selects the output format for a priorities export.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" binding:"required"`
}

type exportService interface {
	Request(ctx context.Context, requestedBy string, format models.ExportFormat) (*models.ExportJob, error)
	Status(jobID string) (*models.ExportJob, error)
	Download(token string) (*os.File, string, error)
}

// ExportHandler exposes background export endpoints.
type ExportHandler struct {
	service exportService
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService, metrics *service.MetricsService, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{service: svc, metrics: metrics, logger: logger}
}

// Request godoc
// @Summary Request a priorities export
// @Description Queues generation of a CSV or PDF snapshot of the latest ballots
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body handler.ExportRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /exports [post]
func (h *ExportHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	job, err := h.service.Request(c.Request.Context(), claims.Email, req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExport(job.Format, job.Status)
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.service.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a completed export
// @Description Streams the file referenced by a signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, relPath, err := h.service.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	filename := filepath.Base(relPath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentTypeFor(filename))
	c.Header("Content-Length", fmt.Sprintf("%d", info.Size()))
	if _, err := io.Copy(c.Writer, file); err != nil {
		h.logger.Warn("export download interrupted", zap.String("file", filename), zap.Error(err))
	}
}

func contentTypeFor(filename string) string {
	switch filepath.Ext(filename) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
