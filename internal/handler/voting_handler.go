package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/makeyourchoice/electives-api/internal/models"
	"github.com/makeyourchoice/electives-api/internal/service"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
	"github.com/makeyourchoice/electives-api/pkg/response"
)

type votingService interface {
	Submit(ctx context.Context, email string, req service.SubmitPrioritiesRequest) error
	Latest(ctx context.Context, email string) (*models.PriorityRecord, error)
	ListLatest(ctx context.Context) ([]models.PriorityRecord, error)
	ListLog(ctx context.Context, filter models.PriorityLogFilter) ([]models.PriorityLogEntry, *models.Pagination, error)
	Deadline(ctx context.Context, email string) (*models.DeadlineStatus, error)
}

// VotingHandler exposes ballot endpoints.
type VotingHandler struct {
	voting  votingService
	metrics *service.MetricsService
}

// NewVotingHandler constructs a voting handler.
func NewVotingHandler(voting votingService, metrics *service.MetricsService) *VotingHandler {
	return &VotingHandler{voting: voting, metrics: metrics}
}

// Submit godoc
// @Summary Submit ranked priorities
// @Description Records a ballot for the current student. Index zero is the first choice.
// @Tags Priorities
// @Accept json
// @Produce json
// @Param payload body service.SubmitPrioritiesRequest true "Ballot payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /priorities [post]
func (h *VotingHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitPrioritiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.voting.Submit(c.Request.Context(), claims.Email, req); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordBallot(req.Type)
	response.JSON(c, http.StatusOK, gin.H{"status": "recorded"}, nil)
}

// Latest godoc
// @Summary Current student's latest ballot
// @Tags Priorities
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /priorities/latest [get]
func (h *VotingHandler) Latest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	record, err := h.voting.Latest(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Deadline godoc
// @Summary Submission window for the current student
// @Tags Priorities
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /priorities/deadline [get]
func (h *VotingHandler) Deadline(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.voting.Deadline(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// ListLatest godoc
// @Summary Latest ballot of every student
// @Tags Priorities
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /priorities/all [get]
func (h *VotingHandler) ListLatest(c *gin.Context) {
	records, err := h.voting.ListLatest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ListLog godoc
// @Summary Submission log
// @Description Full append-only log of ballots, newest first
// @Tags Priorities
// @Produce json
// @Param email query string false "Filter by student email"
// @Param type query string false "Filter by course type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /priorities/log [get]
func (h *VotingHandler) ListLog(c *gin.Context) {
	var filter models.PriorityLogFilter
	filter.Email = c.Query("email")
	if courseType := c.Query("type"); courseType != "" {
		filter.Type = models.CourseType(courseType)
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	entries, pagination, err := h.voting.ListLog(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
