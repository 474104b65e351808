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

type suggestionService interface {
	List(ctx context.Context, declined bool) ([]models.SuggestedCourse, error)
	Get(ctx context.Context, id string) (*models.SuggestedCourse, error)
	Create(ctx context.Context, creator string, req service.SuggestCourseRequest) (*models.SuggestedCourse, error)
	Update(ctx context.Context, id string, req service.SuggestCourseRequest) (*models.SuggestedCourse, error)
	Accept(ctx context.Context, id string) (*models.Course, error)
	Decline(ctx context.Context, id string) error
	Recover(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SuggestionHandler exposes course-suggestion endpoints.
type SuggestionHandler struct {
	service suggestionService
}

// NewSuggestionHandler constructs a suggestion handler.
func NewSuggestionHandler(svc suggestionService) *SuggestionHandler {
	return &SuggestionHandler{service: svc}
}

// List godoc
// @Summary List suggested courses
// @Tags Suggestions
// @Produce json
// @Param declined query bool false "List declined instead of pending"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /suggestions [get]
func (h *SuggestionHandler) List(c *gin.Context) {
	declined, _ := strconv.ParseBool(c.DefaultQuery("declined", "false"))
	suggestions, err := h.service.List(c.Request.Context(), declined)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions, nil)
}

// Get godoc
// @Summary Get a suggestion
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /suggestions/{id} [get]
func (h *SuggestionHandler) Get(c *gin.Context) {
	suggestion, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}

// Create godoc
// @Summary Suggest a new course
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body service.SuggestCourseRequest true "Suggestion payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /suggestions [post]
func (h *SuggestionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SuggestCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	suggestion, err := h.service.Create(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, suggestion)
}

// Update godoc
// @Summary Update a suggestion
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param id path string true "Suggestion ID"
// @Param payload body service.SuggestCourseRequest true "Suggestion payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /suggestions/{id} [put]
func (h *SuggestionHandler) Update(c *gin.Context) {
	var req service.SuggestCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	suggestion, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}

// Accept godoc
// @Summary Accept a suggestion into the catalogue
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /suggestions/{id}/accept [post]
func (h *SuggestionHandler) Accept(c *gin.Context) {
	course, err := h.service.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Decline godoc
// @Summary Decline a suggestion
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 204
// @Security BearerAuth
// @Router /suggestions/{id}/decline [post]
func (h *SuggestionHandler) Decline(c *gin.Context) {
	if err := h.service.Decline(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Recover godoc
// @Summary Recover a declined suggestion
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 204
// @Security BearerAuth
// @Router /suggestions/{id}/recover [post]
func (h *SuggestionHandler) Recover(c *gin.Context) {
	if err := h.service.Recover(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a suggestion
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 204
// @Security BearerAuth
// @Router /suggestions/{id} [delete]
func (h *SuggestionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
