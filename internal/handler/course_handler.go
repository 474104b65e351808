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

type catalogueService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error)
	VisibleCourses(ctx context.Context, student *models.Student, semester *models.Semester, courseType models.CourseType) ([]models.Course, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, req service.CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, id string, req service.UpdateCourseRequest) (*models.Course, error)
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type eligibilityService interface {
	Check(ctx context.Context, email string) (*service.Eligibility, error)
}

// CourseHandler exposes catalogue endpoints.
type CourseHandler struct {
	catalogue   catalogueService
	eligibility eligibilityService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(catalogue catalogueService, eligibility eligibilityService) *CourseHandler {
	return &CourseHandler{catalogue: catalogue, eligibility: eligibility}
}

// List godoc
// @Summary List catalogue entries
// @Description Admin view of the full catalogue with filters
// @Tags Courses
// @Produce json
// @Param type query string false "Course type (tech|hum)"
// @Param program query string false "Filter by study program group"
// @Param language query string false "Filter by language"
// @Param year query int false "Filter by study year"
// @Param search query string false "Title search"
// @Param includeArchived query bool false "Include archived entries"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	if courseType := c.Query("type"); courseType != "" {
		filter.Type = models.CourseType(courseType)
	}
	filter.Program = c.Query("program")
	filter.Language = c.Query("language")
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	filter.Search = c.Query("search")
	if include, err := strconv.ParseBool(c.DefaultQuery("includeArchived", "false")); err == nil {
		filter.IncludeArchived = include
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	courses, pagination, err := h.catalogue.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// ListVisible godoc
// @Summary List electives available to the current student
// @Description Returns the courses the student may rank for the given type
// @Tags Courses
// @Produce json
// @Param type query string true "Course type (tech|hum)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/available [get]
func (h *CourseHandler) ListVisible(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	courseType := models.CourseType(c.DefaultQuery("type", string(models.CourseTypeTech)))
	if courseType != models.CourseTypeTech && courseType != models.CourseTypeHum {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "type must be tech or hum"))
		return
	}

	elig, err := h.eligibility.Check(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !elig.Eligible {
		response.JSON(c, http.StatusOK, []models.Course{}, nil, map[string]interface{}{"eligible": false, "reason": elig.Reason})
		return
	}

	courses, err := h.catalogue.VisibleCourses(c.Request.Context(), elig.Student, elig.Semester, courseType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil, map[string]interface{}{"eligible": true})
}

// Get godoc
// @Summary Get a catalogue entry
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.catalogue.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create a catalogue entry
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.catalogue.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update a catalogue entry
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.catalogue.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Archive godoc
// @Summary Archive a catalogue entry
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /courses/{id}/archive [post]
func (h *CourseHandler) Archive(c *gin.Context) {
	if err := h.catalogue.Archive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unarchive godoc
// @Summary Restore an archived catalogue entry
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /courses/{id}/unarchive [post]
func (h *CourseHandler) Unarchive(c *gin.Context) {
	if err := h.catalogue.Unarchive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a catalogue entry
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.catalogue.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
