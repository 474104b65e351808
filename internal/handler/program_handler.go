package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/makeyourchoice/electives-api/internal/models"
	"github.com/makeyourchoice/electives-api/internal/service"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
	"github.com/makeyourchoice/electives-api/pkg/response"
)

type programService interface {
	List(ctx context.Context) ([]models.Program, error)
	GroupNames(ctx context.Context) ([]string, error)
	GetByGroup(ctx context.Context, group string) (*models.Program, error)
	DeadlineStatus(ctx context.Context, group string) (*models.DeadlineStatus, error)
	Create(ctx context.Context, req service.CreateProgramRequest) (*models.Program, error)
	Update(ctx context.Context, id string, req service.UpdateProgramRequest) (*models.Program, error)
	SetDeadline(ctx context.Context, group string, req service.SetDeadlineRequest) (*models.Program, error)
	Delete(ctx context.Context, group string) error
}

// ProgramHandler exposes student-group endpoints.
type ProgramHandler struct {
	service programService
}

// NewProgramHandler constructs a program handler.
func NewProgramHandler(svc programService) *ProgramHandler {
	return &ProgramHandler{service: svc}
}

// List godoc
// @Summary List student groups
// @Tags Programs
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	programs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// GroupNames godoc
// @Summary List distinct group names
// @Tags Programs
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /programs/names [get]
func (h *ProgramHandler) GroupNames(c *gin.Context) {
	names, err := h.service.GroupNames(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}

// Get godoc
// @Summary Get a group by name
// @Tags Programs
// @Produce json
// @Param group path string true "Group name"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /programs/{group} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.service.GetByGroup(c.Request.Context(), c.Param("group"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// DeadlineStatus godoc
// @Summary Get the submission window for a group
// @Tags Programs
// @Produce json
// @Param group path string true "Group name"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /programs/{group}/deadline [get]
func (h *ProgramHandler) DeadlineStatus(c *gin.Context) {
	status, err := h.service.DeadlineStatus(c.Request.Context(), c.Param("group"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Create godoc
// @Summary Create a student group
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	var req service.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	program, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Update godoc
// @Summary Update a student group
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body service.UpdateProgramRequest true "Group payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /programs/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	var req service.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	program, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// SetDeadline godoc
// @Summary Set the submission deadline for a group
// @Tags Programs
// @Accept json
// @Produce json
// @Param group path string true "Group name"
// @Param payload body service.SetDeadlineRequest true "Deadline payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /programs/{group}/deadline [put]
func (h *ProgramHandler) SetDeadline(c *gin.Context) {
	var req service.SetDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	program, err := h.service.SetDeadline(c.Request.Context(), c.Param("group"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Delete godoc
// @Summary Delete a student group
// @Tags Programs
// @Produce json
// @Param group path string true "Group name"
// @Success 204
// @Security BearerAuth
// @Router /programs/{group} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("group")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
