package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type programRepository interface {
	List(ctx context.Context) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	FindByGroup(ctx context.Context, group string) (*models.Program, error)
	GroupNames(ctx context.Context) ([]string, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	SetDeadline(ctx context.Context, group string, deadline *time.Time) error
	Delete(ctx context.Context, group string) error
}

// CreateProgramRequest describes group creation payload.
type CreateProgramRequest struct {
	StudentGroup string     `json:"student_group" validate:"required"`
	TechCount    int        `json:"tech" validate:"gte=0"`
	HumCount     int        `json:"hum" validate:"gte=0"`
	Deadline     *time.Time `json:"deadline"`
}

// UpdateProgramRequest describes group update payload.
type UpdateProgramRequest struct {
	StudentGroup string     `json:"student_group" validate:"required"`
	TechCount    int        `json:"tech" validate:"gte=0"`
	HumCount     int        `json:"hum" validate:"gte=0"`
	Deadline     *time.Time `json:"deadline"`
}

// SetDeadlineRequest updates only the submission deadline for a group.
type SetDeadlineRequest struct {
	Deadline *time.Time `json:"deadline"`
}

// ProgramService manages student groups, their elective quotas and the
// per-group submission deadlines.
type ProgramService struct {
	repo      programRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs a ProgramService.
func NewProgramService(repo programRepository, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, validator: validate, logger: logger}
}

// List returns all groups.
func (s *ProgramService) List(ctx context.Context) ([]models.Program, error) {
	programs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return programs, nil
}

// GroupNames returns the distinct group names, for admin pickers.
func (s *ProgramService) GroupNames(ctx context.Context) ([]string, error) {
	names, err := s.repo.GroupNames(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group names")
	}
	return names, nil
}

// GetByGroup loads a group by name.
func (s *ProgramService) GetByGroup(ctx context.Context, group string) (*models.Program, error) {
	program, err := s.repo.FindByGroup(ctx, group)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return program, nil
}

// DeadlineStatus evaluates the submission window for a group right now.
func (s *ProgramService) DeadlineStatus(ctx context.Context, group string) (*models.DeadlineStatus, error) {
	program, err := s.GetByGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	status := ComputeDeadlineStatus(program.Deadline, time.Now().UTC())
	return &status, nil
}

// Create registers a new group.
func (s *ProgramService) Create(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	if _, err := s.repo.FindByGroup(ctx, req.StudentGroup); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group name")
	}

	program := &models.Program{
		StudentGroup: req.StudentGroup,
		TechCount:    req.TechCount,
		HumCount:     req.HumCount,
		Deadline:     req.Deadline,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return program, nil
}

// Update modifies a group's quotas and deadline.
func (s *ProgramService) Update(ctx context.Context, id string, req UpdateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	program.StudentGroup = req.StudentGroup
	program.TechCount = req.TechCount
	program.HumCount = req.HumCount
	program.Deadline = req.Deadline

	if err := s.repo.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}
	return program, nil
}

// SetDeadline updates only the submission deadline for a group.
func (s *ProgramService) SetDeadline(ctx context.Context, group string, req SetDeadlineRequest) (*models.Program, error) {
	if _, err := s.GetByGroup(ctx, group); err != nil {
		return nil, err
	}
	if err := s.repo.SetDeadline(ctx, group, req.Deadline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set deadline")
	}
	return s.GetByGroup(ctx, group)
}

// Delete removes a group by name.
func (s *ProgramService) Delete(ctx context.Context, group string) error {
	if _, err := s.GetByGroup(ctx, group); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, group); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	return nil
}
