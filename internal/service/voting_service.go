package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type priorityRepository interface {
	Submit(ctx context.Context, email string, courseType models.CourseType, selections []string) error
	FindLatestByEmail(ctx context.Context, email string) (*models.PriorityRecord, error)
	ListLatest(ctx context.Context) ([]models.PriorityRecord, error)
	ListLog(ctx context.Context, filter models.PriorityLogFilter) ([]models.PriorityLogEntry, int, error)
}

type eligibilityChecker interface {
	Check(ctx context.Context, email string) (*Eligibility, error)
}

type groupReader interface {
	FindByGroup(ctx context.Context, group string) (*models.Program, error)
}

type visibleCoursesProvider interface {
	VisibleCourses(ctx context.Context, student *models.Student, semester *models.Semester, courseType models.CourseType) ([]models.Course, error)
}

// SubmitPrioritiesRequest carries one ranked ballot: the selection at index
// zero is the student's first choice.
type SubmitPrioritiesRequest struct {
	Type       models.CourseType `json:"type" validate:"required,oneof=tech hum"`
	Selections []string          `json:"selections" validate:"required"`
}

// VotingService accepts ranked elective ballots. Every submission passes
// eligibility and deadline gates before any write happens.
type VotingService struct {
	repo        priorityRepository
	eligibility eligibilityChecker
	programs    groupReader
	catalogue   visibleCoursesProvider
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewVotingService constructs a VotingService.
func NewVotingService(repo priorityRepository, eligibility eligibilityChecker, programs groupReader, catalogue visibleCoursesProvider, validate *validator.Validate, logger *zap.Logger) *VotingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VotingService{repo: repo, eligibility: eligibility, programs: programs, catalogue: catalogue, validator: validate, logger: logger}
}

// Submit validates and records a ballot. The ballot must fill every slot of
// the group's quota for the course type, contain no blanks or duplicates,
// and reference only courses visible to the student. The submission log and
// the latest view are written atomically.
func (s *VotingService) Submit(ctx context.Context, email string, req SubmitPrioritiesRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ballot payload")
	}

	elig, err := s.eligibility.Check(ctx, email)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check eligibility")
	}
	if !elig.Eligible {
		return appErrors.Clone(appErrors.ErrNotEligible, "")
	}

	program, err := s.programs.FindByGroup(ctx, elig.Student.StudentGroup)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	if ComputeDeadlineStatus(program.Deadline, time.Now().UTC()).IsPassed {
		return appErrors.Clone(appErrors.ErrDeadlinePassed, "")
	}

	quota := program.Quota(req.Type)
	if quota <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no priority slots configured for this course type")
	}

	if err := validateSelections(req.Selections, quota); err != nil {
		return err
	}

	visible, err := s.catalogue.VisibleCourses(ctx, elig.Student, elig.Semester, req.Type)
	if err != nil {
		return err
	}
	allowed := make(map[string]struct{}, len(visible))
	for _, course := range visible {
		allowed[course.Title] = struct{}{}
	}
	for _, title := range req.Selections {
		if _, ok := allowed[title]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "selection contains a course that is not available")
		}
	}

	if err := s.repo.Submit(ctx, email, req.Type, req.Selections); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record ballot")
	}

	s.logger.Info("ballot recorded",
		zap.String("email", email),
		zap.String("type", string(req.Type)),
		zap.Int("selections", len(req.Selections)))
	return nil
}

// validateSelections enforces ballot shape in order: slot count first,
// blanks second, duplicates last.
func validateSelections(selections []string, quota int) error {
	if len(selections) != quota {
		return appErrors.Clone(appErrors.ErrIncompleteSelection, "")
	}
	for _, title := range selections {
		if strings.TrimSpace(title) == "" {
			return appErrors.Clone(appErrors.ErrIncompleteSelection, "")
		}
	}
	seen := make(map[string]struct{}, len(selections))
	for _, title := range selections {
		if _, dup := seen[title]; dup {
			return appErrors.Clone(appErrors.ErrDuplicatePriority, "")
		}
		seen[title] = struct{}{}
	}
	return nil
}

// Latest returns the student's current ballot, or not-found when nothing
// was submitted yet.
func (s *VotingService) Latest(ctx context.Context, email string) (*models.PriorityRecord, error) {
	record, err := s.repo.FindLatestByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no priorities submitted yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load priorities")
	}
	return record, nil
}

// ListLatest returns the latest ballot of every student, for exports.
func (s *VotingService) ListLatest(ctx context.Context) ([]models.PriorityRecord, error) {
	records, err := s.repo.ListLatest(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list priorities")
	}
	return records, nil
}

// ListLog returns submission log entries with pagination metadata.
func (s *VotingService) ListLog(ctx context.Context, filter models.PriorityLogFilter) ([]models.PriorityLogEntry, *models.Pagination, error) {
	entries, total, err := s.repo.ListLog(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submission log")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Deadline reports the submission window for the student behind the email.
// Unknown students see a closed window.
func (s *VotingService) Deadline(ctx context.Context, email string) (*models.DeadlineStatus, error) {
	elig, err := s.eligibility.Check(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check eligibility")
	}
	if !elig.Eligible {
		status := models.DeadlineStatus{IsPassed: true, Display: DeadlinePassedDisplay}
		return &status, nil
	}

	program, err := s.programs.FindByGroup(ctx, elig.Student.StudentGroup)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status := models.DeadlineStatus{IsPassed: true, Display: DeadlinePassedDisplay}
			return &status, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	status := ComputeDeadlineStatus(program.Deadline, time.Now().UTC())
	return &status, nil
}
