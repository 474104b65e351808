package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	"github.com/makeyourchoice/electives-api/internal/repository"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type semesterRepository interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	ListActive(ctx context.Context) ([]models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CacheStore is the read-side cache used by catalogue and semester
// lookups. A nil CacheStore disables caching.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const activeSemesterCacheKey = "semesters:active"

// CreateSemesterRequest describes semester creation payload.
type CreateSemesterRequest struct {
	Season       models.Season `json:"season" validate:"required,oneof=Fall Spring Summer"`
	Year         int           `json:"semester_year" validate:"required,gte=2000"`
	CourseTitles []string      `json:"course_titles"`
	Programs     []string      `json:"programs"`
	Deadline     *time.Time    `json:"deadline"`
}

// UpdateSemesterRequest describes semester update payload. The active flag
// is managed only through activate/deactivate.
type UpdateSemesterRequest struct {
	Season       models.Season `json:"season" validate:"required,oneof=Fall Spring Summer"`
	Year         int           `json:"semester_year" validate:"required,gte=2000"`
	CourseTitles []string      `json:"course_titles"`
	Programs     []string      `json:"programs"`
	Deadline     *time.Time    `json:"deadline"`
}

// SemesterService manages academic semesters and the single-active invariant.
type SemesterService struct {
	repo      semesterRepository
	cache     CacheStore
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs a SemesterService. The cache is optional.
func NewSemesterService(repo semesterRepository, cache CacheStore, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns semesters with pagination metadata.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	semesters, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return semesters, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one semester.
func (s *SemesterService) Get(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// GetActive returns the currently active semester, or nil when voting is
// closed. Multiple active rows violate the invariant; the call fails rather
// than guessing which one students should see.
func (s *SemesterService) GetActive(ctx context.Context) (*models.Semester, error) {
	if s.cache != nil {
		var cached models.Semester
		if err := s.cache.Get(ctx, activeSemesterCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active semester")
	}
	switch len(active) {
	case 0:
		return nil, nil
	case 1:
		if s.cache != nil {
			if err := s.cache.Set(ctx, activeSemesterCacheKey, active[0], s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache active semester", zap.Error(err))
			}
		}
		return &active[0], nil
	default:
		s.logger.Error("multiple semesters flagged active", zap.Int("count", len(active)))
		return nil, appErrors.Clone(appErrors.ErrConflict, "multiple semesters are flagged active")
	}
}

// Create registers a new, inactive semester.
func (s *SemesterService) Create(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}

	semester := &models.Semester{
		Season:       req.Season,
		Year:         req.Year,
		CourseTitles: pq.StringArray(req.CourseTitles),
		Programs:     pq.StringArray(req.Programs),
		Deadline:     req.Deadline,
		IsActive:     false,
	}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// Update modifies roster, programs and deadline of a semester.
func (s *SemesterService) Update(ctx context.Context, id string, req UpdateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}

	semester, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	semester.Season = req.Season
	semester.Year = req.Year
	semester.CourseTitles = pq.StringArray(req.CourseTitles)
	semester.Programs = pq.StringArray(req.Programs)
	semester.Deadline = req.Deadline

	if err := s.repo.Update(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	s.invalidateActiveCache(ctx)
	return semester, nil
}

// Activate opens voting for the semester. The request is rejected while a
// different semester is active; deactivate it first.
func (s *SemesterService) Activate(ctx context.Context, id string) (*models.Semester, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.Activate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAnotherSemesterActive) {
			return nil, appErrors.Clone(appErrors.ErrSemesterActive, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate semester")
	}
	s.invalidateActiveCache(ctx)
	return s.Get(ctx, id)
}

// Deactivate closes voting for the semester. Submitted priorities remain.
func (s *SemesterService) Deactivate(ctx context.Context, id string) (*models.Semester, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate semester")
	}
	s.invalidateActiveCache(ctx)
	return s.Get(ctx, id)
}

// Delete removes a semester. The active semester cannot be deleted;
// deactivate it first.
func (s *SemesterService) Delete(ctx context.Context, id string) error {
	semester, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if semester.IsActive {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete the active semester")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester")
	}
	s.invalidateActiveCache(ctx)
	return nil
}

func (s *SemesterService) invalidateActiveCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, activeSemesterCacheKey); err != nil {
		s.logger.Warn("failed to invalidate active semester cache", zap.Error(err))
	}
}
