package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByTitle(ctx context.Context, title string) (*models.Course, error)
	ListByTitles(ctx context.Context, titles []string) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SetArchived(ctx context.Context, id string, archived bool) error
	Delete(ctx context.Context, id string) error
}

type completedCoursesReader interface {
	CompletedTitles(ctx context.Context, email string) ([]string, error)
}

const catalogueCachePrefix = "catalogue:"

// CreateCourseRequest describes catalogue entry creation payload.
type CreateCourseRequest struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Teacher     string            `json:"teacher"`
	Language    string            `json:"language"`
	Type        models.CourseType `json:"type" validate:"required,oneof=tech hum"`
	Programs    []string          `json:"program" validate:"required,min=1"`
	Years       []int64           `json:"years" validate:"required,min=1"`
}

// UpdateCourseRequest describes catalogue entry update payload.
type UpdateCourseRequest struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Teacher     string            `json:"teacher"`
	Language    string            `json:"language"`
	Type        models.CourseType `json:"type" validate:"required,oneof=tech hum"`
	Programs    []string          `json:"program" validate:"required,min=1"`
	Years       []int64           `json:"years" validate:"required,min=1"`
	Archived    bool              `json:"archived"`
}

// CatalogueService manages the elective catalogue: the admin CRUD surface
// and the per-student visible subset.
type CatalogueService struct {
	repo      courseRepository
	history   completedCoursesReader
	cache     CacheStore
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogueService constructs a CatalogueService. The cache is optional.
func NewCatalogueService(repo courseRepository, history completedCoursesReader, cache CacheStore, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CatalogueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogueService{repo: repo, history: history, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type cachedCourseList struct {
	Courses []models.Course `json:"courses"`
	Total   int             `json:"total"`
}

// List returns catalogue entries for the admin surface. Non-archived
// courses sort before archived ones.
func (s *CatalogueService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	key := s.listCacheKey(filter)
	if s.cache != nil {
		var cached cachedCourseList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Courses, s.paginationFor(filter, cached.Total), nil
		}
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedCourseList{Courses: courses, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache course list", zap.Error(err))
		}
	}
	return courses, s.paginationFor(filter, total), nil
}

// Get loads one catalogue entry.
func (s *CatalogueService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// VisibleCourses returns the electives a student may rank: scoped to the
// semester roster, limited to the student's group and year, excluding
// archived entries and courses already passed. A semester with an empty
// roster yields no courses. The catalogue-wide path only serves calls
// without a semester.
func (s *CatalogueService) VisibleCourses(ctx context.Context, student *models.Student, semester *models.Semester, courseType models.CourseType) ([]models.Course, error) {
	var candidates []models.Course
	var err error

	if semester != nil {
		candidates, err = s.repo.ListByTitles(ctx, semester.CourseTitles)
	} else {
		candidates, _, err = s.repo.List(ctx, models.CourseFilter{})
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course candidates")
	}

	completed, err := s.history.CompletedTitles(ctx, student.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completed courses")
	}
	passed := make(map[string]struct{}, len(completed))
	for _, title := range completed {
		passed[title] = struct{}{}
	}

	visible := make([]models.Course, 0, len(candidates))
	for _, course := range candidates {
		if course.Archived || course.Type != courseType {
			continue
		}
		if !course.HasProgram(student.StudentGroup) || !course.HasYear(student.Year) {
			continue
		}
		if _, done := passed[course.Title]; done {
			continue
		}
		visible = append(visible, course)
	}
	return visible, nil
}

// Create adds a catalogue entry. Titles are unique; semesters and history
// reference courses by title.
func (s *CatalogueService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	if _, err := s.repo.FindByTitle(ctx, req.Title); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course title already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course title")
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Teacher:     req.Teacher,
		Language:    req.Language,
		Type:        req.Type,
		Programs:    pq.StringArray(req.Programs),
		Years:       pq.Int64Array(req.Years),
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidateCache(ctx)
	return course, nil
}

// Update modifies a catalogue entry.
func (s *CatalogueService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Teacher = req.Teacher
	course.Language = req.Language
	course.Type = req.Type
	course.Programs = pq.StringArray(req.Programs)
	course.Years = pq.Int64Array(req.Years)
	course.Archived = req.Archived

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidateCache(ctx)
	return course, nil
}

// Archive hides a course from students without deleting its history.
func (s *CatalogueService) Archive(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, true)
}

// Unarchive restores an archived course.
func (s *CatalogueService) Unarchive(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, false)
}

func (s *CatalogueService) setArchived(ctx context.Context, id string, archived bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetArchived(ctx, id, archived); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change archived flag")
	}
	s.invalidateCache(ctx)
	return nil
}

// Delete permanently removes a catalogue entry.
func (s *CatalogueService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogueService) listCacheKey(filter models.CourseFilter) string {
	return fmt.Sprintf("%slist:%s:%s:%s:%d:%s:%t:%d:%d",
		catalogueCachePrefix, filter.Type, filter.Program, filter.Language, filter.Year, filter.Search, filter.IncludeArchived, filter.Page, filter.PageSize)
}

func (s *CatalogueService) paginationFor(filter models.CourseFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func (s *CatalogueService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, catalogueCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate catalogue cache", zap.Error(err))
	}
}
