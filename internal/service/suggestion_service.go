package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type suggestionRepository interface {
	List(ctx context.Context, declined bool) ([]models.SuggestedCourse, error)
	FindByID(ctx context.Context, id string) (*models.SuggestedCourse, error)
	Create(ctx context.Context, suggestion *models.SuggestedCourse) error
	Update(ctx context.Context, suggestion *models.SuggestedCourse) error
	SetDeclined(ctx context.Context, id string, declined bool) error
	Delete(ctx context.Context, id string) error
	Accept(ctx context.Context, suggestion *models.SuggestedCourse) (*models.Course, error)
}

type courseTitleReader interface {
	FindByTitle(ctx context.Context, title string) (*models.Course, error)
}

// SuggestCourseRequest describes a student proposal for a new elective.
type SuggestCourseRequest struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Teacher     string            `json:"teacher"`
	Language    string            `json:"language"`
	Type        models.CourseType `json:"type" validate:"required,oneof=tech hum"`
	Programs    []string          `json:"program" validate:"required,min=1"`
	Years       []int64           `json:"years" validate:"required,min=1"`
}

// SuggestionService manages student-proposed courses and the admin review
// flow: accept into the catalogue, decline, recover or delete.
type SuggestionService struct {
	repo      suggestionRepository
	catalogue courseTitleReader
	cache     CacheStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSuggestionService constructs a SuggestionService. The cache is
// optional and only used for catalogue invalidation on accept.
func NewSuggestionService(repo suggestionRepository, catalogue courseTitleReader, cache CacheStore, validate *validator.Validate, logger *zap.Logger) *SuggestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{repo: repo, catalogue: catalogue, cache: cache, validator: validate, logger: logger}
}

// List returns pending or declined suggestions.
func (s *SuggestionService) List(ctx context.Context, declined bool) ([]models.SuggestedCourse, error) {
	suggestions, err := s.repo.List(ctx, declined)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suggestions")
	}
	return suggestions, nil
}

// Get loads one suggestion.
func (s *SuggestionService) Get(ctx context.Context, id string) (*models.SuggestedCourse, error) {
	suggestion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "suggestion not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load suggestion")
	}
	return suggestion, nil
}

// Create records a student proposal.
func (s *SuggestionService) Create(ctx context.Context, creator string, req SuggestCourseRequest) (*models.SuggestedCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestion payload")
	}

	suggestion := &models.SuggestedCourse{
		Title:       req.Title,
		Description: req.Description,
		Teacher:     req.Teacher,
		Language:    req.Language,
		Type:        req.Type,
		Programs:    pq.StringArray(req.Programs),
		Years:       pq.Int64Array(req.Years),
		Creator:     creator,
	}
	if err := s.repo.Create(ctx, suggestion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create suggestion")
	}
	return suggestion, nil
}

// Update modifies a pending suggestion before review.
func (s *SuggestionService) Update(ctx context.Context, id string, req SuggestCourseRequest) (*models.SuggestedCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestion payload")
	}

	suggestion, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	suggestion.Title = req.Title
	suggestion.Description = req.Description
	suggestion.Teacher = req.Teacher
	suggestion.Language = req.Language
	suggestion.Type = req.Type
	suggestion.Programs = pq.StringArray(req.Programs)
	suggestion.Years = pq.Int64Array(req.Years)

	if err := s.repo.Update(ctx, suggestion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update suggestion")
	}
	return suggestion, nil
}

// Accept turns the suggestion into a catalogue entry. The insert and the
// removal from the suggestion list happen in one transaction.
func (s *SuggestionService) Accept(ctx context.Context, id string) (*models.Course, error) {
	suggestion, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.catalogue.FindByTitle(ctx, suggestion.Title); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course title already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course title")
	}

	course, err := s.repo.Accept(ctx, suggestion)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept suggestion")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, catalogueCachePrefix+"*"); err != nil {
			s.logger.Warn("failed to invalidate catalogue cache", zap.Error(err))
		}
	}
	return course, nil
}

// Decline flags a suggestion as declined, keeping it recoverable.
func (s *SuggestionService) Decline(ctx context.Context, id string) error {
	return s.setDeclined(ctx, id, true)
}

// Recover moves a declined suggestion back to the pending list.
func (s *SuggestionService) Recover(ctx context.Context, id string) error {
	return s.setDeclined(ctx, id, false)
}

func (s *SuggestionService) setDeclined(ctx context.Context, id string, declined bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetDeclined(ctx, id, declined); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change declined flag")
	}
	return nil
}

// Delete permanently removes a suggestion.
func (s *SuggestionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete suggestion")
	}
	return nil
}
