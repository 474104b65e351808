package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/makeyourchoice/electives-api/internal/models"
)

// SuggestionRepository handles persistence for student-suggested courses.
type SuggestionRepository struct {
	db *sqlx.DB
}

// NewSuggestionRepository instantiates a suggestion repository.
func NewSuggestionRepository(db *sqlx.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

const suggestionColumns = "id, title, description, teacher, language, type, program, years, creator, is_declined, created_at"

// List returns suggestions filtered by the declined flag, newest first.
func (r *SuggestionRepository) List(ctx context.Context, declined bool) ([]models.SuggestedCourse, error) {
	query := fmt.Sprintf("SELECT %s FROM suggested_courses WHERE is_declined = $1 ORDER BY created_at DESC", suggestionColumns)
	var suggestions []models.SuggestedCourse
	if err := r.db.SelectContext(ctx, &suggestions, query, declined); err != nil {
		return nil, fmt.Errorf("list suggested courses: %w", err)
	}
	return suggestions, nil
}

// FindByID loads a suggestion by identifier.
func (r *SuggestionRepository) FindByID(ctx context.Context, id string) (*models.SuggestedCourse, error) {
	query := fmt.Sprintf("SELECT %s FROM suggested_courses WHERE id = $1", suggestionColumns)
	var suggestion models.SuggestedCourse
	if err := r.db.GetContext(ctx, &suggestion, query, id); err != nil {
		return nil, err
	}
	return &suggestion, nil
}

// Create inserts a new suggestion.
func (r *SuggestionRepository) Create(ctx context.Context, suggestion *models.SuggestedCourse) error {
	if suggestion.ID == "" {
		suggestion.ID = uuid.NewString()
	}
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO suggested_courses (id, title, description, teacher, language, type, program, years, creator, is_declined, created_at)
        VALUES (:id, :title, :description, :teacher, :language, :type, :program, :years, :creator, :is_declined, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, suggestion); err != nil {
		return fmt.Errorf("create suggested course: %w", err)
	}
	return nil
}

// Update modifies a pending suggestion.
func (r *SuggestionRepository) Update(ctx context.Context, suggestion *models.SuggestedCourse) error {
	const query = `UPDATE suggested_courses SET title = :title, description = :description, teacher = :teacher,
        language = :language, type = :type, program = :program, years = :years WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, suggestion); err != nil {
		return fmt.Errorf("update suggested course: %w", err)
	}
	return nil
}

// SetDeclined flips the declined flag (decline or recover).
func (r *SuggestionRepository) SetDeclined(ctx context.Context, id string, declined bool) error {
	const query = `UPDATE suggested_courses SET is_declined = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, declined); err != nil {
		return fmt.Errorf("set suggestion declined: %w", err)
	}
	return nil
}

// Delete removes a suggestion permanently.
func (r *SuggestionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM suggested_courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete suggested course: %w", err)
	}
	return nil
}

// Accept moves a suggestion into the catalogue and removes it from the
// suggestions table within a single transaction.
func (r *SuggestionRepository) Accept(ctx context.Context, suggestion *models.SuggestedCourse) (*models.Course, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin accept tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	course := &models.Course{
		ID:          uuid.NewString(),
		Title:       suggestion.Title,
		Description: suggestion.Description,
		Teacher:     suggestion.Teacher,
		Language:    suggestion.Language,
		Type:        suggestion.Type,
		Programs:    suggestion.Programs,
		Years:       suggestion.Years,
		Archived:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const insert = `INSERT INTO catalogue (id, title, description, teacher, language, type, program, years, archived, created_at, updated_at)
        VALUES (:id, :title, :description, :teacher, :language, :type, :program, :years, :archived, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, course); err != nil {
		return nil, fmt.Errorf("insert accepted course: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM suggested_courses WHERE id = $1`, suggestion.ID); err != nil {
		return nil, fmt.Errorf("remove accepted suggestion: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit accept tx: %w", err)
	}
	return course, nil
}
