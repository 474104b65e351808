package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/makeyourchoice/electives-api/internal/models"
)

// CourseRepository handles persistence for the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository instantiates a catalogue repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = "id, title, description, teacher, language, type, program, years, archived, created_at, updated_at"

// List returns courses matching provided filters. Non-archived courses sort
// before archived ones, newest first within each bucket.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM catalogue WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeArchived {
		conditions = append(conditions, "archived = FALSE")
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(program)", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Language != "" {
		conditions = append(conditions, fmt.Sprintf("language = $%d", len(args)+1))
		args = append(args, filter.Language)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(years)", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY archived ASC, created_at DESC LIMIT %d OFFSET %d", courseColumns, base, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// FindByID loads a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM catalogue WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByTitle loads a course by its unique title.
func (r *CourseRepository) FindByTitle(ctx context.Context, title string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM catalogue WHERE title = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, title); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListByTitles returns the courses whose titles are in the set, archived
// ones included; callers filter on the archived flag. Used to scope the
// catalogue to a semester roster.
func (r *CourseRepository) ListByTitles(ctx context.Context, titles []string) ([]models.Course, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM catalogue WHERE title = ANY($1) ORDER BY created_at DESC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(titles)); err != nil {
		return nil, fmt.Errorf("list courses by titles: %w", err)
	}
	return courses, nil
}

// Create inserts a new catalogue entry.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO catalogue (id, title, description, teacher, language, type, program, years, archived, created_at, updated_at)
        VALUES (:id, :title, :description, :teacher, :language, :type, :program, :years, :archived, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing catalogue entry.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE catalogue SET title = :title, description = :description, teacher = :teacher, language = :language,
        type = :type, program = :program, years = :years, archived = :archived, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// SetArchived toggles the archived flag.
func (r *CourseRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	const query = `UPDATE catalogue SET archived = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, archived, time.Now().UTC()); err != nil {
		return fmt.Errorf("set course archived: %w", err)
	}
	return nil
}

// Delete removes a course permanently.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM catalogue WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
