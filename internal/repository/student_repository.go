package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/makeyourchoice/electives-api/internal/models"
)

// StudentRepository resolves student identities from the emails_groups
// mapping plus completed-course history and admin membership.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository instantiates a student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByEmail resolves the group and year behind an email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	const query = `SELECT id, email, student_group, year, created_at FROM emails_groups WHERE email = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByGroup returns every student mapped to the given group.
func (r *StudentRepository) ListByGroup(ctx context.Context, group string) ([]models.Student, error) {
	const query = `SELECT id, email, student_group, year, created_at FROM emails_groups WHERE student_group = $1 ORDER BY email ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, group); err != nil {
		return nil, fmt.Errorf("list students by group: %w", err)
	}
	return students, nil
}

// Create inserts a new email -> group mapping.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO emails_groups (id, email, student_group, year, created_at)
        VALUES (:id, :email, :student_group, :year, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student mapping: %w", err)
	}
	return nil
}

// Delete removes the mapping for an email.
func (r *StudentRepository) Delete(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM emails_groups WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete student mapping: %w", err)
	}
	return nil
}

// CompletedTitles returns the titles of courses the student already passed.
func (r *StudentRepository) CompletedTitles(ctx context.Context, email string) ([]string, error) {
	var titles []string
	if err := r.db.SelectContext(ctx, &titles, `SELECT course_title FROM history WHERE email = $1`, email); err != nil {
		return nil, fmt.Errorf("list completed courses: %w", err)
	}
	return titles, nil
}

// AddCompleted records a passed course for a student.
func (r *StudentRepository) AddCompleted(ctx context.Context, email, courseTitle string) error {
	const query = `INSERT INTO history (id, email, course_title, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), email, courseTitle, time.Now().UTC()); err != nil {
		return fmt.Errorf("record completed course: %w", err)
	}
	return nil
}

// IsAdmin reports whether the email belongs to the admins table.
func (r *StudentRepository) IsAdmin(ctx context.Context, email string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM admins WHERE email = $1 LIMIT 1`, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check admin membership: %w", err)
	}
	return true, nil
}
