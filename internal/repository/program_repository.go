package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/makeyourchoice/electives-api/internal/models"
)

// ProgramRepository handles persistence for student groups and their
// elective quotas and deadlines.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository instantiates a program repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

const programColumns = "id, student_group, tech, hum, deadline, created_at, updated_at"

// List returns all groups ordered by name.
func (r *ProgramRepository) List(ctx context.Context) ([]models.Program, error) {
	query := fmt.Sprintf("SELECT %s FROM groups_electives ORDER BY student_group ASC", programColumns)
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindByID loads a group by identifier.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	query := fmt.Sprintf("SELECT %s FROM groups_electives WHERE id = $1", programColumns)
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// FindByGroup loads a group by its unique name.
func (r *ProgramRepository) FindByGroup(ctx context.Context, group string) (*models.Program, error) {
	query := fmt.Sprintf("SELECT %s FROM groups_electives WHERE student_group = $1", programColumns)
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, group); err != nil {
		return nil, err
	}
	return &program, nil
}

// GroupNames returns the distinct list of group names.
func (r *ProgramRepository) GroupNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names, `SELECT DISTINCT student_group FROM groups_electives ORDER BY student_group ASC`); err != nil {
		return nil, fmt.Errorf("list group names: %w", err)
	}
	return names, nil
}

// Create inserts a new group record.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = now
	}
	program.UpdatedAt = now

	const query = `INSERT INTO groups_electives (id, student_group, tech, hum, deadline, created_at, updated_at)
        VALUES (:id, :student_group, :tech, :hum, :deadline, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update modifies an existing group.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups_electives SET student_group = :student_group, tech = :tech, hum = :hum,
        deadline = :deadline, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// SetDeadline updates the submission deadline for a group by name.
func (r *ProgramRepository) SetDeadline(ctx context.Context, group string, deadline *time.Time) error {
	const query = `UPDATE groups_electives SET deadline = $2, updated_at = $3 WHERE student_group = $1`
	if _, err := r.db.ExecContext(ctx, query, group, deadline, time.Now().UTC()); err != nil {
		return fmt.Errorf("set program deadline: %w", err)
	}
	return nil
}

// Delete removes a group by name.
func (r *ProgramRepository) Delete(ctx context.Context, group string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM groups_electives WHERE student_group = $1`, group); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return nil
}
