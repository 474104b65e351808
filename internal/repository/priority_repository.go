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

// PriorityRepository persists elective priority submissions: an append-only
// log (all_priorities) and a latest-per-student view (last_priorities).
type PriorityRepository struct {
	db *sqlx.DB
}

// NewPriorityRepository instantiates a priority repository.
func NewPriorityRepository(db *sqlx.DB) *PriorityRepository {
	return &PriorityRepository{db: db}
}

// Submit appends a log row and upserts the latest record in one transaction,
// so the two views cannot diverge on a partial failure.
func (r *PriorityRepository) Submit(ctx context.Context, email string, courseType models.CourseType, selections []string) error {
	column := "tech"
	if courseType == models.CourseTypeHum {
		column = "hum"
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submit tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO all_priorities (id, email, type, selections, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), email, courseType, pq.Array(selections), now,
	); err != nil {
		return fmt.Errorf("append priority log: %w", err)
	}

	upsert := fmt.Sprintf(`INSERT INTO last_priorities (id, email, %s, updated_at) VALUES ($1, $2, $3, $4)
        ON CONFLICT (email) DO UPDATE SET %s = EXCLUDED.%s, updated_at = EXCLUDED.updated_at`, column, column, column)
	if _, err = tx.ExecContext(ctx, upsert, uuid.NewString(), email, pq.Array(selections), now); err != nil {
		return fmt.Errorf("upsert latest priorities: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit submit tx: %w", err)
	}
	return nil
}

// FindLatestByEmail returns the latest record for a student.
func (r *PriorityRepository) FindLatestByEmail(ctx context.Context, email string) (*models.PriorityRecord, error) {
	const query = `SELECT id, email, tech, hum, updated_at FROM last_priorities WHERE email = $1`
	var record models.PriorityRecord
	if err := r.db.GetContext(ctx, &record, query, email); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListLatest returns all latest records ordered by email, for exports.
func (r *PriorityRepository) ListLatest(ctx context.Context) ([]models.PriorityRecord, error) {
	const query = `SELECT id, email, tech, hum, updated_at FROM last_priorities ORDER BY email ASC`
	var records []models.PriorityRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list latest priorities: %w", err)
	}
	return records, nil
}

// ListLog returns submission log entries matching the filter, newest first.
func (r *PriorityRepository) ListLog(ctx context.Context, filter models.PriorityLogFilter) ([]models.PriorityLogEntry, int, error) {
	base := "FROM all_priorities WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Email != "" {
		conditions = append(conditions, fmt.Sprintf("email = $%d", len(args)+1))
		args = append(args, filter.Email)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
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
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, email, type, selections, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)

	var entries []models.PriorityLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list priority log: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count priority log: %w", err)
	}

	return entries, total, nil
}
