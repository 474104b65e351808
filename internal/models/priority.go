package models

import (
	"time"

	"github.com/lib/pq"
)

// PriorityRecord is the "latest" view of a student's ranked selections,
// one row per email, overwritten on every submission.
type PriorityRecord struct {
	ID        string         `db:"id" json:"id"`
	Email     string         `db:"email" json:"email"`
	Tech      pq.StringArray `db:"tech" json:"tech"`
	Hum       pq.StringArray `db:"hum" json:"hum"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// PriorityLogEntry is one row of the append-only submission log.
type PriorityLogEntry struct {
	ID         string         `db:"id" json:"id"`
	Email      string         `db:"email" json:"email"`
	Type       CourseType     `db:"type" json:"type"`
	Selections pq.StringArray `db:"selections" json:"selections"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// PriorityLogFilter narrows the submission log listing.
type PriorityLogFilter struct {
	Email    string
	Type     CourseType
	Page     int
	PageSize int
}
