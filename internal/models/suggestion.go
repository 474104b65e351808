package models

import (
	"time"

	"github.com/lib/pq"
)

// SuggestedCourse is a student-proposed course pending admin review.
// Accepting moves it into the catalogue; declining flags it, keeping the
// record recoverable until it is deleted from the declined list.
type SuggestedCourse struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Teacher     string         `db:"teacher" json:"teacher"`
	Language    string         `db:"language" json:"language"`
	Type        CourseType     `db:"type" json:"type"`
	Programs    pq.StringArray `db:"program" json:"program"`
	Years       pq.Int64Array  `db:"years" json:"years"`
	Creator     string         `db:"creator" json:"creator"`
	IsDeclined  bool           `db:"is_declined" json:"is_declined"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
