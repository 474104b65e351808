package models

import (
	"time"

	"github.com/lib/pq"
)

// CourseType separates technical and humanities electives.
type CourseType string

const (
	CourseTypeTech CourseType = "tech"
	CourseTypeHum  CourseType = "hum"
)

// Course models a catalogue entry. Programs and years are stored as
// Postgres arrays; a course is visible to a student only when both match.
type Course struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Teacher     string         `db:"teacher" json:"teacher"`
	Language    string         `db:"language" json:"language"`
	Type        CourseType     `db:"type" json:"type"`
	Programs    pq.StringArray `db:"program" json:"program"`
	Years       pq.Int64Array  `db:"years" json:"years"`
	Archived    bool           `db:"archived" json:"archived"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// HasProgram reports whether the course is offered to the given group.
func (c *Course) HasProgram(program string) bool {
	for _, p := range c.Programs {
		if p == program {
			return true
		}
	}
	return false
}

// HasYear reports whether the course is offered to the given study year.
func (c *Course) HasYear(year int) bool {
	for _, y := range c.Years {
		if int(y) == year {
			return true
		}
	}
	return false
}

// CourseFilter defines filters supported by catalogue list endpoints.
type CourseFilter struct {
	Type            CourseType
	Program         string
	Language        string
	Year            int
	Search          string
	IncludeArchived bool
	Page            int
	PageSize        int
}
