package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Season enumerates academic semester seasons.
type Season string

const (
	SeasonFall   Season = "Fall"
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
)

// Semester models an academic term with its course roster and the list of
// eligible "<year> <group>" program tokens. At most one semester may be
// active at any time.
type Semester struct {
	ID           string         `db:"id" json:"id"`
	Season       Season         `db:"season" json:"season"`
	Year         int            `db:"semester_year" json:"semester_year"`
	CourseTitles pq.StringArray `db:"course_titles" json:"course_titles"`
	Programs     pq.StringArray `db:"programs" json:"programs"`
	Deadline     *time.Time     `db:"deadline" json:"deadline,omitempty"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ProgramToken renders the eligibility token for a year and group,
// e.g. "2 B24-DSAI". Matching is exact and case-sensitive.
func ProgramToken(year int, group string) string {
	return fmt.Sprintf("%d %s", year, group)
}

// AllowsProgram reports whether the semester admits the year/group pair.
func (s *Semester) AllowsProgram(year int, group string) bool {
	token := ProgramToken(year, group)
	for _, p := range s.Programs {
		if p == token {
			return true
		}
	}
	return false
}

// IncludesCourse reports whether a course title is on the semester roster.
func (s *Semester) IncludesCourse(title string) bool {
	for _, t := range s.CourseTitles {
		if t == title {
			return true
		}
	}
	return false
}

// SemesterFilter defines filters supported by semester list endpoints.
type SemesterFilter struct {
	Season   Season
	Year     int
	IsActive *bool
	Page     int
	PageSize int
}
