package models

import "time"

// Program models a student group row ("groups_electives"): the per-group
// elective quotas and the shared submission deadline.
type Program struct {
	ID           string     `db:"id" json:"id"`
	StudentGroup string     `db:"student_group" json:"student_group"`
	TechCount    int        `db:"tech" json:"tech"`
	HumCount     int        `db:"hum" json:"hum"`
	Deadline     *time.Time `db:"deadline" json:"deadline,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Quota returns the number of priority slots for the given course type.
func (p *Program) Quota(courseType CourseType) int {
	if courseType == CourseTypeHum {
		return p.HumCount
	}
	return p.TechCount
}

// Remaining is the decomposed time left until a deadline.
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// DeadlineStatus reports whether a group's submission window is open.
// Remaining is nil once the window closed or when no deadline is on record.
type DeadlineStatus struct {
	IsPassed  bool       `json:"is_passed"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Remaining *Remaining `json:"remaining,omitempty"`
	Display   string     `json:"display"`
}
