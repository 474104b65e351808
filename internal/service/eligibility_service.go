package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
)

type eligibilityStudentReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
}

type activeSemesterProvider interface {
	GetActive(ctx context.Context) (*models.Semester, error)
}

// Eligibility is the outcome of a membership check against the active
// semester. Student and Semester are set only when Eligible is true.
type Eligibility struct {
	Eligible bool
	Reason   string
	Student  *models.Student
	Semester *models.Semester
}

// EligibilityService decides whether a student may vote in the active
// semester. Any failure to resolve the student or the semester counts as
// not eligible; the check never fails open.
type EligibilityService struct {
	students  eligibilityStudentReader
	semesters activeSemesterProvider
	logger    *zap.Logger
}

// NewEligibilityService constructs an EligibilityService.
func NewEligibilityService(students eligibilityStudentReader, semesters activeSemesterProvider, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{students: students, semesters: semesters, logger: logger}
}

// Check resolves the email to a group/year pair and matches the
// "<year> <group>" token against the active semester's program list.
// Matching is exact and case-sensitive.
func (s *EligibilityService) Check(ctx context.Context, email string) (*Eligibility, error) {
	student, err := s.students.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("student lookup failed, treating as not eligible", zap.String("email", email), zap.Error(err))
		}
		return &Eligibility{Eligible: false, Reason: "no group on record for email"}, nil
	}

	semester, err := s.semesters.GetActive(ctx)
	if err != nil {
		s.logger.Warn("active semester lookup failed, treating as not eligible", zap.Error(err))
		return &Eligibility{Eligible: false, Reason: "no active semester"}, nil
	}
	if semester == nil {
		return &Eligibility{Eligible: false, Reason: "no active semester"}, nil
	}

	if !semester.AllowsProgram(student.Year, student.StudentGroup) {
		return &Eligibility{Eligible: false, Reason: "group is not part of the active semester"}, nil
	}

	return &Eligibility{Eligible: true, Student: student, Semester: semester}, nil
}
