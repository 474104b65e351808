package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type mockPriorityRepo struct {
	submitted  bool
	submitType models.CourseType
	selections []string
	latest     map[string]*models.PriorityRecord
	submitErr  error
}

func (m *mockPriorityRepo) Submit(ctx context.Context, email string, courseType models.CourseType, selections []string) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = true
	m.submitType = courseType
	m.selections = selections
	return nil
}

func (m *mockPriorityRepo) FindLatestByEmail(ctx context.Context, email string) (*models.PriorityRecord, error) {
	if record, ok := m.latest[email]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPriorityRepo) ListLatest(ctx context.Context) ([]models.PriorityRecord, error) {
	var records []models.PriorityRecord
	for _, record := range m.latest {
		records = append(records, *record)
	}
	return records, nil
}

func (m *mockPriorityRepo) ListLog(ctx context.Context, filter models.PriorityLogFilter) ([]models.PriorityLogEntry, int, error) {
	return nil, 0, nil
}

type mockEligibility struct {
	result *Eligibility
	err    error
}

func (m *mockEligibility) Check(ctx context.Context, email string) (*Eligibility, error) {
	return m.result, m.err
}

type mockGroupReader struct {
	programs map[string]*models.Program
}

func (m *mockGroupReader) FindByGroup(ctx context.Context, group string) (*models.Program, error) {
	if program, ok := m.programs[group]; ok {
		return program, nil
	}
	return nil, sql.ErrNoRows
}

type mockVisibleCourses struct {
	courses []models.Course
	err     error
}

func (m *mockVisibleCourses) VisibleCourses(ctx context.Context, student *models.Student, semester *models.Semester, courseType models.CourseType) ([]models.Course, error) {
	return m.courses, m.err
}

func eligibleFixture() *Eligibility {
	return &Eligibility{
		Eligible: true,
		Student:  &models.Student{Email: "s.ivanov@innopolis.university", StudentGroup: "B24-DSAI", Year: 2},
		Semester: &models.Semester{ID: "s1", Programs: pq.StringArray{"2 B24-DSAI"}, IsActive: true},
	}
}

func votingFixture(t *testing.T, repo *mockPriorityRepo, elig *mockEligibility, deadline time.Time, quota int) *VotingService {
	t.Helper()
	groups := &mockGroupReader{programs: map[string]*models.Program{
		"B24-DSAI": {StudentGroup: "B24-DSAI", TechCount: quota, HumCount: 1, Deadline: &deadline},
	}}
	catalogue := &mockVisibleCourses{courses: []models.Course{
		{Title: "Machine Learning", Type: models.CourseTypeTech},
		{Title: "Compilers", Type: models.CourseTypeTech},
		{Title: "Distributed Systems", Type: models.CourseTypeTech},
	}}
	return NewVotingService(repo, elig, groups, catalogue, nil, zap.NewNop())
}

func TestVotingSubmit(t *testing.T) {
	repo := &mockPriorityRepo{}
	svc := votingFixture(t, repo, &mockEligibility{result: eligibleFixture()}, time.Now().Add(time.Hour), 2)

	err := svc.Submit(context.Background(), "s.ivanov@innopolis.university", SubmitPrioritiesRequest{
		Type:       models.CourseTypeTech,
		Selections: []string{"Machine Learning", "Compilers"},
	})
	require.NoError(t, err)
	assert.True(t, repo.submitted)
	assert.Equal(t, models.CourseTypeTech, repo.submitType)
	assert.Equal(t, []string{"Machine Learning", "Compilers"}, repo.selections)
}

func TestVotingSubmitRejectsIneligible(t *testing.T) {
	repo := &mockPriorityRepo{}
	svc := votingFixture(t, repo, &mockEligibility{result: &Eligibility{Eligible: false, Reason: "no group on record for email"}}, time.Now().Add(time.Hour), 2)

	err := svc.Submit(context.Background(), "stranger@innopolis.university", SubmitPrioritiesRequest{
		Type:       models.CourseTypeTech,
		Selections: []string{"Machine Learning", "Compilers"},
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErr.Code)
	assert.False(t, repo.submitted)
}

func TestVotingSubmitRejectsAfterDeadline(t *testing.T) {
	repo := &mockPriorityRepo{}
	svc := votingFixture(t, repo, &mockEligibility{result: eligibleFixture()}, time.Now().Add(-time.Minute), 2)

	err := svc.Submit(context.Background(), "s.ivanov@innopolis.university", SubmitPrioritiesRequest{
		Type:       models.CourseTypeTech,
		Selections: []string{"Machine Learning", "Compilers"},
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, appErr.Code)
	assert.False(t, repo.submitted)
}

func TestVotingSubmitValidationOrder(t *testing.T) {
	tests := []struct {
		name       string
		selections []string
		wantCode   string
	}{
		{"too few slots", []string{"Machine Learning"}, appErrors.ErrIncompleteSelection.Code},
		{"too many slots", []string{"Machine Learning", "Compilers", "Distributed Systems"}, appErrors.ErrIncompleteSelection.Code},
		{"blank slot", []string{"Machine Learning", "  "}, appErrors.ErrIncompleteSelection.Code},
		{"duplicate entries", []string{"Machine Learning", "Machine Learning"}, appErrors.ErrDuplicatePriority.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockPriorityRepo{}
			svc := votingFixture(t, repo, &mockEligibility{result: eligibleFixture()}, time.Now().Add(time.Hour), 2)

			err := svc.Submit(context.Background(), "s.ivanov@innopolis.university", SubmitPrioritiesRequest{
				Type:       models.CourseTypeTech,
				Selections: tt.selections,
			})
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.False(t, repo.submitted)
		})
	}
}

func TestVotingSubmitDuplicateWithBlankReportsIncompleteFirst(t *testing.T) {
	repo := &mockPriorityRepo{}
	svc := votingFixture(t, repo, &mockEligibility{result: eligibleFixture()}, time.Now().Add(time.Hour), 3)

	err := svc.Submit(context.Background(), "s.ivanov@innopolis.university", SubmitPrioritiesRequest{
		Type:       models.CourseTypeTech,
		Selections: []string{"Machine Learning", "Machine Learning", ""},
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrIncompleteSelection.Code, appErr.Code)
}

func TestVotingSubmitRejectsUnknownCourse(t *testing.T) {
	repo := &mockPriorityRepo{}
	svc := votingFixture(t, repo, &mockEligibility{result: eligibleFixture()}, time.Now().Add(time.Hour), 2)

	err := svc.Submit(context.Background(), "s.ivanov@innopolis.university", SubmitPrioritiesRequest{
		Type:       models.CourseTypeTech,
		Selections: []string{"Machine Learning", "Underwater Basket Weaving"},
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.False(t, repo.submitted)
}

func TestVotingSubmitWrapsRepositoryFailure(t *testing.T) {
	repo := &mockPriorityRepo{submitErr: errors.New("connection reset")}
	svc := votingFixture(t, repo, &mockEligibility{result: eligibleFixture()}, time.Now().Add(time.Hour), 2)

	err := svc.Submit(context.Background(), "s.ivanov@innopolis.university", SubmitPrioritiesRequest{
		Type:       models.CourseTypeTech,
		Selections: []string{"Machine Learning", "Compilers"},
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestVotingLatestNotFound(t *testing.T) {
	repo := &mockPriorityRepo{}
	svc := votingFixture(t, repo, &mockEligibility{result: eligibleFixture()}, time.Now().Add(time.Hour), 2)

	_, err := svc.Latest(context.Background(), "s.ivanov@innopolis.university")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestVotingDeadlineForIneligibleStudentIsClosed(t *testing.T) {
	repo := &mockPriorityRepo{}
	svc := votingFixture(t, repo, &mockEligibility{result: &Eligibility{Eligible: false}}, time.Now().Add(time.Hour), 2)

	status, err := svc.Deadline(context.Background(), "stranger@innopolis.university")
	require.NoError(t, err)
	assert.True(t, status.IsPassed)
	assert.Equal(t, DeadlinePassedDisplay, status.Display)
}

func TestVotingDeadlineOpenWindow(t *testing.T) {
	repo := &mockPriorityRepo{}
	svc := votingFixture(t, repo, &mockEligibility{result: eligibleFixture()}, time.Now().Add(48*time.Hour+30*time.Minute), 2)

	status, err := svc.Deadline(context.Background(), "s.ivanov@innopolis.university")
	require.NoError(t, err)
	require.False(t, status.IsPassed)
	require.NotNil(t, status.Remaining)
	assert.Equal(t, 2, status.Remaining.Days)
}
