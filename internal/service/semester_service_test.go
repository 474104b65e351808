package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	"github.com/makeyourchoice/electives-api/internal/repository"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type mockSemesterRepo struct {
	semesters map[string]models.Semester
	activeErr error
}

func (m *mockSemesterRepo) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	var list []models.Semester
	for _, s := range m.semesters {
		list = append(list, s)
	}
	return list, len(list), nil
}

func (m *mockSemesterRepo) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSemesterRepo) ListActive(ctx context.Context) ([]models.Semester, error) {
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	var active []models.Semester
	for _, s := range m.semesters {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active, nil
}

func (m *mockSemesterRepo) Create(ctx context.Context, semester *models.Semester) error {
	if m.semesters == nil {
		m.semesters = make(map[string]models.Semester)
	}
	if semester.ID == "" {
		semester.ID = "new-semester"
	}
	m.semesters[semester.ID] = *semester
	return nil
}

func (m *mockSemesterRepo) Update(ctx context.Context, semester *models.Semester) error {
	m.semesters[semester.ID] = *semester
	return nil
}

func (m *mockSemesterRepo) Activate(ctx context.Context, id string) error {
	for _, s := range m.semesters {
		if s.IsActive && s.ID != id {
			return repository.ErrAnotherSemesterActive
		}
	}
	s := m.semesters[id]
	s.IsActive = true
	m.semesters[id] = s
	return nil
}

func (m *mockSemesterRepo) Deactivate(ctx context.Context, id string) error {
	s := m.semesters[id]
	s.IsActive = false
	m.semesters[id] = s
	return nil
}

func (m *mockSemesterRepo) Delete(ctx context.Context, id string) error {
	delete(m.semesters, id)
	return nil
}

type mockCache struct {
	entries map[string][]byte
	deleted []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = []byte{}
	return nil
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	return nil
}

func TestSemesterGetActiveSingle(t *testing.T) {
	repo := &mockSemesterRepo{semesters: map[string]models.Semester{
		"s1": {ID: "s1", Season: models.SeasonFall, Year: 2026, IsActive: true},
		"s2": {ID: "s2", Season: models.SeasonSpring, Year: 2026},
	}}
	svc := NewSemesterService(repo, nil, 0, nil, zap.NewNop())

	active, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "s1", active.ID)
}

func TestSemesterGetActiveNone(t *testing.T) {
	repo := &mockSemesterRepo{semesters: map[string]models.Semester{
		"s1": {ID: "s1", Season: models.SeasonFall, Year: 2026},
	}}
	svc := NewSemesterService(repo, nil, 0, nil, zap.NewNop())

	active, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestSemesterGetActiveMultipleFails(t *testing.T) {
	repo := &mockSemesterRepo{semesters: map[string]models.Semester{
		"s1": {ID: "s1", IsActive: true},
		"s2": {ID: "s2", IsActive: true},
	}}
	svc := NewSemesterService(repo, nil, 0, nil, zap.NewNop())

	_, err := svc.GetActive(context.Background())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSemesterActivateRejectsSecondActive(t *testing.T) {
	repo := &mockSemesterRepo{semesters: map[string]models.Semester{
		"s1": {ID: "s1", IsActive: true},
		"s2": {ID: "s2"},
	}}
	svc := NewSemesterService(repo, nil, 0, nil, zap.NewNop())

	_, err := svc.Activate(context.Background(), "s2")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSemesterActive.Code, appErr.Code)
	assert.False(t, repo.semesters["s2"].IsActive)
}

func TestSemesterActivateAfterDeactivate(t *testing.T) {
	cache := &mockCache{}
	repo := &mockSemesterRepo{semesters: map[string]models.Semester{
		"s1": {ID: "s1", IsActive: true},
		"s2": {ID: "s2"},
	}}
	svc := NewSemesterService(repo, cache, time.Minute, nil, zap.NewNop())

	_, err := svc.Deactivate(context.Background(), "s1")
	require.NoError(t, err)

	activated, err := svc.Activate(context.Background(), "s2")
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	assert.NotEmpty(t, cache.deleted)
}

func TestSemesterCreateStartsInactive(t *testing.T) {
	repo := &mockSemesterRepo{}
	svc := NewSemesterService(repo, nil, 0, nil, zap.NewNop())

	semester, err := svc.Create(context.Background(), CreateSemesterRequest{
		Season:       models.SeasonFall,
		Year:         2026,
		CourseTitles: []string{"Machine Learning"},
		Programs:     []string{"2 B24-DSAI"},
	})
	require.NoError(t, err)
	assert.False(t, semester.IsActive)
	assert.Equal(t, pq.StringArray{"2 B24-DSAI"}, semester.Programs)
}

func TestSemesterDeleteRejectsActive(t *testing.T) {
	repo := &mockSemesterRepo{semesters: map[string]models.Semester{
		"s1": {ID: "s1", IsActive: true},
	}}
	svc := NewSemesterService(repo, nil, 0, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "s1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, repo.semesters, "s1")
}

func TestSemesterCreateRejectsBadSeason(t *testing.T) {
	svc := NewSemesterService(&mockSemesterRepo{}, nil, 0, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateSemesterRequest{Season: "Winter", Year: 2026})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
