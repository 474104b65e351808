package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[string]models.Course
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var list []models.Course
	for _, c := range m.courses {
		if !filter.IncludeArchived && c.Archived {
			continue
		}
		list = append(list, c)
	}
	return list, len(list), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByTitle(ctx context.Context, title string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.Title == title {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ListByTitles(ctx context.Context, titles []string) ([]models.Course, error) {
	wanted := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		wanted[title] = struct{}{}
	}
	var list []models.Course
	for _, c := range m.courses {
		if _, ok := wanted[c.Title]; ok {
			list = append(list, c)
		}
	}
	return list, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	if course.ID == "" {
		course.ID = "new-course"
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	c := m.courses[id]
	c.Archived = archived
	m.courses[id] = c
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

type mockHistoryReader struct {
	completed map[string][]string
}

func (m *mockHistoryReader) CompletedTitles(ctx context.Context, email string) ([]string, error) {
	return m.completed[email], nil
}

func catalogueFixture() *mockCourseRepo {
	return &mockCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Title: "Machine Learning", Type: models.CourseTypeTech, Programs: pq.StringArray{"B24-DSAI"}, Years: pq.Int64Array{2}},
		"c2": {ID: "c2", Title: "Compilers", Type: models.CourseTypeTech, Programs: pq.StringArray{"B24-DSAI"}, Years: pq.Int64Array{2}},
		"c3": {ID: "c3", Title: "Philosophy", Type: models.CourseTypeHum, Programs: pq.StringArray{"B24-DSAI"}, Years: pq.Int64Array{2}},
		"c4": {ID: "c4", Title: "Old Compilers", Type: models.CourseTypeTech, Programs: pq.StringArray{"B24-DSAI"}, Years: pq.Int64Array{2}, Archived: true},
		"c5": {ID: "c5", Title: "Robotics", Type: models.CourseTypeTech, Programs: pq.StringArray{"B23-RO"}, Years: pq.Int64Array{3}},
	}}
}

func TestVisibleCoursesFiltering(t *testing.T) {
	repo := catalogueFixture()
	history := &mockHistoryReader{completed: map[string][]string{
		"s.ivanov@innopolis.university": {"Compilers"},
	}}
	svc := NewCatalogueService(repo, history, nil, 0, nil, zap.NewNop())

	student := &models.Student{Email: "s.ivanov@innopolis.university", StudentGroup: "B24-DSAI", Year: 2}
	semester := &models.Semester{CourseTitles: pq.StringArray{"Machine Learning", "Compilers", "Old Compilers", "Robotics"}}

	visible, err := svc.VisibleCourses(context.Background(), student, semester, models.CourseTypeTech)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	// Compilers is completed, Old Compilers is archived, Robotics is for
	// another group, Philosophy is the wrong type and off the roster.
	assert.Equal(t, "Machine Learning", visible[0].Title)
}

func TestVisibleCoursesEmptyRosterYieldsNone(t *testing.T) {
	repo := catalogueFixture()
	history := &mockHistoryReader{}
	svc := NewCatalogueService(repo, history, nil, 0, nil, zap.NewNop())

	student := &models.Student{Email: "s.ivanov@innopolis.university", StudentGroup: "B24-DSAI", Year: 2}

	// The fixture has courses matching the student's group and year, but
	// none of them is on the semester's roster.
	visible, err := svc.VisibleCourses(context.Background(), student, &models.Semester{CourseTitles: pq.StringArray{}}, models.CourseTypeTech)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestVisibleCoursesWithoutSemesterListsCatalogue(t *testing.T) {
	repo := catalogueFixture()
	history := &mockHistoryReader{}
	svc := NewCatalogueService(repo, history, nil, 0, nil, zap.NewNop())

	student := &models.Student{Email: "s.ivanov@innopolis.university", StudentGroup: "B24-DSAI", Year: 2}

	visible, err := svc.VisibleCourses(context.Background(), student, nil, models.CourseTypeTech)
	require.NoError(t, err)
	titles := make([]string, 0, len(visible))
	for _, c := range visible {
		titles = append(titles, c.Title)
	}
	assert.ElementsMatch(t, []string{"Machine Learning", "Compilers"}, titles)
}

func TestCatalogueCreateRejectsDuplicateTitle(t *testing.T) {
	repo := catalogueFixture()
	svc := NewCatalogueService(repo, &mockHistoryReader{}, nil, 0, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Title:    "Machine Learning",
		Type:     models.CourseTypeTech,
		Programs: []string{"B24-DSAI"},
		Years:    []int64{2},
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCatalogueCreate(t *testing.T) {
	repo := catalogueFixture()
	svc := NewCatalogueService(repo, &mockHistoryReader{}, nil, 0, nil, zap.NewNop())

	course, err := svc.Create(context.Background(), CreateCourseRequest{
		Title:    "Quantum Computing",
		Type:     models.CourseTypeTech,
		Programs: []string{"B24-DSAI"},
		Years:    []int64{3},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, course.ID)
	assert.False(t, course.Archived)
}

func TestCatalogueArchiveHidesFromStudents(t *testing.T) {
	repo := catalogueFixture()
	history := &mockHistoryReader{}
	svc := NewCatalogueService(repo, history, nil, 0, nil, zap.NewNop())

	require.NoError(t, svc.Archive(context.Background(), "c1"))

	student := &models.Student{Email: "s.ivanov@innopolis.university", StudentGroup: "B24-DSAI", Year: 2}
	visible, err := svc.VisibleCourses(context.Background(), student, &models.Semester{CourseTitles: pq.StringArray{"Machine Learning"}}, models.CourseTypeTech)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestCatalogueGetNotFound(t *testing.T) {
	svc := NewCatalogueService(&mockCourseRepo{}, &mockHistoryReader{}, nil, 0, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
