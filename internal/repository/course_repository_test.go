package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeyourchoice/electives-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "teacher", "language", "type", "program", "years", "archived", "created_at", "updated_at"}).
		AddRow("c1", "Machine Learning", "Intro to ML", "J. Doe", "English", "tech", pq.StringArray{"BS-DSAI"}, pq.Int64Array{3}, false, time.Now(), time.Now())
}

func TestCourseRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, teacher, language, type, program, years, archived, created_at, updated_at FROM catalogue WHERE 1=1 AND archived = FALSE ORDER BY archived ASC, created_at DESC LIMIT 50 OFFSET 0")).
		WillReturnRows(courseRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM catalogue WHERE 1=1 AND archived = FALSE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListFiltersByProgramAndYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, teacher, language, type, program, years, archived, created_at, updated_at FROM catalogue WHERE 1=1 AND archived = FALSE AND type = $1 AND $2 = ANY(program) AND $3 = ANY(years) ORDER BY archived ASC, created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs(models.CourseTypeTech, "BS-DSAI", 3).
		WillReturnRows(courseRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM catalogue WHERE 1=1 AND archived = FALSE AND type = $1 AND $2 = ANY(program) AND $3 = ANY(years)")).
		WithArgs(models.CourseTypeTech, "BS-DSAI", 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Type: models.CourseTypeTech, Program: "BS-DSAI", Year: 3})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByTitle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, teacher, language, type, program, years, archived, created_at, updated_at FROM catalogue WHERE title = $1")).
		WithArgs("Machine Learning").
		WillReturnRows(courseRows())

	course, err := repo.FindByTitle(context.Background(), "Machine Learning")
	require.NoError(t, err)
	assert.Equal(t, "c1", course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO catalogue").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Title: "Machine Learning", Type: models.CourseTypeTech, Programs: pq.StringArray{"BS-DSAI"}, Years: pq.Int64Array{3}}
	err := repo.Create(context.Background(), course)
	require.NoError(t, err)
	assert.NotEmpty(t, course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositorySetArchived(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE catalogue SET archived = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("c1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetArchived(context.Background(), "c1", true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
