package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeyourchoice/electives-api/internal/models"
)

func semesterRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "season", "semester_year", "course_titles", "programs", "deadline", "is_active", "created_at", "updated_at"}).
		AddRow("s1", models.SeasonFall, 2026, pq.StringArray{"Machine Learning"}, pq.StringArray{"3 BS-DSAI"}, time.Now().Add(time.Hour), true, time.Now(), time.Now())
}

func TestSemesterRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, season, semester_year, course_titles, programs, deadline, is_active, created_at, updated_at FROM semesters WHERE is_active = TRUE")).
		WillReturnRows(semesterRows())

	semesters, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, semesters, 1)
	assert.Equal(t, "s1", semesters[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryActivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM semesters WHERE is_active = TRUE LIMIT 1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE semesters SET is_active = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Activate(context.Background(), "s1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryActivateRejectsWhenAnotherActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM semesters WHERE is_active = TRUE LIMIT 1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("other"))
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), "s1")
	require.ErrorIs(t, err, ErrAnotherSemesterActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryActivateIdempotentForSameID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM semesters WHERE is_active = TRUE LIMIT 1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE semesters SET is_active = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Activate(context.Background(), "s1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectExec("INSERT INTO semesters").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	semester := &models.Semester{Season: models.SeasonFall, Year: 2026, CourseTitles: pq.StringArray{"Machine Learning"}, Programs: pq.StringArray{"3 BS-DSAI"}}
	err := repo.Create(context.Background(), semester)
	require.NoError(t, err)
	assert.NotEmpty(t, semester.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
