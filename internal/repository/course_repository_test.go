package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academa/academa-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestCourseListScopesToUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "semester", "color", "description", "created_at", "updated_at"}).
		AddRow("c1", "user-1", "Algebra", "2026-1", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, semester, color, description, created_at, updated_at FROM courses WHERE user_id = $1 ORDER BY created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), "user-1", models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListAppliesSemesterAndSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "semester", "color", "description", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, semester, color, description, created_at, updated_at FROM courses WHERE user_id = $1 AND semester = $2 AND name ILIKE $3 ORDER BY name ASC LIMIT 50 OFFSET 0")).
		WithArgs("user-1", "2026-1", "%alg%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE user_id = $1 AND semester = $2 AND name ILIKE $3")).
		WithArgs("user-1", "2026-1", "%alg%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), "user-1", models.CourseFilter{
		Semester:  "2026-1",
		Search:    "alg",
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListRejectsUnknownSortColumn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "semester", "color", "description", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), "user-1", models.CourseFilter{SortBy: "name; DROP TABLE courses"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseFindByIDScopedToUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "semester", "color", "description", "created_at", "updated_at"}).
		AddRow("c1", "user-1", "Algebra", nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, semester, color, description, created_at, updated_at FROM courses WHERE id = $1 AND user_id = $2")).
		WithArgs("c1", "user-1").
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), "user-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra", course.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{UserID: "user-1", Name: "Algebra"}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.NotEmpty(t, course.ID)
	assert.False(t, course.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseDeleteCascadesInOneTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM homeworks WHERE course_id = $1 AND user_id = $2")).
		WithArgs("c1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exams WHERE course_id = $1 AND user_id = $2")).
		WithArgs("c1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1 AND user_id = $2")).
		WithArgs("c1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "user-1", "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseDistinctSemestersSkipsBlankLabels(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"semester"}).AddRow("2025-2").AddRow("2026-1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT semester FROM courses WHERE user_id = $1 AND semester IS NOT NULL AND semester <> '' ORDER BY semester ASC")).
		WithArgs("user-1").
		WillReturnRows(rows)

	labels, err := repo.DistinctSemesters(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-2", "2026-1"}, labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}
