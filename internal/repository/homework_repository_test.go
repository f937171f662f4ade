package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academa/academa-api/internal/models"
)

var homeworkRowColumns = []string{
	"id", "user_id", "course_id", "title", "due_date", "status", "grade", "semester",
	"created_at", "updated_at", "course_name", "course_semester", "course_color",
}

func TestHomeworkListFiltersByEffectiveSemester(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHomeworkRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(homeworkRowColumns).
		AddRow("hw-1", "user-1", "c1", "Worksheet", now, "PENDING", nil, nil, now, now, "Algebra", "2026-1", nil)
	mock.ExpectQuery(regexp.QuoteMeta("AND COALESCE(NULLIF(h.semester, ''), c.semester) = $2")).
		WithArgs("user-1", "2026-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("user-1", "2026-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	homeworks, total, err := repo.List(context.Background(), "user-1", models.HomeworkFilter{Semester: "2026-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, homeworks, 1)
	require.NotNil(t, homeworks[0].Course)
	assert.Equal(t, "Algebra", homeworks[0].Course.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHomeworkListAllSentinelSkipsPredicates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHomeworkRepository(db)

	rows := sqlmock.NewRows(homeworkRowColumns)
	mock.ExpectQuery(regexp.QuoteMeta("FROM homeworks h JOIN courses c ON c.id = h.course_id WHERE h.user_id = $1 ORDER BY h.due_date ASC LIMIT 100 OFFSET 0")).
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), "user-1", models.HomeworkFilter{
		Semester: models.FilterAll,
		Status:   models.FilterAll,
		CourseID: models.FilterAll,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHomeworkFindByIDAttachesCourseRef(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHomeworkRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(homeworkRowColumns).
		AddRow("hw-1", "user-1", "c1", "Worksheet", now, "PENDING", nil, nil, now, now, "Algebra", "2026-1", "#ff0000")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE h.id = $1 AND h.user_id = $2")).
		WithArgs("hw-1", "user-1").
		WillReturnRows(rows)

	hw, err := repo.FindByID(context.Background(), "user-1", "hw-1")
	require.NoError(t, err)
	require.NotNil(t, hw.Course)
	assert.Equal(t, "c1", hw.Course.ID)
	require.NotNil(t, hw.Course.Semester)
	assert.Equal(t, "2026-1", *hw.Course.Semester)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHomeworkDeleteReportsAffectedRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHomeworkRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM homeworks WHERE id = $1 AND user_id = $2")).
		WithArgs("hw-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Delete(context.Background(), "user-1", "hw-1")
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHomeworkListOverdueCandidatesGuardsStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHomeworkRepository(db)

	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "title", "due_date", "status", "grade", "semester", "created_at", "updated_at"}).
		AddRow("hw-1", "user-1", "c1", "Worksheet", before.AddDate(0, 0, -1), "PENDING", nil, nil, before, before)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ('PENDING', 'IN_PROGRESS') AND due_date < $1")).
		WithArgs(before).
		WillReturnRows(rows)

	candidates, err := repo.ListOverdueCandidates(context.Background(), before)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "hw-1", candidates[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHomeworkMarkOverdueKeepsTransitionOneWay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHomeworkRepository(db)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE homeworks SET status = 'OVERDUE', updated_at = $2 WHERE id = $1 AND status IN ('PENDING', 'IN_PROGRESS')")).
		WithArgs("hw-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkOverdue(context.Background(), "hw-1", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHomeworkCountBySemesterUsesEffectiveLabel(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHomeworkRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM homeworks h JOIN courses c ON c.id = h.course_id WHERE h.user_id = $1 AND COALESCE(NULLIF(h.semester, ''), c.semester) = $2")).
		WithArgs("user-1", "2026-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountBySemester(context.Background(), "user-1", "2026-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
