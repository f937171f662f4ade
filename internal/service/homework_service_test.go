package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academa/academa-api/internal/models"
	appErrors "github.com/academa/academa-api/pkg/errors"
)

type homeworkRepoStub struct {
	items map[string]models.Homework
}

func newHomeworkRepoStub() *homeworkRepoStub {
	return &homeworkRepoStub{items: map[string]models.Homework{}}
}

func (s *homeworkRepoStub) List(ctx context.Context, userID string, filter models.HomeworkFilter) ([]models.Homework, int, error) {
	var result []models.Homework
	for _, hw := range s.items {
		result = append(result, hw)
	}
	return result, len(result), nil
}

func (s *homeworkRepoStub) FindByID(ctx context.Context, userID, id string) (*models.Homework, error) {
	hw, ok := s.items[id]
	if !ok || hw.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &hw, nil
}

func (s *homeworkRepoStub) Create(ctx context.Context, hw *models.Homework) error {
	hw.ID = "hw-new"
	s.items[hw.ID] = *hw
	return nil
}

func (s *homeworkRepoStub) Update(ctx context.Context, hw *models.Homework) error {
	s.items[hw.ID] = *hw
	return nil
}

func (s *homeworkRepoStub) Delete(ctx context.Context, userID, id string) (int64, error) {
	hw, ok := s.items[id]
	if !ok || hw.UserID != userID {
		return 0, nil
	}
	delete(s.items, id)
	return 1, nil
}

type courseFinderStub struct {
	courses map[string]models.Course
}

func (s *courseFinderStub) FindByID(ctx context.Context, userID, id string) (*models.Course, error) {
	course, ok := s.courses[id]
	if !ok || course.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

func newHomeworkService(repo *homeworkRepoStub, courses *courseFinderStub) *HomeworkService {
	return NewHomeworkService(repo, courses, nil, validator.New(), nil)
}

func TestHomeworkCreateDefaultsToPending(t *testing.T) {
	repo := newHomeworkRepoStub()
	courses := &courseFinderStub{courses: map[string]models.Course{
		"c1": {ID: "c1", UserID: "user-1", Name: "Algebra"},
	}}
	svc := newHomeworkService(repo, courses)

	hw, err := svc.Create(context.Background(), "user-1", CreateHomeworkRequest{
		CourseID: "c1",
		Title:    "  Worksheet  ",
		DueDate:  time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, hw.Status)
	assert.Equal(t, "Worksheet", hw.Title)
}

func TestHomeworkCreateRejectsUnknownStatus(t *testing.T) {
	svc := newHomeworkService(newHomeworkRepoStub(), &courseFinderStub{})

	_, err := svc.Create(context.Background(), "user-1", CreateHomeworkRequest{
		CourseID: "c1",
		Title:    "Worksheet",
		DueDate:  time.Now(),
		Status:   "DONE",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestHomeworkCreateRejectsOutOfRangeGrade(t *testing.T) {
	repo := newHomeworkRepoStub()
	courses := &courseFinderStub{courses: map[string]models.Course{
		"c1": {ID: "c1", UserID: "user-1"},
	}}
	svc := newHomeworkService(repo, courses)

	for _, grade := range []float64{150, -1} {
		_, err := svc.Create(context.Background(), "user-1", CreateHomeworkRequest{
			CourseID: "c1",
			Title:    "Worksheet",
			DueDate:  time.Now(),
			Grade:    &grade,
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.items)
}

func TestHomeworkCreateRejectsReservedSemesterLabel(t *testing.T) {
	repo := newHomeworkRepoStub()
	svc := newHomeworkService(repo, &courseFinderStub{})

	label := "all"
	_, err := svc.Create(context.Background(), "user-1", CreateHomeworkRequest{
		CourseID: "c1",
		Title:    "Worksheet",
		DueDate:  time.Now(),
		Semester: &label,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestHomeworkCreateRejectsForeignCourse(t *testing.T) {
	courses := &courseFinderStub{courses: map[string]models.Course{
		"c1": {ID: "c1", UserID: "someone-else"},
	}}
	svc := newHomeworkService(newHomeworkRepoStub(), courses)

	_, err := svc.Create(context.Background(), "user-1", CreateHomeworkRequest{
		CourseID: "c1",
		Title:    "Worksheet",
		DueDate:  time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHomeworkUpdateIsLastWriteWins(t *testing.T) {
	repo := newHomeworkRepoStub()
	repo.items["hw-1"] = models.Homework{
		ID:       "hw-1",
		UserID:   "user-1",
		CourseID: "c1",
		Title:    "Worksheet",
		DueDate:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:   models.StatusOverdue,
	}
	courses := &courseFinderStub{courses: map[string]models.Course{
		"c1": {ID: "c1", UserID: "user-1"},
	}}
	svc := newHomeworkService(repo, courses)

	// Moving the due date forward keeps the stored OVERDUE status; the caller
	// decides the status, the write does not re-derive it.
	hw, err := svc.Update(context.Background(), "user-1", "hw-1", UpdateHomeworkRequest{
		CourseID: "c1",
		Title:    "Worksheet",
		DueDate:  time.Now().AddDate(0, 0, 30),
		Status:   string(models.StatusOverdue),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, hw.Status)

	hw, err = svc.Update(context.Background(), "user-1", "hw-1", UpdateHomeworkRequest{
		CourseID: "c1",
		Title:    "Worksheet",
		DueDate:  time.Now().AddDate(0, 0, 30),
		Status:   string(models.StatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, hw.Status)
}

func TestHomeworkGetForeignRowReportsNotFound(t *testing.T) {
	repo := newHomeworkRepoStub()
	repo.items["hw-1"] = models.Homework{ID: "hw-1", UserID: "someone-else"}
	svc := newHomeworkService(repo, &courseFinderStub{})

	_, err := svc.Get(context.Background(), "user-1", "hw-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHomeworkDeleteMissingRow(t *testing.T) {
	svc := newHomeworkService(newHomeworkRepoStub(), &courseFinderStub{})

	err := svc.Delete(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
