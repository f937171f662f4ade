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

type examRepoStub struct {
	items map[string]models.Exam
}

func newExamRepoStub() *examRepoStub {
	return &examRepoStub{items: map[string]models.Exam{}}
}

func (s *examRepoStub) List(ctx context.Context, userID string, filter models.ExamFilter) ([]models.Exam, int, error) {
	var result []models.Exam
	for _, exam := range s.items {
		result = append(result, exam)
	}
	return result, len(result), nil
}

func (s *examRepoStub) FindByID(ctx context.Context, userID, id string) (*models.Exam, error) {
	exam, ok := s.items[id]
	if !ok || exam.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &exam, nil
}

func (s *examRepoStub) Create(ctx context.Context, exam *models.Exam) error {
	exam.ID = "ex-new"
	s.items[exam.ID] = *exam
	return nil
}

func (s *examRepoStub) Update(ctx context.Context, exam *models.Exam) error {
	s.items[exam.ID] = *exam
	return nil
}

func (s *examRepoStub) Delete(ctx context.Context, userID, id string) (int64, error) {
	exam, ok := s.items[id]
	if !ok || exam.UserID != userID {
		return 0, nil
	}
	delete(s.items, id)
	return 1, nil
}

func newExamService(repo *examRepoStub, courses *courseFinderStub) *ExamService {
	return NewExamService(repo, courses, nil, validator.New(), nil)
}

func TestExamCreateRejectsOutOfRangeGrade(t *testing.T) {
	repo := newExamRepoStub()
	courses := &courseFinderStub{courses: map[string]models.Course{
		"c1": {ID: "c1", UserID: "user-1"},
	}}
	svc := newExamService(repo, courses)

	grade := 101.0
	_, err := svc.Create(context.Background(), "user-1", CreateExamRequest{
		CourseID: "c1",
		Title:    "Midterm",
		ExamDate: time.Now(),
		Grade:    &grade,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestExamUpdateRejectsOutOfRangeGrade(t *testing.T) {
	repo := newExamRepoStub()
	repo.items["ex-1"] = models.Exam{
		ID:       "ex-1",
		UserID:   "user-1",
		CourseID: "c1",
		Title:    "Midterm",
		ExamDate: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		Status:   models.StatusCompleted,
	}
	svc := newExamService(repo, &courseFinderStub{})

	grade := -0.5
	_, err := svc.Update(context.Background(), "user-1", "ex-1", UpdateExamRequest{
		CourseID: "c1",
		Title:    "Midterm",
		ExamDate: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		Status:   string(models.StatusCompleted),
		Grade:    &grade,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.items["ex-1"].Grade)
}

func TestExamCreateRejectsReservedSemesterLabel(t *testing.T) {
	repo := newExamRepoStub()
	svc := newExamService(repo, &courseFinderStub{})

	label := "ALL"
	_, err := svc.Create(context.Background(), "user-1", CreateExamRequest{
		CourseID: "c1",
		Title:    "Midterm",
		ExamDate: time.Now(),
		Semester: &label,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestExamCreateAcceptsBoundaryGrades(t *testing.T) {
	repo := newExamRepoStub()
	courses := &courseFinderStub{courses: map[string]models.Course{
		"c1": {ID: "c1", UserID: "user-1"},
	}}
	svc := newExamService(repo, courses)

	for _, grade := range []float64{0, 100} {
		g := grade
		exam, err := svc.Create(context.Background(), "user-1", CreateExamRequest{
			CourseID: "c1",
			Title:    "Midterm",
			ExamDate: time.Now(),
			Grade:    &g,
		})
		require.NoError(t, err)
		require.NotNil(t, exam.Grade)
		assert.Equal(t, g, *exam.Grade)
	}
}
