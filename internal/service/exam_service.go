package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academa/academa-api/internal/models"
	appErrors "github.com/academa/academa-api/pkg/errors"
)

type examRepository interface {
	List(ctx context.Context, userID string, filter models.ExamFilter) ([]models.Exam, int, error)
	FindByID(ctx context.Context, userID, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, userID, id string) (int64, error)
}

// CreateExamRequest describes payload for creating exams.
type CreateExamRequest struct {
	CourseID        string    `json:"course_id" validate:"required"`
	Title           string    `json:"title" validate:"required"`
	ExamDate        time.Time `json:"exam_date" validate:"required"`
	ExamType        *string   `json:"exam_type"`
	Location        *string   `json:"location"`
	DurationMinutes *int      `json:"duration_minutes" validate:"omitempty,gt=0"`
	Status          string    `json:"status"`
	Grade           *float64  `json:"grade" validate:"omitempty,gte=0,lte=100"`
	Semester        *string   `json:"semester"`
}

// UpdateExamRequest updates mutable fields on an exam.
type UpdateExamRequest struct {
	CourseID        string    `json:"course_id" validate:"required"`
	Title           string    `json:"title" validate:"required"`
	ExamDate        time.Time `json:"exam_date" validate:"required"`
	ExamType        *string   `json:"exam_type"`
	Location        *string   `json:"location"`
	DurationMinutes *int      `json:"duration_minutes" validate:"omitempty,gt=0"`
	Status          string    `json:"status" validate:"required"`
	Grade           *float64  `json:"grade" validate:"omitempty,gte=0,lte=100"`
	Semester        *string   `json:"semester"`
}

// ExamService orchestrates exam workflows.
type ExamService struct {
	repo      examRepository
	courses   homeworkCourseFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService creates a new exam service instance.
func NewExamService(repo examRepository, courses homeworkCourseFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, courses: courses, cache: cache, validator: validate, logger: logger}
}

// List returns paginated exams for the user.
func (s *ExamService) List(ctx context.Context, userID string, filter models.ExamFilter) ([]models.Exam, *models.Pagination, error) {
	exams, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}

	return exams, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an exam by ID.
func (s *ExamService) Get(ctx context.Context, userID, id string) (*models.Exam, error) {
	exam, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return exam, nil
}

// Create adds a new exam under one of the user's courses.
func (s *ExamService) Create(ctx context.Context, userID string, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	status := models.AssignmentStatus(req.Status)
	if req.Status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assignment status")
	}

	semester, err := validateLabel(req.Semester)
	if err != nil {
		return nil, err
	}

	if _, err := s.courses.FindByID(ctx, userID, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exam := &models.Exam{
		UserID:          userID,
		CourseID:        req.CourseID,
		Title:           strings.TrimSpace(req.Title),
		ExamDate:        req.ExamDate.UTC(),
		ExamType:        req.ExamType,
		Location:        req.Location,
		DurationMinutes: req.DurationMinutes,
		Status:          status,
		Grade:           req.Grade,
		Semester:        semester,
	}
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}

	s.invalidate(ctx, userID)
	return s.Get(ctx, userID, exam.ID)
}

// Update replaces an exam's mutable fields, last-write-wins.
func (s *ExamService) Update(ctx context.Context, userID, id string, req UpdateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	status := models.AssignmentStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assignment status")
	}

	semester, err := validateLabel(req.Semester)
	if err != nil {
		return nil, err
	}

	exam, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	if req.CourseID != exam.CourseID {
		if _, err := s.courses.FindByID(ctx, userID, req.CourseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
	}

	exam.CourseID = req.CourseID
	exam.Title = strings.TrimSpace(req.Title)
	exam.ExamDate = req.ExamDate.UTC()
	exam.ExamType = req.ExamType
	exam.Location = req.Location
	exam.DurationMinutes = req.DurationMinutes
	exam.Status = status
	exam.Grade = req.Grade
	exam.Semester = semester

	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam")
	}

	s.invalidate(ctx, userID)
	return s.Get(ctx, userID, id)
}

// Delete removes an exam.
func (s *ExamService) Delete(ctx context.Context, userID, id string) error {
	affected, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *ExamService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dash:overview:%s:*", userID)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
