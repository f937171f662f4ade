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

type homeworkRepository interface {
	List(ctx context.Context, userID string, filter models.HomeworkFilter) ([]models.Homework, int, error)
	FindByID(ctx context.Context, userID, id string) (*models.Homework, error)
	Create(ctx context.Context, hw *models.Homework) error
	Update(ctx context.Context, hw *models.Homework) error
	Delete(ctx context.Context, userID, id string) (int64, error)
}

type homeworkCourseFinder interface {
	FindByID(ctx context.Context, userID, id string) (*models.Course, error)
}

// CreateHomeworkRequest describes payload for creating homeworks.
type CreateHomeworkRequest struct {
	CourseID string    `json:"course_id" validate:"required"`
	Title    string    `json:"title" validate:"required"`
	DueDate  time.Time `json:"due_date" validate:"required"`
	Status   string    `json:"status"`
	Grade    *float64  `json:"grade" validate:"omitempty,gte=0,lte=100"`
	Semester *string   `json:"semester"`
}

// UpdateHomeworkRequest updates mutable fields on a homework.
type UpdateHomeworkRequest struct {
	CourseID string    `json:"course_id" validate:"required"`
	Title    string    `json:"title" validate:"required"`
	DueDate  time.Time `json:"due_date" validate:"required"`
	Status   string    `json:"status" validate:"required"`
	Grade    *float64  `json:"grade" validate:"omitempty,gte=0,lte=100"`
	Semester *string   `json:"semester"`
}

// HomeworkService orchestrates homework workflows.
type HomeworkService struct {
	repo      homeworkRepository
	courses   homeworkCourseFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHomeworkService creates a new homework service instance.
func NewHomeworkService(repo homeworkRepository, courses homeworkCourseFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *HomeworkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeworkService{repo: repo, courses: courses, cache: cache, validator: validate, logger: logger}
}

// List returns paginated homeworks for the user.
func (s *HomeworkService) List(ctx context.Context, userID string, filter models.HomeworkFilter) ([]models.Homework, *models.Pagination, error) {
	homeworks, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homeworks")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}

	return homeworks, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a homework by ID.
func (s *HomeworkService) Get(ctx context.Context, userID, id string) (*models.Homework, error) {
	hw, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	return hw, nil
}

// Create adds a new homework under one of the user's courses.
func (s *HomeworkService) Create(ctx context.Context, userID string, req CreateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
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

	hw := &models.Homework{
		UserID:   userID,
		CourseID: req.CourseID,
		Title:    strings.TrimSpace(req.Title),
		DueDate:  req.DueDate.UTC(),
		Status:   status,
		Grade:    req.Grade,
		Semester: semester,
	}
	if err := s.repo.Create(ctx, hw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create homework")
	}

	s.invalidate(ctx, userID)
	return s.Get(ctx, userID, hw.ID)
}

// Update replaces a homework's mutable fields. The write is last-write-wins:
// the stored status is whatever the caller sends, and pushing the due date
// into the future does not undo an OVERDUE transition on its own.
func (s *HomeworkService) Update(ctx context.Context, userID, id string, req UpdateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}

	status := models.AssignmentStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assignment status")
	}

	semester, err := validateLabel(req.Semester)
	if err != nil {
		return nil, err
	}

	hw, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}

	if req.CourseID != hw.CourseID {
		if _, err := s.courses.FindByID(ctx, userID, req.CourseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
	}

	hw.CourseID = req.CourseID
	hw.Title = strings.TrimSpace(req.Title)
	hw.DueDate = req.DueDate.UTC()
	hw.Status = status
	hw.Grade = req.Grade
	hw.Semester = semester

	if err := s.repo.Update(ctx, hw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update homework")
	}

	s.invalidate(ctx, userID)
	return s.Get(ctx, userID, id)
}

// Delete removes a homework.
func (s *HomeworkService) Delete(ctx context.Context, userID, id string) error {
	affected, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete homework")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "homework not found")
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *HomeworkService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dash:overview:%s:*", userID)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
