package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academa/academa-api/internal/models"
	appErrors "github.com/academa/academa-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, userID string, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, userID, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, userID, id string) error
}

// CreateCourseRequest describes payload for creating courses.
type CreateCourseRequest struct {
	Name        string  `json:"name" validate:"required"`
	Semester    *string `json:"semester"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// UpdateCourseRequest updates mutable fields on a course.
type UpdateCourseRequest struct {
	Name        string  `json:"name" validate:"required"`
	Semester    *string `json:"semester"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// CourseService orchestrates course workflows.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates a new course service instance.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated courses for the user.
func (s *CourseService) List(ctx context.Context, userID string, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}

	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a course by ID. A foreign or absent ID both read as not found.
func (s *CourseService) Get(ctx context.Context, userID, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a new course.
func (s *CourseService) Create(ctx context.Context, userID string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must not be blank")
	}
	semester, err := validateLabel(req.Semester)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Semester:    semester,
		Color:       req.Color,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateUserCaches(ctx, userID)
	return course, nil
}

// Update modifies a course record. Omitted optional fields clear the stored
// value, matching the last-write-wins contract of the PUT endpoints.
func (s *CourseService) Update(ctx context.Context, userID, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	semester, err := validateLabel(req.Semester)
	if err != nil {
		return nil, err
	}

	course, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course.Name = strings.TrimSpace(req.Name)
	course.Semester = semester
	course.Color = req.Color
	course.Description = req.Description

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateUserCaches(ctx, userID)
	return course, nil
}

// Delete removes a course along with its homeworks and exams.
func (s *CourseService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.repo.FindByID(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.invalidateUserCaches(ctx, userID)
	return nil
}

func (s *CourseService) invalidateUserCaches(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dash:overview:%s:*", userID)); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// normalizeLabel trims a free-text semester label; blank collapses to nil.
func normalizeLabel(label *string) *string {
	if label == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*label)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// validateLabel normalizes a semester label and refuses the filter sentinel,
// which would otherwise leak into the resolved semester set as a real entry.
func validateLabel(label *string) (*string, error) {
	normalized := normalizeLabel(label)
	if normalized != nil && strings.EqualFold(*normalized, models.FilterAll) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester label is reserved")
	}
	return normalized, nil
}
