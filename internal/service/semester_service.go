package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academa/academa-api/internal/models"
	appErrors "github.com/academa/academa-api/pkg/errors"
)

type semesterRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.UserSemester, error)
	ExistsByName(ctx context.Context, userID, name string) (bool, error)
	Create(ctx context.Context, semester *models.UserSemester) error
	Rename(ctx context.Context, userID, oldName, newName string) (int64, error)
	DeleteByName(ctx context.Context, userID, name string) (int64, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// semesterLabelSource discovers semester labels present on data rows and
// counts the rows still linked to a label.
type semesterLabelSource interface {
	DistinctSemesters(ctx context.Context, userID string) ([]string, error)
	CountBySemester(ctx context.Context, userID, semester string) (int, error)
}

type semesterUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateDefaultSemester(ctx context.Context, id string, semester *string) error
}

// AddSemesterRequest registers a new semester label.
type AddSemesterRequest struct {
	Name string `json:"name" validate:"required"`
}

// RenameSemesterRequest changes a registered label. Data rows keep the old
// label; the rename deliberately does not cascade.
type RenameSemesterRequest struct {
	NewName string `json:"new_name" validate:"required"`
}

// SetDefaultSemesterRequest selects the active semester. "all" clears the
// selection.
type SetDefaultSemesterRequest struct {
	Semester string `json:"semester" validate:"required"`
}

// SemesterService maintains the user's semester registry: the union of
// explicitly registered labels and labels discovered on live data.
type SemesterService struct {
	repo      semesterRepository
	courses   semesterLabelSource
	homeworks semesterLabelSource
	exams     semesterLabelSource
	users     semesterUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService creates a new semester service instance.
func NewSemesterService(repo semesterRepository, courses, homeworks, exams semesterLabelSource, users semesterUserRepository, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{
		repo:      repo,
		courses:   courses,
		homeworks: homeworks,
		exams:     exams,
		users:     users,
		validator: validate,
		logger:    logger,
	}
}

// Resolve returns the user's semester set: registered labels first, in
// registration order, followed by labels only discovered on data rows, in
// ascending order. Duplicates collapse onto the registered entry.
func (s *SemesterService) Resolve(ctx context.Context, userID string) ([]models.SemesterEntry, error) {
	registered, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registered semesters")
	}

	defaultLabel := ""
	if user, err := s.users.FindByID(ctx, userID); err == nil && user.DefaultSemester != nil {
		defaultLabel = *user.DefaultSemester
	}

	seen := make(map[string]struct{}, len(registered))
	entries := make([]models.SemesterEntry, 0, len(registered))
	for _, semester := range registered {
		if _, dup := seen[semester.Name]; dup {
			continue
		}
		seen[semester.Name] = struct{}{}
		entries = append(entries, models.SemesterEntry{
			Name:       semester.Name,
			Registered: true,
			IsDefault:  semester.Name == defaultLabel,
		})
	}

	discovered, err := s.discoverLabels(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Strings(discovered)
	for _, label := range discovered {
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		entries = append(entries, models.SemesterEntry{
			Name:      label,
			IsDefault: label == defaultLabel,
		})
	}

	return entries, nil
}

// Add registers a semester label.
func (s *SemesterService) Add(ctx context.Context, userID string, req AddSemesterRequest) (*models.UserSemester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || strings.EqualFold(name, models.FilterAll) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester name is reserved or blank")
	}

	exists, err := s.repo.ExistsByName(ctx, userID, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "semester already exists")
	}

	semester := &models.UserSemester{UserID: userID, Name: name}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// Rename changes a registered label. Courses, homeworks and exams carrying
// the old label are left untouched; the old label simply reappears in the
// resolved set as a discovered entry while data still references it.
func (s *SemesterService) Rename(ctx context.Context, userID, oldName string, req RenameSemesterRequest) (*models.UserSemester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}

	newName := strings.TrimSpace(req.NewName)
	if newName == "" || strings.EqualFold(newName, models.FilterAll) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester name is reserved or blank")
	}
	if newName == oldName {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new name matches the current name")
	}

	taken, err := s.repo.ExistsByName(ctx, userID, newName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "semester already exists")
	}

	affected, err := s.repo.Rename(ctx, userID, oldName, newName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename semester")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}

	// Follow the default selection so renaming the active semester does not
	// silently reset the scope to "all".
	if user, err := s.users.FindByID(ctx, userID); err == nil && user.DefaultSemester != nil && *user.DefaultSemester == oldName {
		if err := s.users.UpdateDefaultSemester(ctx, userID, &newName); err != nil {
			s.logger.Warn("failed to follow default semester rename", zap.Error(err))
		}
	}

	return &models.UserSemester{UserID: userID, Name: newName}, nil
}

// Delete removes a registered semester label. The delete is refused while
// any course, homework or exam still resolves to the label, and refused for
// the last registered semester.
func (s *SemesterService) Delete(ctx context.Context, userID, name string) error {
	exists, err := s.repo.ExistsByName(ctx, userID, name)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester existence")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count semesters")
	}
	if total <= 1 {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete the last semester")
	}

	linked, err := s.countLinked(ctx, userID, name)
	if err != nil {
		return err
	}
	if linked > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "semester still has linked courses or assignments")
	}

	affected, err := s.repo.DeleteByName(ctx, userID, name)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}

	// Clear the default selection when it pointed at the removed label.
	if user, err := s.users.FindByID(ctx, userID); err == nil && user.DefaultSemester != nil && *user.DefaultSemester == name {
		if err := s.users.UpdateDefaultSemester(ctx, userID, nil); err != nil {
			s.logger.Warn("failed to clear default semester after delete", zap.Error(err))
		}
	}

	return nil
}

// SetDefault selects the user's active semester. The FilterAll sentinel
// clears the selection; any other label must exist in the resolved set.
func (s *SemesterService) SetDefault(ctx context.Context, userID string, req SetDefaultSemesterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid default semester payload")
	}

	label := strings.TrimSpace(req.Semester)
	if strings.EqualFold(label, models.FilterAll) {
		if err := s.users.UpdateDefaultSemester(ctx, userID, nil); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear default semester")
		}
		return nil
	}

	entries, err := s.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	known := false
	for _, entry := range entries {
		if entry.Name == label {
			known = true
			break
		}
	}
	if !known {
		return appErrors.Clone(appErrors.ErrValidation, "semester must be \"all\" or a member of the resolved set")
	}

	if err := s.users.UpdateDefaultSemester(ctx, userID, &label); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set default semester")
	}
	return nil
}

// Default returns the active semester label, or FilterAll when unset.
func (s *SemesterService) Default(ctx context.Context, userID string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.DefaultSemester == nil || strings.TrimSpace(*user.DefaultSemester) == "" {
		return models.FilterAll, nil
	}
	return *user.DefaultSemester, nil
}

func (s *SemesterService) discoverLabels(ctx context.Context, userID string) ([]string, error) {
	merged := make(map[string]struct{})
	for _, source := range []semesterLabelSource{s.courses, s.homeworks, s.exams} {
		if source == nil {
			continue
		}
		labels, err := source.DistinctSemesters(ctx, userID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to discover semester labels")
		}
		for _, label := range labels {
			trimmed := strings.TrimSpace(label)
			// The filter sentinel never names a real semester, even when a
			// data row slipped it past an older write path.
			if trimmed == "" || strings.EqualFold(trimmed, models.FilterAll) {
				continue
			}
			merged[trimmed] = struct{}{}
		}
	}
	result := make([]string, 0, len(merged))
	for label := range merged {
		result = append(result, label)
	}
	return result, nil
}

func (s *SemesterService) countLinked(ctx context.Context, userID, name string) (int, error) {
	var total int
	for _, source := range []semesterLabelSource{s.courses, s.homeworks, s.exams} {
		if source == nil {
			continue
		}
		count, err := source.CountBySemester(ctx, userID, name)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count linked rows")
		}
		total += count
	}
	return total, nil
}
