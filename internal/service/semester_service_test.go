package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academa/academa-api/internal/models"
	appErrors "github.com/academa/academa-api/pkg/errors"
)

type semesterRepoStub struct {
	semesters []models.UserSemester
	err       error
}

func (s *semesterRepoStub) ListByUser(ctx context.Context, userID string) ([]models.UserSemester, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.semesters, nil
}

func (s *semesterRepoStub) ExistsByName(ctx context.Context, userID, name string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, semester := range s.semesters {
		if semester.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *semesterRepoStub) Create(ctx context.Context, semester *models.UserSemester) error {
	if s.err != nil {
		return s.err
	}
	s.semesters = append(s.semesters, *semester)
	return nil
}

func (s *semesterRepoStub) Rename(ctx context.Context, userID, oldName, newName string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	for i, semester := range s.semesters {
		if semester.Name == oldName {
			s.semesters[i].Name = newName
			return 1, nil
		}
	}
	return 0, nil
}

func (s *semesterRepoStub) DeleteByName(ctx context.Context, userID, name string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	for i, semester := range s.semesters {
		if semester.Name == name {
			s.semesters = append(s.semesters[:i], s.semesters[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *semesterRepoStub) CountByUser(ctx context.Context, userID string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.semesters), nil
}

type labelSourceStub struct {
	labels []string
	counts map[string]int
}

func (l *labelSourceStub) DistinctSemesters(ctx context.Context, userID string) ([]string, error) {
	return l.labels, nil
}

func (l *labelSourceStub) CountBySemester(ctx context.Context, userID, semester string) (int, error) {
	return l.counts[semester], nil
}

type semesterUserStub struct {
	defaultSemester *string
	updates         []*string
	findErr         error
}

func (u *semesterUserStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u.findErr != nil {
		return nil, u.findErr
	}
	return &models.User{ID: id, DefaultSemester: u.defaultSemester}, nil
}

func (u *semesterUserStub) UpdateDefaultSemester(ctx context.Context, id string, semester *string) error {
	u.updates = append(u.updates, semester)
	u.defaultSemester = semester
	return nil
}

func newSemesterService(repo *semesterRepoStub, courses, homeworks, exams *labelSourceStub, users *semesterUserStub) *SemesterService {
	if courses == nil {
		courses = &labelSourceStub{}
	}
	if homeworks == nil {
		homeworks = &labelSourceStub{}
	}
	if exams == nil {
		exams = &labelSourceStub{}
	}
	return NewSemesterService(repo, courses, homeworks, exams, users, validator.New(), nil)
}

func TestSemesterResolveMergesRegisteredAndDiscovered(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{
		{Name: "2026-2"},
		{Name: "2026-1"},
	}}
	courses := &labelSourceStub{labels: []string{"2025-2", "2026-1"}}
	exams := &labelSourceStub{labels: []string{"2024-1"}}
	users := &semesterUserStub{defaultSemester: strPtr("2026-1")}

	svc := newSemesterService(repo, courses, nil, exams, users)
	entries, err := svc.Resolve(context.Background(), "user-1")
	require.NoError(t, err)

	// Registered labels first, in registration order, then discovered labels
	// in ascending order without duplicates.
	require.Len(t, entries, 4)
	assert.Equal(t, "2026-2", entries[0].Name)
	assert.True(t, entries[0].Registered)
	assert.Equal(t, "2026-1", entries[1].Name)
	assert.True(t, entries[1].IsDefault)
	assert.Equal(t, "2024-1", entries[2].Name)
	assert.False(t, entries[2].Registered)
	assert.Equal(t, "2025-2", entries[3].Name)
}

func TestSemesterResolveExcludesReservedLabel(t *testing.T) {
	// A data row carrying the literal label "all" must not surface in the
	// resolved set, where SetDefault would then treat it as a real semester.
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "Fall 2024"}}}
	courses := &labelSourceStub{labels: []string{"all", "  ", "ALL", "Spring 2025"}}
	svc := newSemesterService(repo, courses, nil, nil, &semesterUserStub{})

	entries, err := svc.Resolve(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "Fall 2024", entries[0].Name)
	assert.Equal(t, "Spring 2025", entries[1].Name)
	for _, entry := range entries {
		assert.NotEqual(t, models.FilterAll, entry.Name)
	}
}

func TestSemesterAddRejectsDuplicate(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}}}
	svc := newSemesterService(repo, nil, nil, nil, &semesterUserStub{})

	_, err := svc.Add(context.Background(), "user-1", AddSemesterRequest{Name: "2026-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSemesterAddRejectsReservedLabel(t *testing.T) {
	svc := newSemesterService(&semesterRepoStub{}, nil, nil, nil, &semesterUserStub{})

	_, err := svc.Add(context.Background(), "user-1", AddSemesterRequest{Name: "all"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSemesterAddTrimsName(t *testing.T) {
	repo := &semesterRepoStub{}
	svc := newSemesterService(repo, nil, nil, nil, &semesterUserStub{})

	semester, err := svc.Add(context.Background(), "user-1", AddSemesterRequest{Name: "  2026-1  "})
	require.NoError(t, err)
	assert.Equal(t, "2026-1", semester.Name)
}

func TestSemesterRenameFollowsDefaultSelection(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}}}
	users := &semesterUserStub{defaultSemester: strPtr("2026-1")}
	svc := newSemesterService(repo, nil, nil, nil, users)

	renamed, err := svc.Rename(context.Background(), "user-1", "2026-1", RenameSemesterRequest{NewName: "2026-S1"})
	require.NoError(t, err)
	assert.Equal(t, "2026-S1", renamed.Name)
	require.NotNil(t, users.defaultSemester)
	assert.Equal(t, "2026-S1", *users.defaultSemester)
}

func TestSemesterRenameUnknownLabel(t *testing.T) {
	svc := newSemesterService(&semesterRepoStub{}, nil, nil, nil, &semesterUserStub{})

	_, err := svc.Rename(context.Background(), "user-1", "missing", RenameSemesterRequest{NewName: "2026-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSemesterRenameTargetTaken(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}, {Name: "2026-2"}}}
	svc := newSemesterService(repo, nil, nil, nil, &semesterUserStub{})

	_, err := svc.Rename(context.Background(), "user-1", "2026-1", RenameSemesterRequest{NewName: "2026-2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSemesterDeleteRefusedWhileLinked(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}, {Name: "2026-2"}}}
	homeworks := &labelSourceStub{counts: map[string]int{"2026-1": 3}}
	svc := newSemesterService(repo, nil, homeworks, nil, &semesterUserStub{})

	err := svc.Delete(context.Background(), "user-1", "2026-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.semesters, 2)
}

func TestSemesterDeleteRefusedForLastRegistered(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}}}
	svc := newSemesterService(repo, nil, nil, nil, &semesterUserStub{})

	err := svc.Delete(context.Background(), "user-1", "2026-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSemesterDeleteClearsDefaultSelection(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}, {Name: "2026-2"}}}
	users := &semesterUserStub{defaultSemester: strPtr("2026-2")}
	svc := newSemesterService(repo, nil, nil, nil, users)

	err := svc.Delete(context.Background(), "user-1", "2026-2")
	require.NoError(t, err)
	assert.Len(t, repo.semesters, 1)
	assert.Nil(t, users.defaultSemester)
}

func TestSemesterDeleteUnknownLabel(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}, {Name: "2026-2"}}}
	svc := newSemesterService(repo, nil, nil, nil, &semesterUserStub{})

	err := svc.Delete(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSemesterSetDefaultAllClearsSelection(t *testing.T) {
	users := &semesterUserStub{defaultSemester: strPtr("2026-1")}
	svc := newSemesterService(&semesterRepoStub{}, nil, nil, nil, users)

	err := svc.SetDefault(context.Background(), "user-1", SetDefaultSemesterRequest{Semester: "all"})
	require.NoError(t, err)
	require.Len(t, users.updates, 1)
	assert.Nil(t, users.updates[0])
}

func TestSemesterSetDefaultRequiresKnownLabel(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}}}
	users := &semesterUserStub{}
	svc := newSemesterService(repo, nil, nil, nil, users)

	err := svc.SetDefault(context.Background(), "user-1", SetDefaultSemesterRequest{Semester: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.updates)
}

func TestSemesterSetDefaultAcceptsDiscoveredLabel(t *testing.T) {
	courses := &labelSourceStub{labels: []string{"2025-2"}}
	users := &semesterUserStub{}
	svc := newSemesterService(&semesterRepoStub{}, courses, nil, nil, users)

	err := svc.SetDefault(context.Background(), "user-1", SetDefaultSemesterRequest{Semester: "2025-2"})
	require.NoError(t, err)
	require.NotNil(t, users.defaultSemester)
	assert.Equal(t, "2025-2", *users.defaultSemester)
}

func TestSemesterDefaultFallsBackToAll(t *testing.T) {
	svc := newSemesterService(&semesterRepoStub{}, nil, nil, nil, &semesterUserStub{})

	label, err := svc.Default(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.FilterAll, label)
}

func TestSemesterResolveRepoError(t *testing.T) {
	repo := &semesterRepoStub{err: errors.New("db down")}
	svc := newSemesterService(repo, nil, nil, nil, &semesterUserStub{})

	_, err := svc.Resolve(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
