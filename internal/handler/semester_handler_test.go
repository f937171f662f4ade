package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academa/academa-api/internal/middleware"
	"github.com/academa/academa-api/internal/models"
	"github.com/academa/academa-api/internal/service"
)

type semesterRepoStub struct {
	semesters []models.UserSemester
}

func (s *semesterRepoStub) ListByUser(ctx context.Context, userID string) ([]models.UserSemester, error) {
	return s.semesters, nil
}

func (s *semesterRepoStub) ExistsByName(ctx context.Context, userID, name string) (bool, error) {
	for _, semester := range s.semesters {
		if semester.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *semesterRepoStub) Create(ctx context.Context, semester *models.UserSemester) error {
	s.semesters = append(s.semesters, *semester)
	return nil
}

func (s *semesterRepoStub) Rename(ctx context.Context, userID, oldName, newName string) (int64, error) {
	for i, semester := range s.semesters {
		if semester.Name == oldName {
			s.semesters[i].Name = newName
			return 1, nil
		}
	}
	return 0, nil
}

func (s *semesterRepoStub) DeleteByName(ctx context.Context, userID, name string) (int64, error) {
	for i, semester := range s.semesters {
		if semester.Name == name {
			s.semesters = append(s.semesters[:i], s.semesters[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *semesterRepoStub) CountByUser(ctx context.Context, userID string) (int, error) {
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
}

func (u *semesterUserStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, DefaultSemester: u.defaultSemester}, nil
}

func (u *semesterUserStub) UpdateDefaultSemester(ctx context.Context, id string, semester *string) error {
	u.defaultSemester = semester
	return nil
}

func newSemesterHandler(repo *semesterRepoStub, homeworks *labelSourceStub, users *semesterUserStub) *SemesterHandler {
	if homeworks == nil {
		homeworks = &labelSourceStub{}
	}
	svc := service.NewSemesterService(repo, &labelSourceStub{}, homeworks, &labelSourceStub{}, users, nil, nil)
	return NewSemesterHandler(svc)
}

func authedContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	return c, rec
}

func TestSemesterHandlerListReturnsResolvedSet(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}}}
	homeworks := &labelSourceStub{labels: []string{"2025-2"}}
	handler := newSemesterHandler(repo, homeworks, &semesterUserStub{})

	c, rec := authedContext(t, http.MethodGet, "/semesters", "")
	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []models.SemesterEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "2026-1", envelope.Data[0].Name)
	assert.True(t, envelope.Data[0].Registered)
	assert.Equal(t, "2025-2", envelope.Data[1].Name)
	assert.False(t, envelope.Data[1].Registered)
}

func TestSemesterHandlerListRequiresAuth(t *testing.T) {
	handler := newSemesterHandler(&semesterRepoStub{}, nil, &semesterUserStub{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/semesters", nil)

	handler.List(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSemesterHandlerAddDuplicateConflicts(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}}}
	handler := newSemesterHandler(repo, nil, &semesterUserStub{})

	c, rec := authedContext(t, http.MethodPost, "/semesters", `{"name":"2026-1"}`)
	handler.Add(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSemesterHandlerAddCreated(t *testing.T) {
	repo := &semesterRepoStub{}
	handler := newSemesterHandler(repo, nil, &semesterUserStub{})

	c, rec := authedContext(t, http.MethodPost, "/semesters", `{"name":"2026-1"}`)
	handler.Add(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.semesters, 1)
}

func TestSemesterHandlerDeleteRefusedWhileLinked(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}, {Name: "2026-2"}}}
	homeworks := &labelSourceStub{counts: map[string]int{"2026-1": 2}}
	handler := newSemesterHandler(repo, homeworks, &semesterUserStub{})

	c, rec := authedContext(t, http.MethodDelete, "/semesters/2026-1", "")
	c.Params = gin.Params{{Key: "name", Value: "2026-1"}}
	handler.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, repo.semesters, 2)
}

func TestSemesterHandlerDeleteSuccess(t *testing.T) {
	repo := &semesterRepoStub{semesters: []models.UserSemester{{Name: "2026-1"}, {Name: "2026-2"}}}
	handler := newSemesterHandler(repo, nil, &semesterUserStub{})

	c, rec := authedContext(t, http.MethodDelete, "/semesters/2026-2", "")
	c.Params = gin.Params{{Key: "name", Value: "2026-2"}}
	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, repo.semesters, 1)
}

func TestSemesterHandlerSetDefaultAll(t *testing.T) {
	users := &semesterUserStub{defaultSemester: ptr("2026-1")}
	handler := newSemesterHandler(&semesterRepoStub{}, nil, users)

	c, rec := authedContext(t, http.MethodPut, "/semesters/default", `{"semester":"all"}`)
	handler.SetDefault(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, users.defaultSemester)
}

func TestSemesterHandlerGetDefaultFallsBackToAll(t *testing.T) {
	handler := newSemesterHandler(&semesterRepoStub{}, nil, &semesterUserStub{})

	c, rec := authedContext(t, http.MethodGet, "/semesters/default", "")
	handler.GetDefault(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "all", envelope.Data["semester"])
}

func ptr(s string) *string { return &s }
