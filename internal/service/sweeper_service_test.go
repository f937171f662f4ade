package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academa/academa-api/internal/models"
	"github.com/academa/academa-api/pkg/jobs"
)

type sweepHomeworkStub struct {
	mu         sync.Mutex
	candidates []models.Homework
	marked     []string
	markErr    error
}

func (s *sweepHomeworkStub) ListOverdueCandidates(ctx context.Context, before time.Time) ([]models.Homework, error) {
	return s.candidates, nil
}

func (s *sweepHomeworkStub) MarkOverdue(ctx context.Context, id string, now time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, id)
	return nil
}

func (s *sweepHomeworkStub) markedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.marked...)
}

type sweepExamStub struct {
	mu         sync.Mutex
	candidates []models.Exam
	marked     []string
}

func (s *sweepExamStub) ListOverdueCandidates(ctx context.Context, before time.Time) ([]models.Exam, error) {
	return s.candidates, nil
}

func (s *sweepExamStub) MarkOverdue(ctx context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, id)
	return nil
}

func (s *sweepExamStub) markedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.marked...)
}

type invalidationRecorder struct {
	mu       sync.Mutex
	patterns []string
}

func (r *invalidationRecorder) Get(ctx context.Context, key string, dest interface{}) error {
	return nil
}

func (r *invalidationRecorder) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (r *invalidationRecorder) DeleteByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
	return nil
}

func (r *invalidationRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.patterns...)
}

func TestSweeperMarksCandidatesOverdue(t *testing.T) {
	homeworks := &sweepHomeworkStub{candidates: []models.Homework{
		{ID: "hw-1", UserID: "user-1"},
		{ID: "hw-2", UserID: "user-2"},
	}}
	exams := &sweepExamStub{candidates: []models.Exam{
		{ID: "ex-1", UserID: "user-1"},
	}}
	recorder := &invalidationRecorder{}
	cacheSvc := NewCacheService(recorder, nil, time.Second, nil, true)

	sweeper := NewSweeperService(homeworks, exams, cacheSvc, nil, nil, SweeperConfig{
		Interval: time.Hour,
		Workers:  2,
	})
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		return len(homeworks.markedIDs()) == 2 && len(exams.markedIDs()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return len(recorder.recorded()) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, recorder.recorded(), "dash:overview:user-1:*")
	assert.Contains(t, recorder.recorded(), "dash:overview:user-2:*")
}

func TestSweeperHandleJobMarksHomework(t *testing.T) {
	homeworks := &sweepHomeworkStub{}
	exams := &sweepExamStub{}
	sweeper := NewSweeperService(homeworks, exams, nil, nil, nil, SweeperConfig{})

	err := sweeper.handleJob(context.Background(), jobs.Job{
		ID:      "homework:hw-1",
		Type:    "mark-overdue",
		Payload: overdueJobPayload{Kind: models.TypeHomework, ID: "hw-1", UserID: "user-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hw-1"}, homeworks.markedIDs())
	assert.Empty(t, exams.markedIDs())
}

func TestSweeperHandleJobMarksExam(t *testing.T) {
	homeworks := &sweepHomeworkStub{}
	exams := &sweepExamStub{}
	sweeper := NewSweeperService(homeworks, exams, nil, nil, nil, SweeperConfig{})

	err := sweeper.handleJob(context.Background(), jobs.Job{
		ID:      "exam:ex-1",
		Type:    "mark-overdue",
		Payload: overdueJobPayload{Kind: models.TypeExam, ID: "ex-1", UserID: "user-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ex-1"}, exams.markedIDs())
}

func TestSweeperHandleJobPropagatesRepoError(t *testing.T) {
	homeworks := &sweepHomeworkStub{markErr: context.DeadlineExceeded}
	sweeper := NewSweeperService(homeworks, &sweepExamStub{}, nil, nil, nil, SweeperConfig{})

	err := sweeper.handleJob(context.Background(), jobs.Job{
		Payload: overdueJobPayload{Kind: models.TypeHomework, ID: "hw-1"},
	})
	require.Error(t, err)
}

func TestSweeperHandleJobIgnoresUnknownPayload(t *testing.T) {
	homeworks := &sweepHomeworkStub{}
	sweeper := NewSweeperService(homeworks, &sweepExamStub{}, nil, nil, nil, SweeperConfig{})

	err := sweeper.handleJob(context.Background(), jobs.Job{Payload: "bogus"})
	require.NoError(t, err)
	assert.Empty(t, homeworks.markedIDs())
}
