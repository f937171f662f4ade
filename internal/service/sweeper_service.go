package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/academa/academa-api/internal/models"
	"github.com/academa/academa-api/pkg/jobs"
)

type sweepHomeworkRepository interface {
	ListOverdueCandidates(ctx context.Context, before time.Time) ([]models.Homework, error)
	MarkOverdue(ctx context.Context, id string, now time.Time) error
}

type sweepExamRepository interface {
	ListOverdueCandidates(ctx context.Context, before time.Time) ([]models.Exam, error)
	MarkOverdue(ctx context.Context, id string, now time.Time) error
}

// overdueJobPayload identifies one assignment the sweep wants transitioned.
type overdueJobPayload struct {
	Kind   models.AssignmentType
	ID     string
	UserID string
}

// SweeperConfig tunes the overdue sweep.
type SweeperConfig struct {
	Interval   time.Duration
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// SweeperService periodically flips past-due PENDING and IN_PROGRESS
// assignments to OVERDUE. Each pass enqueues one job per candidate; the SQL
// guard on the update keeps the transition one-way, so a candidate completed
// between discovery and execution is left alone.
type SweeperService struct {
	homeworks sweepHomeworkRepository
	exams     sweepExamRepository
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
	cfg       SweeperConfig

	queue  *jobs.Queue
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	marked int
}

// NewSweeperService constructs the sweep around the homework and exam stores.
func NewSweeperService(homeworks sweepHomeworkRepository, exams sweepExamRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg SweeperConfig) *SweeperService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SweeperService{
		homeworks: homeworks,
		exams:     exams,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
	s.queue = jobs.NewQueue("overdue-sweep", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start runs one sweep immediately, then repeats on the configured interval
// until the context is cancelled.
func (s *SweeperService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.RunOnce(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and drains the queue workers.
func (s *SweeperService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.queue.Stop()
}

// RunOnce performs a single sweep pass, enqueueing a job per candidate.
func (s *SweeperService) RunOnce(ctx context.Context) {
	now := s.now().UTC()
	enqueued := 0

	homeworks, err := s.homeworks.ListOverdueCandidates(ctx, now)
	if err != nil {
		s.logger.Error("overdue sweep failed to list homeworks", zap.Error(err))
	} else {
		for _, hw := range homeworks {
			s.enqueue(models.TypeHomework, hw.ID, hw.UserID)
			enqueued++
		}
	}

	exams, err := s.exams.ListOverdueCandidates(ctx, now)
	if err != nil {
		s.logger.Error("overdue sweep failed to list exams", zap.Error(err))
	} else {
		for _, exam := range exams {
			s.enqueue(models.TypeExam, exam.ID, exam.UserID)
			enqueued++
		}
	}

	if s.metrics != nil {
		s.mu.Lock()
		marked := s.marked
		s.marked = 0
		s.mu.Unlock()
		s.metrics.RecordSweepRun(marked)
	}

	if enqueued > 0 {
		s.logger.Info("overdue sweep pass", zap.Int("candidates", enqueued), zap.Time("as_of", now))
	}
}

func (s *SweeperService) enqueue(kind models.AssignmentType, id, userID string) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      fmt.Sprintf("%s:%s", kind, id),
		Type:    "mark-overdue",
		Payload: overdueJobPayload{Kind: kind, ID: id, UserID: userID},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue overdue job", zap.String("assignment_id", id), zap.Error(err))
	}
}

func (s *SweeperService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(overdueJobPayload)
	if !ok {
		s.logger.Error("unexpected overdue job payload", zap.String("job_id", job.ID))
		return nil
	}

	now := s.now().UTC()
	var err error
	switch payload.Kind {
	case models.TypeHomework:
		err = s.homeworks.MarkOverdue(ctx, payload.ID, now)
	case models.TypeExam:
		err = s.exams.MarkOverdue(ctx, payload.ID, now)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.marked++
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, fmt.Sprintf("dash:overview:%s:*", payload.UserID)); err != nil {
			s.logger.Warn("failed to invalidate dashboard after sweep", zap.String("user_id", payload.UserID), zap.Error(err))
		}
	}
	return nil
}
