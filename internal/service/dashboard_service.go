package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/academa/academa-api/internal/dto"
	"github.com/academa/academa-api/internal/models"
)

type dashboardAssignmentProvider interface {
	Statistics(ctx context.Context, userID, semester string) (dto.AssignmentStatistics, error)
	Upcoming(ctx context.Context, userID, semester string, windowDays int) ([]dto.UpcomingCourseGroup, error)
}

// DashboardServiceConfig tunes dashboard behaviour. FreshnessWindow is how
// long a computed overview stays valid; within the window repeated requests
// are served from cache unless the caller forces a refresh.
type DashboardServiceConfig struct {
	FreshnessWindow    time.Duration
	UpcomingWindowDays int
}

// DashboardService composes the overview payload from the aggregated
// assignment views.
type DashboardService struct {
	assignments dashboardAssignmentProvider
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(assignments dashboardAssignmentProvider, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = 30 * time.Second
	}
	if cfg.UpcomingWindowDays <= 0 {
		cfg.UpcomingWindowDays = DefaultUpcomingWindowDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		assignments: assignments,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Overview returns the dashboard payload for the semester scope and reports
// whether it was served from cache. force bypasses the freshness window and
// recomputes immediately.
func (s *DashboardService) Overview(ctx context.Context, userID, semester string, force bool) (*dto.OverviewResponse, bool, error) {
	scope := strings.TrimSpace(semester)
	if scope == "" {
		scope = models.FilterAll
	}

	cacheKey := fmt.Sprintf("dash:overview:%s:%s", userID, scope)
	if !force && s.cache != nil {
		var cached dto.OverviewResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache lookup failed", zap.String("key", cacheKey), zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	stats, err := s.assignments.Statistics(ctx, userID, scope)
	if err != nil {
		return nil, false, err
	}
	upcoming, err := s.assignments.Upcoming(ctx, userID, scope, s.cfg.UpcomingWindowDays)
	if err != nil {
		return nil, false, err
	}

	overview := &dto.OverviewResponse{
		Semester:   scope,
		Statistics: stats,
		Upcoming:   upcoming,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, overview, s.cfg.FreshnessWindow); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return overview, false, nil
}
