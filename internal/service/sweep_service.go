package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adhyayan-oer/adhyayan-go-api/internal/models"
)

const sweepLockKey = "adhyayan:decision:sweep"

// SweepConfig tunes the periodic due-chapter sweep.
type SweepConfig struct {
	Interval    time.Duration
	Throttle    time.Duration
	MaxChapters int
}

// Sweeper periodically walks chapters with lapsed deadlines and triggers the
// decision engine for each. A short redis lock keeps concurrent instances
// from sweeping simultaneously.
type Sweeper struct {
	decisions DecisionService
	redis     *redis.Client
	config    SweepConfig
	logger    zerolog.Logger
}

// NewSweeper constructs the sweep loop.
func NewSweeper(decisions DecisionService, redisClient *redis.Client, config SweepConfig, logger zerolog.Logger) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.Throttle <= 0 {
		config.Throttle = 30 * time.Second
	}
	return &Sweeper{
		decisions: decisions,
		redis:     redisClient,
		config:    config,
		logger:    logger.With().Str("component", "decision_sweeper").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("decision sweep failed")
			}
		}
	}
}

// RunOnce performs a single throttled sweep. A nil slice with a nil error
// means another instance holds the throttle lock.
func (s *Sweeper) RunOnce(ctx context.Context) ([]models.DecisionRun, error) {
	if s.redis != nil {
		acquired, err := s.redis.SetNX(ctx, sweepLockKey, time.Now().UTC().Format(time.RFC3339), s.config.Throttle).Result()
		if err != nil {
			s.logger.Warn().Err(err).Msg("sweep throttle check failed, proceeding without lock")
		} else if !acquired {
			return nil, nil
		}
	}

	runs, err := s.decisions.DecideAllDue(ctx, s.config.MaxChapters)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		s.logger.Info().Int("runs", len(runs)).Msg("decision sweep executed")
	}
	return runs, nil
}
