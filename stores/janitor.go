package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Evictor drops idle in-memory conversations and reports how many went away.
type Evictor interface {
	Evict(idle time.Duration) int
}

// JanitorConfig controls the retention sweep. A zero duration disables that half.
type JanitorConfig struct {
	Schedule         string // cron spec, seconds field allowed, e.g. "@every 10m"
	ImageMaxAge      time.Duration
	ConversationIdle time.Duration
}

// Report is the result of one sweep.
type Report struct {
	ImagesPruned         int
	ConversationsEvicted int
}

// Janitor periodically prunes generated images and evicts idle conversations.
type Janitor struct {
	cfg     JanitorConfig
	images  ImageStore
	evictor Evictor
	cron    *cron.Cron
	logger  zerolog.Logger
	now     func() time.Time
}

// NewJanitor builds a janitor. images and evictor may be nil.
func NewJanitor(cfg JanitorConfig, images ImageStore, evictor Evictor, logger zerolog.Logger) *Janitor {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 10m"
	}
	return &Janitor{
		cfg:     cfg,
		images:  images,
		evictor: evictor,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With().Str("component", "janitor").Logger(),
		now:     time.Now,
	}
}

// Start registers the sweep with the scheduler and starts it.
func (j *Janitor) Start() error {
	_, err := j.cron.AddFunc(j.cfg.Schedule, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.logger.Error().Err(err).Msg("retention sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", j.cfg.Schedule, err)
	}
	j.cron.Start()
	j.logger.Info().Str("schedule", j.cfg.Schedule).Msg("janitor started")
	return nil
}

// Stop stops the scheduler. The returned context is done once a running sweep finishes.
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	if j.images != nil && j.cfg.ImageMaxAge > 0 {
		n, err := j.images.Prune(ctx, j.now().Add(-j.cfg.ImageMaxAge))
		report.ImagesPruned = n
		if err != nil {
			return report, fmt.Errorf("failed to prune images: %w", err)
		}
	}
	if j.evictor != nil && j.cfg.ConversationIdle > 0 {
		report.ConversationsEvicted = j.evictor.Evict(j.cfg.ConversationIdle)
	}

	j.logger.Debug().
		Int("images_pruned", report.ImagesPruned).
		Int("conversations_evicted", report.ConversationsEvicted).
		Msg("retention sweep done")
	return report, nil
}
