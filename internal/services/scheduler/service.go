// -----------------------------------------------------------------------
// Reindex Scheduler - optional cron-driven wholesale rebuild of every
// persisted corpus index.
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/services/pipeline"
)

// Service runs periodic corpus reindexes on a cron schedule
type Service struct {
	cron     *cron.Cron
	pipeline *pipeline.Pipeline
	storage  interfaces.IndexStorage
	kv       interfaces.KVStorage
	config   common.SchedulerConfig
	logger   arbor.ILogger
}

// NewService creates a new reindex scheduler. kv may be nil; it only
// records the completion timestamp of the last pass.
func NewService(p *pipeline.Pipeline, storage interfaces.IndexStorage, kv interfaces.KVStorage, config common.SchedulerConfig, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		cron:     cron.New(),
		pipeline: p,
		storage:  storage,
		kv:       kv,
		config:   config,
		logger:   logger,
	}
}

// Start registers the reindex job and starts the cron loop. Disabled
// schedulers start as a no-op.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Reindex scheduler disabled")
		return nil
	}

	if err := common.ValidateSchedule(s.config.ReindexSchedule); err != nil {
		return fmt.Errorf("scheduler not started: %w", err)
	}

	if _, err := s.cron.AddFunc(s.config.ReindexSchedule, s.reindexAll); err != nil {
		return fmt.Errorf("failed to register reindex job: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.config.ReindexSchedule).
		Msg("Reindex scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Reindex scheduler stopped")
}

// reindexAll rebuilds every corpus with persisted chunks. A failed corpus is
// logged and the rest continue.
func (s *Service) reindexAll() {
	corpora, err := s.storage.ListCorpora()
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled reindex could not list corpora")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	for _, corpusID := range corpora {
		if err := s.pipeline.ReindexCorpus(ctx, corpusID); err != nil {
			s.logger.Error().
				Err(err).
				Str("corpus_id", corpusID).
				Msg("Scheduled reindex failed for corpus")
		}
	}

	if s.kv != nil {
		stamp := time.Now().UTC().Format(time.RFC3339)
		if err := s.kv.Set("scheduler/last_reindex", []byte(stamp)); err != nil {
			s.logger.Warn().Err(err).Msg("Could not record reindex timestamp")
		}
	}

	s.logger.Info().
		Int("corpora", len(corpora)).
		Msg("Scheduled reindex pass complete")
}

// LastReindex returns the completion time of the most recent pass, or the
// zero time when no pass has run yet.
func (s *Service) LastReindex() (time.Time, error) {
	if s.kv == nil {
		return time.Time{}, nil
	}

	raw, err := s.kv.Get("scheduler/last_reindex")
	if err != nil {
		if err == interfaces.ErrNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, string(raw))
}
