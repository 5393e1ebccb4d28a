package scheduler

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"fieldsync/internal/config"
	"fieldsync/internal/domain"
	"fieldsync/internal/logger"
)

type SessionSource interface {
	Current(ctx context.Context) (*domain.Session, error)
}

type Syncer interface {
	SyncAll(ctx context.Context, userID string)
}

// Scheduler runs a reconciliation pass over every product on a cron
// schedule for whoever is logged in. It only pulls and merges; local-only
// records are never re-pushed from here.
type Scheduler struct {
	cfg      config.SchedulerConfig
	sessions SessionSource
	syncer   Syncer
	cron     *cron.Cron
	entryID  cron.EntryID
	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewScheduler(cfg config.SchedulerConfig, sessions SessionSource, syncer Syncer) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:      cfg,
		sessions: sessions,
		syncer:   syncer,
		cron:     cron.New(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled() {
		logger.Log.Info("scheduled sync is disabled")
		return nil
	}

	id, err := s.cron.AddFunc(s.cfg.Schedule, s.triggerSync)
	if err != nil {
		return err
	}
	s.entryID = id
	s.cron.Start()

	logger.Log.Info("scheduled sync started", zap.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	logger.Log.Info("scheduled sync stopped")
}

func (s *Scheduler) triggerSync() {
	if !s.running.CompareAndSwap(false, true) {
		logger.Log.Info("sync already running, skipping scheduled run")
		return
	}
	defer s.running.Store(false)

	session, err := s.sessions.Current(s.ctx)
	if err != nil {
		if domain.IsAuth(err) {
			logger.Log.Debug("no session, skipping scheduled sync")
			return
		}
		logger.Log.Error("failed to read session for scheduled sync", zap.Error(err))
		return
	}

	logger.Log.Info("triggering scheduled sync", zap.String("user_id", session.UserID))
	s.syncer.SyncAll(s.ctx, session.UserID)
}
