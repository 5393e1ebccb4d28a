package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"fieldsync/internal/domain"
	"fieldsync/internal/lock"
	"fieldsync/internal/logger"
	"fieldsync/internal/repository"
)

type SyncService struct {
	reportRepo repository.ReportRepository
	client     ReportClient
	locker     lock.Locker
	notifier   ChangeNotifier
	inflight   singleflight.Group
	now        func() time.Time
}

func NewSyncService(
	reportRepo repository.ReportRepository,
	client ReportClient,
	locker lock.Locker,
	notifier ChangeNotifier,
) *SyncService {
	return &SyncService{
		reportRepo: reportRepo,
		client:     client,
		locker:     locker,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Sync runs one reconciliation pass for the user's reports of a product.
// A caller arriving while a pass for the same key is running gets that
// pass's result. The pass is not cancelled when the caller goes away.
//
// A failed fetch is not an error: the result carries the unchanged local
// sequence with Synced=false. Only storage failures are returned as errors.
func (s *SyncService) Sync(ctx context.Context, userID, productID string) (*domain.SyncResult, error) {
	key := repository.ReportsKey(userID, productID)
	passCtx := context.WithoutCancel(ctx)

	v, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		return s.sync(passCtx, userID, productID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Log.Debug("joined in-flight sync", zap.String("key", key))
	}
	return v.(*domain.SyncResult), nil
}

func (s *SyncService) sync(ctx context.Context, userID, productID string) (*domain.SyncResult, error) {
	key := repository.ReportsKey(userID, productID)
	start := time.Now()

	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	remote, fetchErr := s.client.ListMine(ctx)

	local, err := s.reportRepo.Load(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if fetchErr != nil {
		msg, authRequired := remoteFailure(fetchErr)
		logger.Log.Warn("sync fetch failed, serving local reports",
			zap.String("user_id", userID),
			zap.String("product_id", productID),
			zap.Int("local", len(local)),
			zap.Error(fetchErr),
		)
		return &domain.SyncResult{
			Reports:      local,
			Synced:       false,
			Error:        msg,
			AuthRequired: authRequired,
		}, nil
	}

	now := s.now()
	merged, stats := Reconcile(local, remote, productID, now)

	if err := s.reportRepo.Save(ctx, userID, productID, merged); err != nil {
		return nil, err
	}

	logger.Log.Info("sync completed",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("remote", len(remote)),
		zap.Int("matched", stats.Matched),
		zap.Int("linked", stats.Linked),
		zap.Int("added", stats.Added),
		zap.Int("unsynced", stats.Unsynced),
		zap.Int("dropped", stats.Dropped),
		zap.Duration("duration", time.Since(start)),
	)

	if s.notifier != nil {
		s.notifier.NotifyReportsChanged(userID, productID, "sync")
	}

	return &domain.SyncResult{
		Reports:  merged,
		Synced:   true,
		Stats:    stats,
		SyncedAt: now,
	}, nil
}

// SyncAll runs a pass for every catalog product. Failed passes are logged
// and do not stop the others.
func (s *SyncService) SyncAll(ctx context.Context, userID string) {
	for _, p := range domain.Products() {
		result, err := s.Sync(ctx, userID, p.ID)
		if err != nil {
			logger.Log.Error("scheduled sync failed",
				zap.String("user_id", userID),
				zap.String("product_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		if result.AuthRequired {
			logger.Log.Warn("scheduled sync stopped, login required", zap.String("user_id", userID))
			return
		}
	}
}
