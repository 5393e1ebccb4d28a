package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fieldsync/internal/domain"
	"fieldsync/internal/lock"
)

func newTestSyncService(repo *mockReportRepo, client *mockReportClient, notifier ChangeNotifier) *SyncService {
	s := NewSyncService(repo, client, lock.NewKeyedLocker(), notifier)
	s.now = func() time.Time { return passTime }
	return s
}

func TestSyncService_MergesAndPersists(t *testing.T) {
	repo := newMockReportRepo()
	repo.put("u1", "1", localReport("abc", "Jane", "0801", "2024-01-01"))
	client := newMockReportClient()
	client.remote = []domain.RemoteReport{
		remoteReport("99", "Jane", "0801", "2024-01-01"),
		remoteReport("100", "New School", "0805", "2024-02-01"),
	}
	notifier := &mockNotifier{}

	result, err := newTestSyncService(repo, client, notifier).Sync(context.Background(), "u1", "1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Synced {
		t.Error("expected synced result")
	}
	if len(result.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(result.Reports))
	}

	stored := repo.get("u1", "1")
	if len(stored) != 2 || stored[0].ID != "abc" || stored[1].ID != "server_100" {
		t.Errorf("unexpected stored sequence: %+v", stored)
	}
	if notifier.count() != 1 {
		t.Errorf("expected one change notification, got %d", notifier.count())
	}
}

func TestSyncService_FetchFailureKeepsLocalData(t *testing.T) {
	repo := newMockReportRepo()
	repo.put("u1", "1",
		localReport("a", "A", "01", "2024-01-01"),
		syncedReport("b", "5", "B", "02", "2024-01-02"),
	)
	client := newMockReportClient()
	client.listErr = errOffline

	result, err := newTestSyncService(repo, client, nil).Sync(context.Background(), "u1", "1")
	if err != nil {
		t.Fatalf("a failed fetch must not be an error, got %v", err)
	}
	if result.Synced {
		t.Error("expected Synced=false")
	}
	if result.Error == "" {
		t.Error("expected an error banner")
	}
	if len(result.Reports) != 2 {
		t.Errorf("expected the 2 local reports, got %d", len(result.Reports))
	}
	if repo.saves != 0 {
		t.Errorf("nothing may be saved after a failed fetch, got %d saves", repo.saves)
	}
}

func TestSyncService_AuthFailureFlagsLogin(t *testing.T) {
	repo := newMockReportRepo()
	client := newMockReportClient()
	client.listErr = &domain.AuthError{Op: "list reports"}

	result, err := newTestSyncService(repo, client, nil).Sync(context.Background(), "u1", "1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.AuthRequired {
		t.Error("expected AuthRequired")
	}
	if result.Reports == nil {
		t.Error("reports should be an empty list, not nil")
	}
}

func TestSyncService_StorageErrorSurfaces(t *testing.T) {
	repo := newMockReportRepo()
	repo.saveErr = errors.New("disk full")
	client := newMockReportClient()
	client.remote = []domain.RemoteReport{remoteReport("1", "A", "01", "2024-01-01")}

	_, err := newTestSyncService(repo, client, nil).Sync(context.Background(), "u1", "1")
	if !domain.IsStorage(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestSyncService_ConcurrentCallsShareOnePass(t *testing.T) {
	repo := newMockReportRepo()
	client := newMockReportClient()
	client.remote = []domain.RemoteReport{remoteReport("1", "A", "01", "2024-01-01")}
	client.listDelay = 50 * time.Millisecond
	s := newTestSyncService(repo, client, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Sync(context.Background(), "u1", "1"); err != nil {
				t.Errorf("Sync() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if client.listCalls >= 5 {
		t.Errorf("expected concurrent syncs to be coalesced, got %d fetches", client.listCalls)
	}
	if got := repo.get("u1", "1"); len(got) != 1 {
		t.Errorf("expected exactly one stored record, got %d", len(got))
	}
}

func TestSyncService_CallerCancellationDoesNotAbortPass(t *testing.T) {
	repo := newMockReportRepo()
	client := newMockReportClient()
	client.remote = []domain.RemoteReport{remoteReport("1", "A", "01", "2024-01-01")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestSyncService(repo, client, nil).Sync(ctx, "u1", "1")
	if err != nil {
		t.Fatalf("expected pass to complete, got %v", err)
	}
	if !result.Synced || repo.saves != 1 {
		t.Errorf("expected a persisted pass, synced=%v saves=%d", result.Synced, repo.saves)
	}
}

func TestSyncService_SyncAllCoversCatalog(t *testing.T) {
	repo := newMockReportRepo()
	client := newMockReportClient()
	notifier := &mockNotifier{}

	newTestSyncService(repo, client, notifier).SyncAll(context.Background(), "u1")

	if client.listCalls != len(domain.Products()) {
		t.Errorf("expected one fetch per product, got %d", client.listCalls)
	}
	if notifier.count() != len(domain.Products()) {
		t.Errorf("expected one notification per product, got %d", notifier.count())
	}
}
