package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fieldsync/internal/domain"
	"fieldsync/internal/logger"
	"fieldsync/internal/storage"
)

// ReportRepository persists the ordered report sequence of one user for one
// product. Writers always replace the whole sequence.
type ReportRepository interface {
	Load(ctx context.Context, userID, productID string) ([]*domain.Report, error)
	Save(ctx context.Context, userID, productID string, reports []*domain.Report) error
}

type reportRepository struct {
	store storage.Store
}

func NewReportRepository(store storage.Store) ReportRepository {
	return &reportRepository{store: store}
}

func ReportsKey(userID, productID string) string {
	return fmt.Sprintf("reports:%s:%s", userID, productID)
}

// storedReport accepts blobs written by older clients, which used contact
// and meetingDate for the phone and visit date.
type storedReport struct {
	domain.Report
	Contact     string `json:"contact,omitempty"`
	MeetingDate string `json:"meetingDate,omitempty"`
}

func (r *reportRepository) Load(ctx context.Context, userID, productID string) ([]*domain.Report, error) {
	key := ReportsKey(userID, productID)

	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: key, Err: err}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []*domain.Report{}, nil
	}

	var stored []storedReport
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		logger.Log.Warn("discarding unreadable report blob",
			zap.String("key", key),
			zap.Error(err),
		)
		return []*domain.Report{}, nil
	}

	reports := make([]*domain.Report, 0, len(stored))
	for i := range stored {
		rep := stored[i].Report
		if rep.ContactPhone == "" {
			rep.ContactPhone = stored[i].Contact
		}
		if rep.VisitDate == "" {
			rep.VisitDate = stored[i].MeetingDate
		}
		if rep.ProductID == "" {
			rep.ProductID = productID
		}
		if rep.SyncState == "" {
			rep.SyncState = domain.SyncStateLocal
			if rep.HasServerID() {
				rep.SyncState = domain.SyncStateSynced
			}
		}
		reports = append(reports, &rep)
	}
	return reports, nil
}

func (r *reportRepository) Save(ctx context.Context, userID, productID string, reports []*domain.Report) error {
	key := ReportsKey(userID, productID)

	if reports == nil {
		reports = []*domain.Report{}
	}
	data, err := json.Marshal(reports)
	if err != nil {
		return &domain.StorageError{Op: "encode", Key: key, Err: err}
	}

	if err := r.store.Set(ctx, key, string(data)); err != nil {
		return &domain.StorageError{Op: "save", Key: key, Err: err}
	}
	return nil
}
