package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldsync/internal/domain"
	"fieldsync/internal/lock"
	"fieldsync/internal/logger"
	"fieldsync/internal/repository"
	"fieldsync/pkg/validate"
)

// ReportService owns the report lifecycle. Every write lands in the local
// store first; the remote push that follows is best effort.
type ReportService struct {
	reportRepo repository.ReportRepository
	client     ReportClient
	locker     lock.Locker
	validator  *validate.Validator
	notifier   ChangeNotifier
	now        func() time.Time
	newID      func() string
}

func NewReportService(
	reportRepo repository.ReportRepository,
	client ReportClient,
	locker lock.Locker,
	validator *validate.Validator,
	notifier ChangeNotifier,
) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		client:     client,
		locker:     locker,
		validator:  validator,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
	}
}

func (s *ReportService) Create(ctx context.Context, userID, productID string, req *domain.CreateReportRequest) (*domain.ReportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if _, ok := domain.FindProduct(productID); !ok {
		return nil, &domain.NotFoundError{Resource: "product", ID: productID}
	}

	now := s.now()
	report := &domain.Report{
		ID:              s.newID(),
		ProductID:       productID,
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientAddress:   strings.TrimSpace(req.ClientAddress),
		Town:            strings.TrimSpace(req.Town),
		LocalGovernment: strings.TrimSpace(req.LocalGovernment),
		State:           strings.TrimSpace(req.State),
		Community:       strings.TrimSpace(req.Community),
		NearestLandmark: strings.TrimSpace(req.NearestLandmark),
		Latitude:        strings.TrimSpace(req.Latitude),
		Longitude:       strings.TrimSpace(req.Longitude),
		ContactPerson:   strings.TrimSpace(req.ContactPerson),
		ContactPhone:    strings.TrimSpace(req.ContactPhone),
		VisitDate:       strings.TrimSpace(req.VisitDate),
		ServiceType:     strings.TrimSpace(req.ServiceType),
		Status:          req.ResolvedStatus(),
		Notes:           strings.TrimSpace(req.Notes),
		SyncState:       domain.SyncStateLocal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(req.Images) > 0 {
		report.Images = append([]string(nil), req.Images...)
	}

	unlock, err := s.locker.Lock(ctx, repository.ReportsKey(userID, productID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	reports, err := s.reportRepo.Load(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	reports = append([]*domain.Report{report}, reports...)
	if err := s.reportRepo.Save(ctx, userID, productID, reports); err != nil {
		return nil, err
	}

	result := &domain.ReportResult{Report: report.Clone()}

	payload := domain.ToPayload(report, userID)
	payload.ReportID = report.ID
	created, err := s.client.Create(ctx, payload)
	if err != nil {
		result.RemoteError, result.AuthRequired = remoteFailure(err)
		logger.Log.Warn("report saved locally, remote create failed",
			zap.String("report_id", report.ID),
			zap.String("product_id", productID),
			zap.Error(err),
		)
		s.notify(userID, productID, "create")
		return result, nil
	}

	// Without a confirmed id the record stays unlinked; the next sync pass
	// links it by local id echo or by name, phone and date.
	if created == nil || created.ReportID == "" {
		result.Synced = true
		s.notify(userID, productID, "create")
		return result, nil
	}

	report.MarkSynced(created.ReportID.String())
	if err := s.reportRepo.Save(ctx, userID, productID, reports); err != nil {
		result.RemoteError = "The report reached the server but its link could not be saved on this device. It will be linked on the next sync."
		logger.Log.Warn("remote create succeeded, failed to save server id",
			zap.String("report_id", report.ID),
			zap.String("server_id", created.ReportID.String()),
			zap.Error(err),
		)
		s.notify(userID, productID, "create")
		return result, nil
	}

	result.Report = report.Clone()
	result.Synced = true
	s.notify(userID, productID, "create")
	return result, nil
}

func (s *ReportService) Get(ctx context.Context, userID, productID, id string) (*domain.Report, error) {
	reports, err := s.reportRepo.Load(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(reports, id)
	if idx < 0 {
		return nil, &domain.NotFoundError{Resource: "report", ID: id}
	}
	return reports[idx], nil
}

// List reads the local sequence only. Status matches exactly; the query
// matches case-insensitively against the searchable text fields.
func (s *ReportService) List(ctx context.Context, userID, productID string, filter domain.ReportFilter) ([]*domain.Report, error) {
	reports, err := s.reportRepo.Load(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]*domain.Report, 0, len(reports))
	for _, r := range reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if q != "" && !matchesQuery(r, q) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if filter.Sort == domain.SortAsc {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func matchesQuery(r *domain.Report, q string) bool {
	for _, field := range []string{
		r.ClientName,
		r.Notes,
		r.ContactPerson,
		r.ContactPhone,
		r.Town,
		r.State,
		r.ServiceType,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (s *ReportService) Update(ctx context.Context, userID, productID, id string, req *domain.UpdateReportRequest) (*domain.ReportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, repository.ReportsKey(userID, productID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	reports, err := s.reportRepo.Load(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(reports, id)
	if idx < 0 {
		return nil, &domain.NotFoundError{Resource: "report", ID: id}
	}

	updated := reports[idx].Clone()
	req.Apply(updated)
	updated.UpdatedAt = s.now()
	reports[idx] = updated

	if err := s.reportRepo.Save(ctx, userID, productID, reports); err != nil {
		return nil, err
	}
	s.notify(userID, productID, "update")

	result := &domain.ReportResult{Report: updated.Clone()}
	serverID, ok := updated.RemoteID()
	if !ok {
		return result, nil
	}

	if _, err := s.client.Update(ctx, serverID, domain.ToPayload(updated, userID)); err != nil {
		result.RemoteError, result.AuthRequired = remoteFailure(err)
		if domain.IsNotFound(err) {
			logger.Log.Warn("remote report missing on update",
				zap.String("report_id", id),
				zap.String("server_id", serverID),
			)
		} else {
			logger.Log.Warn("report saved locally, remote update failed",
				zap.String("report_id", id),
				zap.String("server_id", serverID),
				zap.Error(err),
			)
		}
		return result, nil
	}

	result.Synced = true
	return result, nil
}

// Delete removes the report locally, then asks the server to delete it too
// when the report has a server identity. A report the server no longer has
// counts as deleted there.
func (s *ReportService) Delete(ctx context.Context, userID, productID, id string) (*domain.ReportResult, error) {
	unlock, err := s.locker.Lock(ctx, repository.ReportsKey(userID, productID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	reports, err := s.reportRepo.Load(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(reports, id)
	if idx < 0 {
		return nil, &domain.NotFoundError{Resource: "report", ID: id}
	}

	removed := reports[idx]
	reports = append(reports[:idx:idx], reports[idx+1:]...)
	if err := s.reportRepo.Save(ctx, userID, productID, reports); err != nil {
		return nil, err
	}
	s.notify(userID, productID, "delete")

	result := &domain.ReportResult{Report: removed}
	serverID, ok := removed.RemoteID()
	if !ok {
		return result, nil
	}

	err = s.client.Delete(ctx, serverID)
	switch {
	case err == nil:
		result.Synced = true
	case domain.IsNotFound(err):
		logger.Log.Info("remote report already gone", zap.String("server_id", serverID))
		result.Synced = true
	default:
		result.RemoteError, result.AuthRequired = remoteFailure(err)
		logger.Log.Warn("report removed locally, remote delete failed",
			zap.String("report_id", id),
			zap.String("server_id", serverID),
			zap.Error(err),
		)
	}
	return result, nil
}

func (s *ReportService) notify(userID, productID, reason string) {
	if s.notifier != nil {
		s.notifier.NotifyReportsChanged(userID, productID, reason)
	}
}

func indexOf(reports []*domain.Report, id string) int {
	for i, r := range reports {
		if r.ID == id {
			return i
		}
	}
	return -1
}
