package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"fieldsync/internal/domain"
	"fieldsync/internal/repository"
)

type mockReportRepo struct {
	mu      sync.Mutex
	data    map[string][]*domain.Report
	saves   int
	loadErr error
	saveErr error
	// failAfter lets that many saves succeed before saveErr applies.
	failAfter int
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{data: make(map[string][]*domain.Report)}
}

func cloneAll(reports []*domain.Report) []*domain.Report {
	out := make([]*domain.Report, len(reports))
	for i, r := range reports {
		out[i] = r.Clone()
	}
	return out
}

func (m *mockReportRepo) Load(ctx context.Context, userID, productID string) ([]*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, &domain.StorageError{Op: "load", Err: m.loadErr}
	}
	return cloneAll(m.data[repository.ReportsKey(userID, productID)]), nil
}

func (m *mockReportRepo) Save(ctx context.Context, userID, productID string, reports []*domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil && m.saves >= m.failAfter {
		return &domain.StorageError{Op: "save", Err: m.saveErr}
	}
	m.saves++
	m.data[repository.ReportsKey(userID, productID)] = cloneAll(reports)
	return nil
}

func (m *mockReportRepo) put(userID, productID string, reports ...*domain.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[repository.ReportsKey(userID, productID)] = cloneAll(reports)
}

func (m *mockReportRepo) get(userID, productID string) []*domain.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.data[repository.ReportsKey(userID, productID)])
}

type mockReportClient struct {
	mu sync.Mutex

	remote    []domain.RemoteReport
	listErr   error
	listDelay time.Duration
	listCalls int

	createResp *domain.RemoteReport
	createErr  error
	created    []domain.ReportPayload

	updateErr error
	updated   map[string]domain.ReportPayload

	deleteErr error
	deleted   []string
}

func newMockReportClient() *mockReportClient {
	return &mockReportClient{updated: make(map[string]domain.ReportPayload)}
}

func (m *mockReportClient) ListMine(ctx context.Context) ([]domain.RemoteReport, error) {
	m.mu.Lock()
	m.listCalls++
	delay := m.listDelay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.RemoteReport(nil), m.remote...), nil
}

func (m *mockReportClient) Create(ctx context.Context, payload domain.ReportPayload) (*domain.RemoteReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, payload)
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createResp != nil {
		return m.createResp, nil
	}
	return &domain.RemoteReport{}, nil
}

func (m *mockReportClient) Update(ctx context.Context, serverID string, payload domain.ReportPayload) (*domain.RemoteReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated[serverID] = payload
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &domain.RemoteReport{ReportID: domain.RemoteID(serverID)}, nil
}

func (m *mockReportClient) Delete(ctx context.Context, serverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, serverID)
	return m.deleteErr
}

type mockNotifier struct {
	mu     sync.Mutex
	events []string
}

func (m *mockNotifier) NotifyReportsChanged(userID, productID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, userID+":"+productID+":"+reason)
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

var errOffline = &domain.NetworkError{Op: "list reports", Err: errors.New("dial tcp: connection refused")}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
