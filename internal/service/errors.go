package service

import (
	"context"

	"fieldsync/internal/domain"
)

// ReportClient is the remote side of report storage.
type ReportClient interface {
	ListMine(ctx context.Context) ([]domain.RemoteReport, error)
	Create(ctx context.Context, payload domain.ReportPayload) (*domain.RemoteReport, error)
	Update(ctx context.Context, serverID string, payload domain.ReportPayload) (*domain.RemoteReport, error)
	Delete(ctx context.Context, serverID string) error
}

// ChangeNotifier is told whenever a report sequence was rewritten.
type ChangeNotifier interface {
	NotifyReportsChanged(userID, productID, reason string)
}

// remoteFailure turns a best-effort remote error into the banner text the
// UI shows, and whether the user must log in again.
func remoteFailure(err error) (string, bool) {
	switch {
	case domain.IsAuth(err):
		return "Your session has expired. Please login again.", true
	case domain.IsNetwork(err):
		return "Could not reach the server. Changes are saved on this device and will sync later.", false
	case domain.IsNotFound(err):
		return "The server no longer has this report.", false
	default:
		return err.Error(), false
	}
}
