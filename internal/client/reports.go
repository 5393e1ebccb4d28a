package client

import (
	"context"
	"net/http"
	"net/url"

	"fieldsync/internal/domain"
)

func (c *Client) ListMine(ctx context.Context) ([]domain.RemoteReport, error) {
	var list listEnvelope
	if err := c.do(ctx, "list reports", http.MethodGet, "/api/Report/my-reports", nil, &list, "reports", "mine"); err != nil {
		return nil, err
	}
	if list.items == nil {
		return []domain.RemoteReport{}, nil
	}
	return list.items, nil
}

// Create returns the server's echo of the record. The reportId in it may be
// empty if the server did not assign one.
func (c *Client) Create(ctx context.Context, payload domain.ReportPayload) (*domain.RemoteReport, error) {
	var out domain.RemoteReport
	if err := c.do(ctx, "create report", http.MethodPost, "/api/Report", payload, &out, "report", payload.ReportID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, serverID string, payload domain.ReportPayload) (*domain.RemoteReport, error) {
	var out domain.RemoteReport
	path := "/api/Report/" + url.PathEscape(serverID)
	if err := c.do(ctx, "update report", http.MethodPut, path, payload, &out, "report", serverID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, serverID string) error {
	path := "/api/Report/" + url.PathEscape(serverID)
	return c.do(ctx, "delete report", http.MethodDelete, path, nil, nil, "report", serverID)
}
