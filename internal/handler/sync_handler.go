package handler

import (
	"net/http"

	"fieldsync/internal/middleware"
	"fieldsync/internal/service"
	"fieldsync/pkg/response"
)

type SyncHandler struct {
	syncService *service.SyncService
}

func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// Sync runs a reconciliation pass. A failed fetch is still a 200: the body
// carries synced=false, the banner text and the local reports.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	product, ok := productFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.syncService.Sync(r.Context(), middleware.GetUserID(r), product.ID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}
