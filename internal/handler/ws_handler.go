package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fieldsync/internal/domain"
	"fieldsync/internal/logger"
	"fieldsync/internal/middleware"
	"fieldsync/internal/service"
	"fieldsync/internal/websocket"
)

type WebSocketHandler struct {
	manager  *websocket.Manager
	upgrader ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager, readBufferSize, writeBufferSize int) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			// The agent listens on the device only; the app's web view has
			// no stable origin.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection upgrades a UI connection for the logged-in user. The
// route sits behind AuthMiddleware.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("failed to upgrade websocket", zap.Error(err))
		return
	}

	client := websocket.NewClient(uuid.New().String(), userID, conn, h.manager)
	if !h.manager.AddClient(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

type WebSocketMessageHandler struct {
	syncService *service.SyncService
}

func NewWebSocketMessageHandler(syncService *service.SyncService) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{syncService: syncService}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeSyncRequest:
		return h.handleSyncRequest(ctx, client, msg)

	case websocket.TypePing:
		return reply(client, websocket.TypePong, nil)

	default:
		logger.Log.Debug("unknown websocket message type", zap.String("type", string(msg.Type)))
	}

	return nil
}

func (h *WebSocketMessageHandler) handleSyncRequest(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.SyncRequestPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return reply(client, websocket.TypeError, &websocket.ErrorPayload{Message: "invalid sync request"})
	}
	if _, ok := domain.FindProduct(payload.ProductID); !ok {
		return reply(client, websocket.TypeError, &websocket.ErrorPayload{Message: "Product not found"})
	}

	result, err := h.syncService.Sync(ctx, client.UserID, payload.ProductID)
	if err != nil {
		logger.Log.Error("websocket sync failed", zap.String("product_id", payload.ProductID), zap.Error(err))
		return reply(client, websocket.TypeError, &websocket.ErrorPayload{Message: "Failed to save reports on this device."})
	}

	return reply(client, websocket.TypeSyncResult, result)
}

func reply(client *websocket.Client, msgType websocket.MessageType, payload interface{}) error {
	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return client.Manager.SendToClient(client.ID, msg)
}
