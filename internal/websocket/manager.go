package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"fieldsync/internal/logger"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// Manager tracks the UI connections per user and fans change notifications
// out to them.
type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	done           chan struct{}
	maxConnPerUser int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	messageHandler MessageHandler
}

type MessageHandler interface {
	HandleWebSocketMessage(ctx context.Context, client *Client, msg *Message) error
}

func NewManager(maxConnPerUser int, maxMessageSize int64, writeWait, pongWait, pingPeriod time.Duration) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		done:           make(chan struct{}),
		maxConnPerUser: maxConnPerUser,
		maxMessageSize: maxMessageSize,
		writeWait:      writeWait,
		pongWait:       pongWait,
		pingPeriod:     pingPeriod,
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

// Run serves the register, unregister and message channels until ctx is
// cancelled, then closes every remaining connection.
func (m *Manager) Run(ctx context.Context) {
	defer m.closeAll()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			// Sync requests take a full pass; keep the loop free for
			// register and unregister meanwhile.
			go m.processMessage(ctx, clientMsg)
		}
	}
}

func (m *Manager) closeAll() {
	close(m.done)
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()
	for id, client := range m.clients {
		close(client.Send)
		delete(m.clients, id)
	}
	m.userIndex = make(map[string]map[string]bool)
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	if m.maxConnPerUser > 0 && len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		logger.Log.Warn("max websocket connections reached", zap.String("user_id", client.UserID))
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	logger.Log.Debug("websocket client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
	)
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.userIndex[client.UserID], client.ID)

		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}

		close(client.Send)
		logger.Log.Debug("websocket client unregistered", zap.String("client_id", client.ID))
	}
}

func (m *Manager) processMessage(ctx context.Context, clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		logger.Log.Warn("unreadable websocket message", zap.Error(err))
		return
	}

	if m.messageHandler != nil {
		if err := m.messageHandler.HandleWebSocketMessage(ctx, clientMsg.Client, &msg); err != nil {
			logger.Log.Warn("websocket message failed",
				zap.String("type", string(msg.Type)),
				zap.Error(err),
			)
		}
	}
}

func (m *Manager) BroadcastToUser(userID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var slow []*Client
	m.clientsMutex.RLock()
	for clientID := range m.userIndex[userID] {
		client := m.clients[clientID]
		select {
		case client.Send <- messageBytes:
		default:
			slow = append(slow, client)
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range slow {
		logger.Log.Warn("websocket send buffer full, closing connection", zap.String("client_id", client.ID))
		go m.drop(client)
	}
	return nil
}

func (m *Manager) drop(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

// AddClient hands the client to Run. It reports false once the manager has
// shut down, in which case the caller owns the connection.
func (m *Manager) AddClient(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) dispatch(clientMsg *ClientMessage) bool {
	select {
	case m.HandleMessage <- clientMsg:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		logger.Log.Warn("websocket send buffer full", zap.String("client_id", clientID))
	}
	return nil
}

func (m *Manager) GetUserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if clients, exists := m.userIndex[userID]; exists {
		return len(clients)
	}
	return 0
}

// NotifyReportsChanged tells every UI connection of the user to re-read the
// product's reports.
func (m *Manager) NotifyReportsChanged(userID, productID, reason string) {
	msg, err := NewMessage(TypeReportsChanged, &ReportsChangedPayload{
		ProductID: productID,
		Reason:    reason,
	})
	if err != nil {
		logger.Log.Error("failed to build change notification", zap.Error(err))
		return
	}
	if err := m.BroadcastToUser(userID, msg); err != nil {
		logger.Log.Error("failed to broadcast change notification", zap.Error(err))
	}
}
