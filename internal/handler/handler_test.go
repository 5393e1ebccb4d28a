package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fieldsync/internal/client"
	"fieldsync/internal/config"
	"fieldsync/internal/domain"
	"fieldsync/internal/lock"
	"fieldsync/internal/repository"
	"fieldsync/internal/service"
	"fieldsync/internal/storage"
	"fieldsync/internal/websocket"
	"fieldsync/pkg/validate"
)

// fakeRemote is an in-memory stand-in for the reporting service.
type fakeRemote struct {
	mu      sync.Mutex
	nextID  int
	reports map[string]domain.ReportPayload
	order   []string
	offline bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{nextID: 100, reports: make(map[string]domain.ReportPayload)}
}

func (f *fakeRemote) setOffline(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = v
}

func (f *fakeRemote) handler() http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			offline := f.offline
			f.mu.Unlock()
			if offline {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.HandleFunc("/api/Auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body domain.LoginRequest
		json.NewDecoder(req.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Invalid username or password"}`))
			return
		}
		w.Write([]byte(`{"token":"tok-7","userId":7,"user_name":"ada"}`))
	}).Methods("POST")

	r.HandleFunc("/api/Report/my-reports", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := make([]map[string]interface{}, 0, len(f.order))
		for _, id := range f.order {
			p := f.reports[id]
			n, _ := strconv.Atoi(id)
			out = append(out, map[string]interface{}{
				"reportId":     n,
				"productId":    p.ProductID,
				"schoolName":   p.SchoolName,
				"contactPhone": p.ContactPhone,
				"reportDate":   p.ReportDate + "T00:00:00",
			})
		}
		json.NewEncoder(w).Encode(out)
	}).Methods("GET")

	r.HandleFunc("/api/Report", func(w http.ResponseWriter, req *http.Request) {
		var p domain.ReportPayload
		json.NewDecoder(req.Body).Decode(&p)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		id := strconv.Itoa(f.nextID)
		f.reports[id] = p
		f.order = append(f.order, id)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"reportId":` + id + `}`))
	}).Methods("POST")

	r.HandleFunc("/api/Report/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		var p domain.ReportPayload
		json.NewDecoder(req.Body).Decode(&p)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.reports[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.reports[id] = p
		n, _ := strconv.Atoi(id)
		json.NewEncoder(w).Encode(map[string]interface{}{"reportId": n, "schoolName": p.SchoolName})
	}).Methods("PUT")

	r.HandleFunc("/api/Report/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.reports[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.reports, id)
		for i, o := range f.order {
			if o == id {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")

	r.HandleFunc("/api/User/profile", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"name":"Ada Obi","email":"ada@example.com"}`))
	}).Methods("GET")

	return r
}

type testAgent struct {
	server  *httptest.Server
	remote  *fakeRemote
	manager *websocket.Manager
}

func newTestAgent(t *testing.T) *testAgent {
	t.Helper()

	remote := newFakeRemote()
	remoteSrv := httptest.NewServer(remote.handler())
	t.Cleanup(remoteSrv.Close)

	store := storage.NewMemoryStore()
	credRepo := repository.NewCredentialRepository(store)
	reportRepo := repository.NewReportRepository(store)
	profileRepo := repository.NewProfileRepository(store)

	api := client.New(remoteSrv.URL, 2*time.Second, credRepo)
	validator := validate.New("NG")
	locker := lock.NewKeyedLocker()

	manager := websocket.NewManager(3, 0, time.Second, time.Minute, 50*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go manager.Run(ctx)

	authService := service.NewAuthService(api, credRepo, validator)
	syncService := service.NewSyncService(reportRepo, api, locker, manager)
	reportService := service.NewReportService(reportRepo, api, locker, validator, manager)
	profileService := service.NewProfileService(profileRepo, api, validator)
	manager.SetMessageHandler(NewWebSocketMessageHandler(syncService))

	router := NewRouter(Handlers{
		Auth:      NewAuthHandler(authService),
		Product:   NewProductHandler(),
		Report:    NewReportHandler(reportService),
		Sync:      NewSyncHandler(syncService),
		Profile:   NewProfileHandler(profileService),
		WebSocket: NewWebSocketHandler(manager, 1024, 1024),
	}, authService, config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST,PUT,DELETE", AllowedHeaders: "Content-Type"})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testAgent{server: srv, remote: remote, manager: manager}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
}

func (a *testAgent) call(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testAgent) login(t *testing.T) {
	t.Helper()
	status, env := a.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"user_name": "ada", "password": "secret"})
	require.Equal(t, http.StatusOK, status, env.Error)
}

func createBody() map[string]interface{} {
	return map[string]interface{}{
		"clientName":      "Green Valley School",
		"contactPerson":   "Mrs Ade",
		"contactPhone":    "08012345678",
		"visitDate":       "2025-03-01",
		"state":           "Lagos",
		"localGovernment": "Ikeja",
		"notes":           "Wants a demo",
	}
}

func TestAPI_RequiresLogin(t *testing.T) {
	a := newTestAgent(t)

	status, env := a.call(t, http.MethodGet, "/api/v1/products/1/reports", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User not found. Please login again.", env.Error)

	status, env = a.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"user_name": "ada", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
}

func TestAPI_ProductsArePublic(t *testing.T) {
	a := newTestAgent(t)

	status, env := a.call(t, http.MethodGet, "/api/v1/products?q=events", nil)
	require.Equal(t, http.StatusOK, status)

	var products []domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Fetem", products[0].Name)
}

func TestAPI_ReportLifecycle(t *testing.T) {
	a := newTestAgent(t)
	a.login(t)

	status, env := a.call(t, http.MethodPost, "/api/v1/products/1/reports", createBody())
	require.Equal(t, http.StatusCreated, status, env.Error)
	var created domain.ReportResult
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.Synced)
	require.NotNil(t, created.Report.ServerID)
	assert.Equal(t, "101", *created.Report.ServerID)

	status, env = a.call(t, http.MethodPost, "/api/v1/products/1/sync", nil)
	require.Equal(t, http.StatusOK, status)
	var synced domain.SyncResult
	require.NoError(t, json.Unmarshal(env.Data, &synced))
	assert.True(t, synced.Synced)
	require.Len(t, synced.Reports, 1)
	assert.Equal(t, created.Report.ID, synced.Reports[0].ID)
	assert.Equal(t, "Wants a demo", synced.Reports[0].Notes)

	status, env = a.call(t, http.MethodPut, "/api/v1/products/1/reports/"+created.Report.ID, map[string]string{"status": "Interested"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = a.call(t, http.MethodGet, "/api/v1/products/1/reports?status=Interested", nil)
	require.Equal(t, http.StatusOK, status)
	var listed []*domain.Report
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)

	status, env = a.call(t, http.MethodDelete, "/api/v1/products/1/reports/"+created.Report.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var deleted domain.ReportResult
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.True(t, deleted.Synced)

	status, _ = a.call(t, http.MethodGet, "/api/v1/products/1/reports/"+created.Report.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_OfflineSyncReturnsLocalData(t *testing.T) {
	a := newTestAgent(t)
	a.login(t)
	a.remote.setOffline(true)

	status, env := a.call(t, http.MethodPost, "/api/v1/products/2/reports", createBody())
	require.Equal(t, http.StatusCreated, status, env.Error)
	var created domain.ReportResult
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.False(t, created.Synced)
	assert.NotEmpty(t, created.RemoteError)

	status, env = a.call(t, http.MethodPost, "/api/v1/products/2/sync", nil)
	require.Equal(t, http.StatusOK, status)
	var result domain.SyncResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Synced)
	assert.NotEmpty(t, result.Error)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, created.Report.ID, result.Reports[0].ID)
}

func TestAPI_ValidationAndUnknownProduct(t *testing.T) {
	a := newTestAgent(t)
	a.login(t)

	body := createBody()
	body["contactPhone"] = "12"
	status, env := a.call(t, http.MethodPost, "/api/v1/products/1/reports", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please enter a valid phone number.", env.Error)
	assert.Equal(t, "contactPhone", env.Field)

	status, _ = a.call(t, http.MethodGet, "/api/v1/products/9/reports", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.call(t, http.MethodGet, "/api/v1/products/1/reports?sort=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_Export(t *testing.T) {
	a := newTestAgent(t)
	a.login(t)
	status, env := a.call(t, http.MethodPost, "/api/v1/products/3/reports", createBody())
	require.Equal(t, http.StatusCreated, status, env.Error)

	resp, err := http.Get(a.server.URL + "/api/v1/products/3/reports/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "adfelt-reports-")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Reports")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Green Valley School", rows[1][0])
}

func TestAPI_ProfileRefresh(t *testing.T) {
	a := newTestAgent(t)
	a.login(t)

	status, env := a.call(t, http.MethodPost, "/api/v1/profile/refresh", nil)
	require.Equal(t, http.StatusOK, status)
	var result domain.ProfileResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Synced)

	status, env = a.call(t, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, status)
	var profile domain.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Ada Obi", profile.Name)
}

func TestAPI_WebSocketNotifications(t *testing.T) {
	a := newTestAgent(t)
	a.login(t)

	url := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/ws"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return a.manager.GetUserConnections("7") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    "sync_request",
		"payload": map[string]string{"product_id": "1"},
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	seen := map[websocket.MessageType]bool{}
	for !seen[websocket.TypeReportsChanged] || !seen[websocket.TypeSyncResult] {
		var msg websocket.Message
		require.NoError(t, conn.ReadJSON(&msg))
		seen[msg.Type] = true
	}
}
