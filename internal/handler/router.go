package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"fieldsync/internal/config"
	"fieldsync/internal/middleware"
)

type Handlers struct {
	Auth      *AuthHandler
	Product   *ProductHandler
	Report    *ReportHandler
	Sync      *SyncHandler
	Profile   *ProfileHandler
	WebSocket *WebSocketHandler
}

// NewRouter mounts the local agent API. Everything but login, register,
// the product catalog and /health requires a stored session.
func NewRouter(h Handlers, sessions middleware.SessionSource, cors config.CORSConfig) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cors.AllowedOrigins,
		cors.AllowedMethods,
		cors.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", h.Auth.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", h.Auth.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods("POST", "OPTIONS")
	api.HandleFunc("/products", h.Product.List).Methods("GET", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(sessions))

	protected.HandleFunc("/auth/me", h.Auth.Me).Methods("GET", "OPTIONS")

	protected.HandleFunc("/products/{productId}/reports", h.Report.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/products/{productId}/reports", h.Report.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/products/{productId}/reports/export", h.Report.Export).Methods("GET", "OPTIONS")
	protected.HandleFunc("/products/{productId}/reports/{id}", h.Report.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/products/{productId}/reports/{id}", h.Report.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/products/{productId}/reports/{id}", h.Report.Delete).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/products/{productId}/sync", h.Sync.Sync).Methods("POST", "OPTIONS")

	protected.HandleFunc("/profile", h.Profile.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/profile", h.Profile.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/profile/refresh", h.Profile.Refresh).Methods("POST", "OPTIONS")

	r.Handle("/ws", middleware.AuthMiddleware(sessions)(http.HandlerFunc(h.WebSocket.HandleConnection)))

	r.HandleFunc("/health", healthHandler).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"fieldsync-agent"}`))
}
