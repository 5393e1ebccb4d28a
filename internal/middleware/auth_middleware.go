package middleware

import (
	"context"
	"net/http"

	"fieldsync/internal/domain"
	"fieldsync/pkg/response"
)

type contextKey string

const (
	UserIDKey  contextKey = "userID"
	SessionKey contextKey = "session"
)

type SessionSource interface {
	Current(ctx context.Context) (*domain.Session, error)
}

// AuthMiddleware requires a stored login session. The agent serves a single
// device user, so the session comes from the credential store rather than
// the request.
func AuthMiddleware(sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessions.Current(r.Context())
			if err != nil {
				response.FromError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, session.UserID)
			ctx = context.WithValue(ctx, SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

func GetSession(r *http.Request) *domain.Session {
	session, _ := r.Context().Value(SessionKey).(*domain.Session)
	return session
}
