package repository

import (
	"context"
	"encoding/json"
	"strings"

	"fieldsync/internal/domain"
	"fieldsync/internal/storage"
)

const (
	tokenKey    = "token"
	userIDKey   = "user_id"
	userBlobKey = "user"
)

// CredentialRepository holds the bearer token and the current user's
// identifier. Absence is not an error: both come back empty.
type CredentialRepository interface {
	Token(ctx context.Context) (string, error)
	UserID(ctx context.Context) (string, error)
	Save(ctx context.Context, token, userID string) error
	Clear(ctx context.Context) error
}

type credentialRepository struct {
	store storage.Store
}

func NewCredentialRepository(store storage.Store) CredentialRepository {
	return &credentialRepository{store: store}
}

func (r *credentialRepository) Token(ctx context.Context) (string, error) {
	v, _, err := r.store.Get(ctx, tokenKey)
	if err != nil {
		return "", &domain.StorageError{Op: "load", Key: tokenKey, Err: err}
	}
	return v, nil
}

// UserID falls back to the "user" object older clients stored, and
// promotes what it finds to user_id.
func (r *credentialRepository) UserID(ctx context.Context) (string, error) {
	v, ok, err := r.store.Get(ctx, userIDKey)
	if err != nil {
		return "", &domain.StorageError{Op: "load", Key: userIDKey, Err: err}
	}
	if ok && v != "" {
		return v, nil
	}

	raw, ok, err := r.store.Get(ctx, userBlobKey)
	if err != nil {
		return "", &domain.StorageError{Op: "load", Key: userBlobKey, Err: err}
	}
	if !ok {
		return "", nil
	}

	var user struct {
		ID     domain.RemoteID `json:"id"`
		UserID domain.RemoteID `json:"user_id"`
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", nil
	}
	id := strings.TrimSpace(user.ID.String())
	if id == "" {
		id = strings.TrimSpace(user.UserID.String())
	}
	if id == "" {
		return "", nil
	}
	if err := r.store.Set(ctx, userIDKey, id); err != nil {
		return "", &domain.StorageError{Op: "save", Key: userIDKey, Err: err}
	}
	return id, nil
}

func (r *credentialRepository) Save(ctx context.Context, token, userID string) error {
	if err := r.store.Set(ctx, tokenKey, token); err != nil {
		return &domain.StorageError{Op: "save", Key: tokenKey, Err: err}
	}
	if userID != "" {
		if err := r.store.Set(ctx, userIDKey, userID); err != nil {
			return &domain.StorageError{Op: "save", Key: userIDKey, Err: err}
		}
	}
	return nil
}

func (r *credentialRepository) Clear(ctx context.Context) error {
	for _, key := range []string{tokenKey, userIDKey, userBlobKey} {
		if err := r.store.Remove(ctx, key); err != nil {
			return &domain.StorageError{Op: "remove", Key: key, Err: err}
		}
	}
	return nil
}
