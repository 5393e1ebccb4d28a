package repository

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"fieldsync/internal/domain"
	"fieldsync/internal/logger"
	"fieldsync/internal/storage"
)

const profileKey = "userProfile"

type ProfileRepository interface {
	Load(ctx context.Context) (*domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
}

type profileRepository struct {
	store storage.Store
}

func NewProfileRepository(store storage.Store) ProfileRepository {
	return &profileRepository{store: store}
}

func (r *profileRepository) Load(ctx context.Context) (*domain.Profile, error) {
	raw, ok, err := r.store.Get(ctx, profileKey)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: profileKey, Err: err}
	}
	profile := &domain.Profile{}
	if !ok {
		return profile, nil
	}
	if err := json.Unmarshal([]byte(raw), profile); err != nil {
		logger.Log.Warn("discarding unreadable profile", zap.Error(err))
		return &domain.Profile{}, nil
	}
	return profile, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return &domain.StorageError{Op: "encode", Key: profileKey, Err: err}
	}
	if err := r.store.Set(ctx, profileKey, string(data)); err != nil {
		return &domain.StorageError{Op: "save", Key: profileKey, Err: err}
	}
	return nil
}
