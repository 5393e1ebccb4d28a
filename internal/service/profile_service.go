package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"fieldsync/internal/domain"
	"fieldsync/internal/logger"
	"fieldsync/internal/repository"
	"fieldsync/pkg/validate"
)

type ProfileClient interface {
	GetProfile(ctx context.Context) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, profile *domain.Profile) error
}

type ProfileService struct {
	profileRepo repository.ProfileRepository
	client      ProfileClient
	validator   *validate.Validator
}

func NewProfileService(profileRepo repository.ProfileRepository, client ProfileClient, validator *validate.Validator) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		client:      client,
		validator:   validator,
	}
}

func (s *ProfileService) Get(ctx context.Context) (*domain.Profile, error) {
	return s.profileRepo.Load(ctx)
}

// Update saves the profile on the device, then pushes it best effort.
func (s *ProfileService) Update(ctx context.Context, req *domain.UpdateProfileRequest) (*domain.ProfileResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
		Image: strings.TrimSpace(req.Image),
		Bio:   strings.TrimSpace(req.Bio),
	}
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, err
	}

	result := &domain.ProfileResult{Profile: profile}
	if err := s.client.UpdateProfile(ctx, profile); err != nil {
		result.RemoteError, result.AuthRequired = remoteFailure(err)
		logger.Log.Warn("profile saved locally, remote update failed", zap.Error(err))
		return result, nil
	}
	result.Synced = true
	return result, nil
}

// Refresh replaces the cached profile with the server's copy. On failure the
// cached profile is returned unchanged.
func (s *ProfileService) Refresh(ctx context.Context) (*domain.ProfileResult, error) {
	remote, err := s.client.GetProfile(ctx)
	if err != nil {
		cached, loadErr := s.profileRepo.Load(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		result := &domain.ProfileResult{Profile: cached}
		result.RemoteError, result.AuthRequired = remoteFailure(err)
		logger.Log.Warn("profile refresh failed", zap.Error(err))
		return result, nil
	}

	if err := s.profileRepo.Save(ctx, remote); err != nil {
		return nil, err
	}
	return &domain.ProfileResult{Profile: remote, Synced: true}, nil
}
