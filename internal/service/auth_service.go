package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fieldsync/internal/domain"
	"fieldsync/internal/logger"
	"fieldsync/internal/repository"
	"fieldsync/pkg/jwt"
	"fieldsync/pkg/validate"
)

type AuthClient interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Register(ctx context.Context, req *domain.RegisterRequest) error
}

type AuthService struct {
	client    AuthClient
	credRepo  repository.CredentialRepository
	validator *validate.Validator
	now       func() time.Time
}

func NewAuthService(client AuthClient, credRepo repository.CredentialRepository, validator *validate.Validator) *AuthService {
	return &AuthService{
		client:    client,
		credRepo:  credRepo,
		validator: validator,
		now:       time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	req.UserName = strings.TrimSpace(req.UserName)
	if err := s.client.Register(ctx, req); err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	return nil
}

// Login authenticates against the remote service and stores the token and
// user identifier. The identifier comes from the response body, or from the
// token's claims when the body has none.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	req.UserName = strings.TrimSpace(req.UserName)

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		UserID:   resp.Identifier(),
		UserName: resp.UserName,
		FullName: resp.FullName,
		Token:    resp.Token,
	}
	if claims, err := jwt.ParseClaims(resp.Token); err == nil {
		if session.UserID == "" {
			session.UserID = claims.UserID
		}
		if session.UserName == "" {
			session.UserName = claims.UserName
		}
	}
	if session.UserName == "" {
		session.UserName = req.UserName
	}
	if session.UserID == "" {
		return nil, &domain.AuthError{Op: "login", Message: "server did not identify the user"}
	}

	if err := s.credRepo.Save(ctx, session.Token, session.UserID); err != nil {
		return nil, err
	}

	logger.Log.Info("user logged in", zap.String("user_id", session.UserID))
	return session, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.credRepo.Clear(ctx)
}

// Current returns the stored session. It fails with *domain.AuthError when
// nobody is logged in or the token's expiry has passed.
func (s *AuthService) Current(ctx context.Context) (*domain.Session, error) {
	userID, err := s.credRepo.UserID(ctx)
	if err != nil {
		return nil, err
	}
	token, err := s.credRepo.Token(ctx)
	if err != nil {
		return nil, err
	}
	if userID == "" || token == "" {
		return nil, &domain.AuthError{Op: "session", Message: "User not found. Please login again."}
	}

	session := &domain.Session{UserID: userID, Token: token}
	if claims, err := jwt.ParseClaims(token); err == nil {
		if claims.Expired(s.now()) {
			return nil, &domain.AuthError{Op: "session", Message: "Your session has expired. Please login again."}
		}
		session.UserName = claims.UserName
	}
	return session, nil
}
