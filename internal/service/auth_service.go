package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"genesis-api/internal/model"
	"genesis-api/internal/validation"
	"genesis-api/pkg/apierror"
	"genesis-api/pkg/identity"
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	Count(ctx context.Context) (int, error)
}

type TokenIssuer interface {
	Issue(user model.User) (string, time.Time, error)
}

// AuthService implements sign-up and sign-in for embedded auth mode.
type AuthService struct {
	users  UserStore
	issuer TokenIssuer
	cost   int
}

func NewAuthService(users UserStore, issuer TokenIssuer) *AuthService {
	return &AuthService{users: users, issuer: issuer, cost: 12}
}

func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.TokenResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return model.TokenResponse{}, err
	}

	name := req.Name
	if name == "" {
		name = req.Email
	}

	user, err := s.createUser(ctx, req.Email, name, req.Password, []string{identity.RoleUser})
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return model.TokenResponse{}, apierror.New(apierror.CodeConflict, "Email is already registered", map[string]any{"field": "email"})
	}
	if err != nil {
		return model.TokenResponse{}, err
	}

	slog.Info("user signed up", "user_id", user.ID)
	return s.tokenFor(user)
}

func (s *AuthService) Signin(ctx context.Context, req model.SigninRequest) (model.TokenResponse, error) {
	invalid := apierror.New(apierror.CodeUnauthorized, "Invalid email or password", nil)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return model.TokenResponse{}, invalid
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenResponse{}, invalid
	}
	if err != nil {
		return model.TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.TokenResponse{}, invalid
	}

	return s.tokenFor(user)
}

// EnsureAdmin creates the bootstrap admin account when no account with that email exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Struct(model.SignupRequest{Email: email, Password: password}); err != nil {
		return fmt.Errorf("admin account: %w", err)
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		s.logUserCount(ctx)
		return nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return err
	}

	user, err := s.createUser(ctx, email, "Administrator", password, []string{identity.RoleAdmin, identity.RoleUser})
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("admin account created", "user_id", user.ID, "email", user.Email)
	s.logUserCount(ctx)
	return nil
}

func (s *AuthService) logUserCount(ctx context.Context) {
	count, err := s.users.Count(ctx)
	if err != nil {
		slog.Warn("count users failed", "error", err)
		return
	}
	slog.Info("user store ready", "users", count)
}

func (s *AuthService) createUser(ctx context.Context, email, name, password string, roles []string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) tokenFor(user model.User) (model.TokenResponse, error) {
	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return model.TokenResponse{}, err
	}

	return model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Round(time.Second).Seconds()),
		User:        user,
	}, nil
}
