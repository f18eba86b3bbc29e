package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository"
	"github.com/jwalitptl/clinic-dashboard/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-dashboard/pkg/errors"
	"github.com/jwalitptl/clinic-dashboard/pkg/security"
)

var (
	ErrNoSuchUser    = errors.New("no such user")
	ErrWrongPassword = errors.New("wrong password")
)

// Flash returns the text shown on the login form for an Authenticate error.
func Flash(err error) string {
	switch {
	case errors.Is(err, ErrNoSuchUser):
		return "No such user."
	case errors.Is(err, ErrWrongPassword):
		return "Wrong password."
	}
	return "Login failed."
}

type Service struct {
	users    repository.UserRepository
	hasher   security.PasswordHasher
	sessions auth.SessionService
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, sessions auth.SessionService) *Service {
	return &Service{users: users, hasher: hasher, sessions: sessions}
}

// NormalizeEmail trims and lower-cases an address the way logins and
// lookups expect.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) UserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.GetByEmail(ctx, NormalizeEmail(email))
}

// Authenticate checks an email and password pair. Hashes in an unknown
// format never match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.UserByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrNoSuchUser
		}
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrWrongPassword
	}
	return user, nil
}

// StartSession signs a session token for the identity.
func (s *Service) StartSession(id model.Identity) (string, error) {
	return s.sessions.Issue(id.GetID())
}

// ResolveSession returns the user a session token belongs to. A valid
// token for a deleted user resolves to not found.
func (s *Service) ResolveSession(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.sessions.Validate(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, err
	}
	return user, nil
}

// SetPassword stores a fresh hash for the user with email.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	n, err := s.users.UpdatePassword(ctx, NormalizeEmail(email), hash)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NewNotFound("user", nil)
	}
	return nil
}
