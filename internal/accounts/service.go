// Package accounts is the credential store: registration, password login and
// profile updates on top of a user repository.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/taskhub/internal/domain/user"
)

type Store interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, p user.Profile) (user.User, error)
}

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) error
	Burn(plain string)
}

type Service struct {
	store  Store
	hasher PasswordHasher
}

func NewService(store Store, hasher PasswordHasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// Register creates a user. The email is lower-cased before the uniqueness
// check, so "Ana@X.com" and "ana@x.com" collide. Format and password length
// are checked here as well as at the HTTP boundary, since the seed user
// arrives without one.
func (s *Service) Register(ctx context.Context, name, email, password string) (user.User, error) {
	if strings.TrimSpace(name) == "" {
		return user.User{}, user.ErrInvalidName
	}

	email = user.NormalizeEmail(email)
	if !user.ValidEmail(email) {
		return user.User{}, user.ErrInvalidEmail
	}

	if err := user.ValidatePassword(password); err != nil {
		return user.User{}, err
	}

	_, err := s.store.GetByEmail(ctx, email)
	if err == nil {
		return user.User{}, user.ErrEmailTaken
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return user.User{}, err
	}

	// the store enforces uniqueness too, for the race between lookup and insert
	created, err := s.store.Create(ctx, user.New(name, email, hash))
	if err != nil {
		return user.User{}, err
	}

	created.PasswordHash = ""

	return created, nil
}

// Authenticate returns user.ErrInvalidCredentials both for an unknown email and
// for a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.store.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Burn(password)
			return user.User{}, user.ErrInvalidCredentials
		}
		return user.User{}, fmt.Errorf("lookup email: %w", err)
	}

	if err := s.hasher.CheckPassword(u.PasswordHash, password); err != nil {
		return user.User{}, user.ErrInvalidCredentials
	}

	u.PasswordHash = ""

	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (user.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	u.PasswordHash = ""

	return u, nil
}

// UpdateProfile applies name and avatar only. Email or password in the request
// is rejected; anything else the client sent never reaches this point.
func (s *Service) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	if req.Email != nil || req.Password != nil {
		return user.User{}, user.ErrForbiddenField
	}

	var p user.Profile

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return user.User{}, user.ErrInvalidName
		}
		p.Name = &name
	}

	if req.Avatar != nil {
		avatar := strings.TrimSpace(*req.Avatar)
		p.Avatar = &avatar
	}

	u, err := s.store.UpdateProfile(ctx, id, p)
	if err != nil {
		return user.User{}, err
	}

	u.PasswordHash = ""

	return u, nil
}
