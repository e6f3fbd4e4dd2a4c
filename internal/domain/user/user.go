package user

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	MinPasswordLen = 8
	// bcrypt refuses longer input
	MaxPasswordBytes = 72
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbiddenField     = errors.New("field cannot be updated through this route")
	ErrInvalidName        = errors.New("name must not be empty")
	ErrInvalidEmail       = errors.New("email must be a valid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

var validate = validator.New()

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the PATCH /api/auth/me body. Email and Password are
// decoded only so they can be rejected; unknown keys are dropped by the decoder.
type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=120"`
	Avatar   *string `json:"avatar" binding:"omitempty,url,max=2048"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Profile holds the only fields a profile update is allowed to change.
type Profile struct {
	Name   *string
	Avatar *string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email, already normalized, is a usable address.
func ValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// ValidatePassword checks the length rules. The minimum counts characters;
// the maximum counts bytes, which is what bcrypt hashes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func New(name, email, passwordHash string) User {
	now := time.Now().UTC()

	return User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
