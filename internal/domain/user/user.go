package user

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role represents a user role.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
)

// Status represents user status.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDisabled Status = "DISABLED"
)

// User represents an admin or moderator account. Fan identities are
// opaque owner references on approval records and never log in here.
type User struct {
	ID           int64     `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]{2,30}[A-Za-z0-9]$`)

func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 4-32 chars, start with a letter, and contain only letters, digits, '.', '_' or '-'")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash string, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func ValidateRole(role Role) error {
	switch role {
	case RoleAdmin, RoleModerator:
		return nil
	default:
		return errors.New("invalid role")
	}
}
