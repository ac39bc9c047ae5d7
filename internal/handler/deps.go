package handler

import (
	"context"
	"time"

	"github.com/iliyamo/user-auth-service/internal/model"
)

// The interfaces below describe the slices of the repository layer the
// handlers consume. The concrete implementations live in
// internal/repository; tests substitute in-memory fakes.

// UserStore provides access to user records.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string, termsAccepted bool) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	MarkVerified(ctx context.Context, id uint64) error
	SetPassword(ctx context.Context, id uint64, passwordHash string) error
	UpdateProfile(ctx context.Context, id uint64, username, email string) (model.User, error)
}

// SessionStore persists and revokes issued session tokens.
type SessionStore interface {
	Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Revoke(ctx context.Context, tokenHash string, userID uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// RoleStore manages roles and user↔role assignments.
type RoleStore interface {
	Create(ctx context.Context, name, description string) (model.Role, error)
	GetByName(ctx context.Context, name string) (model.Role, error)
	Assign(ctx context.Context, userID, roleID uint64) error
	RolesOf(ctx context.Context, userID uint64) ([]string, error)
}

// Notifier dispatches outbound email. The production implementation
// publishes events to RabbitMQ and never blocks on actual SMTP delivery.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, link string) error
	SendPasswordResetEmail(ctx context.Context, to, link string) error
}
