package auth

import (
	"context"

	"github.com/opsboard/admin-portal/internal/domain"
)

type UserManager interface {
	// GetUser returns a user by its identifier.
	GetUser(ctx context.Context, id domain.UserIdentifier) (*domain.User, error)
}

type EventBus interface {
	// Publish sends a message to the message bus.
	Publish(topic string, args ...any)
}
