package processor

import (
	"context"

	"autosales/internal/store"

	"github.com/google/uuid"
)

// AuthStore defines the database operations required by AuthProcessor
type AuthStore interface {
	CheckIfEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, params store.CreateUserParams) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (store.User, error)
}

// Mailer defines the email operations required by AuthProcessor
type Mailer interface {
	SendEmail(ctx context.Context, from, to, subject, htmlContent string) (string, error)
}
