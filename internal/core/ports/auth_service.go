package ports

import (
	"context"

	"github.com/storefront/logistics/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password, email, role, vendorID string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}
