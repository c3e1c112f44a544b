package interfaces

import (
	"context"

	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
)

type AccountRepository interface {
	// Create account. Returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, account *auth_models.Account) (*auth_models.Account, error)

	// Read accounts. Single lookups return ErrNotFound.
	GetByID(ctx context.Context, accountID string) (*auth_models.Account, error)
	GetByEmail(ctx context.Context, email string) (*auth_models.Account, error)
	GetAll(ctx context.Context) ([]*auth_models.Account, error)
	GetByRole(ctx context.Context, role auth_models.Role) ([]*auth_models.Account, error)
	CountByRole(ctx context.Context, role auth_models.Role) (int64, error)

	// Update account
	Update(ctx context.Context, account *auth_models.Account) error

	// Delete account
	Delete(ctx context.Context, accountID string) error
}
