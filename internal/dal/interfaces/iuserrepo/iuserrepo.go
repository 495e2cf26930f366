package iuserrepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/shoplane/order/internal/service/models/user"
)

// IUserRepository supplies owner projections for order reads.
type IUserRepository interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error)
}
