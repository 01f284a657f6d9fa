package repo

import (
	"context"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
)

// UserRepo is the identity store. CreateUser must report a duplicate email as
// errors.ErrAlreadyExists; lookups report a miss as errors.ErrNotFound.
type UserRepo interface {
	CreateUser(ctx context.Context, u *model.User) error

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id uint64) (model.User, error)

	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
}

// PasswordHasher is a one-way function with verify.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
	NeedsRehash(hash string) bool
}
