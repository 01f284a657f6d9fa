package postgres

import (
	"context"
	"errors"

	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgresUserRepo relies on the unique index on users.email to settle
// concurrent registrations; there is no application-level lock.
type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (p *PostgresUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	res := p.db.WithContext(ctx).Create(user)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "CreateUser")
	}
	return nil
}

func (p *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("email = ?", email).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByEmail")
	}

	return u, nil
}

func (p *PostgresUserRepo) GetUserByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByID")
	}

	return u, nil
}

func (p *PostgresUserRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdatePasswordHash")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}

// isUniqueViolation covers both the raw postgres error and gorm's translated
// form (TranslateError: true), which is what the sqlite driver yields.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
