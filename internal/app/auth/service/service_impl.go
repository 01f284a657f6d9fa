package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	repo "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/repo"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.Session, error)
	Login(context.Context, dto.LoginDTO) (model.Session, error)
	Refresh(context.Context, dto.RefreshDTO) (model.Session, error)
	Validate(context.Context, dto.ValidateDTO) (model.User, error)
}

type authService struct {
	userRepo repo.UserRepo
	hasher   repo.PasswordHasher
	jwtUtil  jwt.JWTUtil
	v        *validator.Validate
	log      *zap.Logger

	// decoy is verified against when the email is unknown so that a miss
	// costs the same as a wrong password.
	decoyOnce sync.Once
	decoy     string
}

func New(
	ur repo.UserRepo,
	h repo.PasswordHasher,
	jm jwt.JWTUtil,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	if log == nil {
		log = zap.NewNop()
	}
	if err := dto.RegisterValidations(v); err != nil {
		log.Error("register dto validations", zap.Error(err))
	}
	return &authService{
		userRepo: ur, hasher: h, jwtUtil: jm, v: v, log: log,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.Session, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Session{}, customErrors.NewInvalidArgument(err.Error())
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if customErrors.IsInvalidArgument(err) {
		return model.Session{}, err
	}
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		Email:        in.Email,
		PasswordHash: passwordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err = a.userRepo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.Session{}, customErrors.ErrAlreadyExists
		}
		return model.Session{}, customErrors.WrapInternal(err, "Register")
	}

	return a.issueSession(user)
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.Session, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Session{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		a.burnDecoy(in.Password)
		return model.Session{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := a.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.Session{}, customErrors.ErrInvalidCredentials
	}

	if a.hasher.NeedsRehash(user.PasswordHash) {
		a.rehash(ctx, user.ID, in.Password)
	}

	return a.issueSession(user)
}

// Refresh treats a missing token like any other bad token.
func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.Session, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Session{}, customErrors.ErrInvalidToken
	}

	user, err := a.userFromToken(ctx, in.RefreshToken)
	if err != nil {
		return model.Session{}, err
	}

	// The presented refresh token stays valid until it expires on its own.
	return a.issueSession(user)
}

func (a *authService) Validate(ctx context.Context, in dto.ValidateDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}
	return a.userFromToken(ctx, in.AccessToken)
}

// userFromToken verifies raw and loads its subject. Every token problem,
// including a subject that no longer exists, becomes ErrInvalidToken.
func (a *authService) userFromToken(ctx context.Context, raw string) (model.User, error) {
	res := a.jwtUtil.Verify(raw)
	if !res.Valid {
		a.log.Debug("token rejected", zap.Stringer("reason", res.Reason))
		return model.User{}, customErrors.ErrInvalidToken
	}

	uid, err := res.Claims.UserID()
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		a.log.Debug("token subject gone", zap.Uint64("user_id", uid))
		return model.User{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "GetUserByID")
	}
	return user, nil
}

func (a *authService) issueSession(user model.User) (model.Session, error) {
	pair, err := a.jwtUtil.Issue(user)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Issue")
	}
	return model.Session{TokenPair: pair, User: user.Profile()}, nil
}

func (a *authService) rehash(ctx context.Context, id uint64, password string) {
	hash, err := a.hasher.Hash(password)
	if err != nil {
		a.log.Warn("rehash failed", zap.Uint64("user_id", id), zap.Error(err))
		return
	}
	if err := a.userRepo.UpdatePasswordHash(ctx, id, hash); err != nil {
		a.log.Warn("store rehash failed", zap.Uint64("user_id", id), zap.Error(err))
	}
}

func (a *authService) burnDecoy(password string) {
	a.decoyOnce.Do(func() {
		a.decoy, _ = a.hasher.Hash("decoy-password")
	})
	if a.decoy != "" {
		_, _ = a.hasher.Verify(password, a.decoy)
	}
}
