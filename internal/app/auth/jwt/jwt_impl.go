package jwt

import (
	"errors"
	"strconv"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	authjwt "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JwtUtilImpl signs access and refresh tokens with one HS256 secret. The two
// tokens differ only by lifetime and jti.
type JwtUtilImpl struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if cfg.JWTSecret == "" {
		return nil, customErrors.WrapInternal(errors.New("empty secret"), "NewJWTUtil")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		return nil, customErrors.WrapInternal(errors.New("access ttl must be positive and shorter than refresh ttl"), "NewJWTUtil")
	}
	return &JwtUtilImpl{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}, nil
}

func (j *JwtUtilImpl) Issue(user model.User) (model.TokenPair, error) {
	now := j.now()

	at, err := j.sign(user, now, j.accessTTL)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "sign access token")
	}
	rt, err := j.sign(user, now, j.refreshTTL)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "sign refresh token")
	}

	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    j.accessTTL,
		RefreshTTL:   j.refreshTTL,
	}, nil
}

func (j *JwtUtilImpl) sign(user model.User, now time.Time, ttl time.Duration) (string, error) {
	claims := authjwt.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(user.ID, 10),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Email: user.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Verify never returns an error: every failure is folded into an invalid
// Verification carrying the reason.
func (j *JwtUtilImpl) Verify(raw string) authjwt.Verification {
	if raw == "" {
		return authjwt.Invalid(authjwt.ReasonMalformed)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &authjwt.Claims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return authjwt.Invalid(reasonOf(err))
	}
	if !token.Valid {
		return authjwt.Invalid(authjwt.ReasonSignature)
	}

	claims, ok := token.Claims.(*authjwt.Claims)
	if !ok || claims.Email == "" {
		return authjwt.Invalid(authjwt.ReasonClaims)
	}
	if _, err := claims.UserID(); err != nil {
		return authjwt.Invalid(authjwt.ReasonClaims)
	}

	return authjwt.Verification{Valid: true, Claims: *claims}
}

func reasonOf(err error) authjwt.Reason {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return authjwt.ReasonMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return authjwt.ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return authjwt.ReasonSignature
	default:
		return authjwt.ReasonClaims
	}
}
