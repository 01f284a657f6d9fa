package jwt

import (
	"strconv"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the shape shared by access and refresh tokens: sub is the user id
// in decimal form, email is carried alongside.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (c Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// Reason tells why a token was rejected. Callers on the session path collapse
// every reason into the same unauthorized outcome; it exists for logs and tests.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformed
	ReasonSignature
	ReasonExpired
	ReasonClaims
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMalformed:
		return "malformed"
	case ReasonSignature:
		return "signature"
	case ReasonExpired:
		return "expired"
	case ReasonClaims:
		return "claims"
	default:
		return "unknown"
	}
}

// Verification is the result of checking a raw token. Exactly one of Claims
// (Valid == true) or Reason (Valid == false) is meaningful.
type Verification struct {
	Valid  bool
	Claims Claims
	Reason Reason
}

func Invalid(r Reason) Verification {
	return Verification{Reason: r}
}

type JWTUtil interface {
	Issue(user model.User) (model.TokenPair, error)
	Verify(raw string) Verification
}
