package dto

import (
	"strconv"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/go-playground/validator/v10"
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

type RegisterDTO struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=6,maxbytes=72"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ValidateDTO struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// SessionResponse is the body of a successful register, login or refresh.
type SessionResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	User         model.Profile `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewSessionResponse(s model.Session) SessionResponse {
	return SessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         s.User,
	}
}

// RegisterValidations adds the custom tags used by the DTOs above. "min" and
// "max" count runes; "maxbytes" counts bytes.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
}
