package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
)

const userKey = "user"

type TokenValidator interface {
	Validate(context.Context, dto.ValidateDTO) (model.User, error)
}

// RequireBearer rejects the request with 401 unless it carries a valid
// access token. Any failure, including a server-side one, reads as
// "invalid token" to the caller.
func RequireBearer(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid token"})
			return
		}

		user, err := v.Validate(c.Request.Context(), dto.ValidateDTO{AccessToken: token})
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return model.User{}, false
	}
	u, ok := v.(model.User)
	return u, ok
}
