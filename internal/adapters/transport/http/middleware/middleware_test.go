package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type validatorFunc func(context.Context, dto.ValidateDTO) (model.User, error)

func (f validatorFunc) Validate(ctx context.Context, in dto.ValidateDTO) (model.User, error) {
	return f(ctx, in)
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		token, ok := BearerToken(tc.header)
		require.Equal(t, tc.ok, ok, tc.header)
		require.Equal(t, tc.token, token, tc.header)
	}
}

func newRouter(v TokenValidator, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/p", RequireBearer(v), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "rid": RequestID(c)})
	})
	return r
}

func TestRequireBearer(t *testing.T) {
	v := validatorFunc(func(_ context.Context, in dto.ValidateDTO) (model.User, error) {
		if in.AccessToken == "good" {
			return model.User{ID: 42}, nil
		}
		return model.User{}, errors.New("nope")
	})
	r := newRouter(v, zap.NewNop())

	for header, want := range map[string]int{
		"":            http.StatusUnauthorized,
		"Bearer bad":  http.StatusUnauthorized,
		"Token good":  http.StatusUnauthorized,
		"Bearer good": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, want, w.Code, header)
		if want == http.StatusUnauthorized {
			require.JSONEq(t, `{"error":"invalid token"}`, w.Body.String())
		}
	}
}

func TestRequestLogger_RedactsAndTags(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	v := validatorFunc(func(context.Context, dto.ValidateDTO) (model.User, error) {
		return model.User{ID: 1}, nil
	})
	r := newRouter(v, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer super-secret")
	req.Header.Set("Cookie", "sid=also-secret")
	req.Header.Set(RequestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "rid-1", w.Header().Get(RequestIDHeader))
	require.Contains(t, w.Body.String(), `"rid":"rid-1"`)

	incoming := logs.FilterMessage("incoming request").All()
	require.Len(t, incoming, 1)
	hdr := fmt.Sprint(incoming[0].ContextMap()["hdr"])
	require.NotContains(t, hdr, "super-secret")
	require.NotContains(t, hdr, "also-secret")
	require.Contains(t, hdr, "[redacted]")

	require.Equal(t, 1, logs.FilterMessage("completed").Len())
}

func TestRequestLogger_GeneratesID(t *testing.T) {
	r := newRouter(validatorFunc(func(context.Context, dto.ValidateDTO) (model.User, error) {
		return model.User{}, errors.New("x")
	}), zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Len(t, w.Header().Get(RequestIDHeader), 36)
}
