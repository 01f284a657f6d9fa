package jwt

import (
	"strconv"
	"testing"
	"time"

	authjwt "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "test",
	}
}

func testUser() model.User {
	return model.User{ID: 42, Email: "e@example.com"}
}

func TestJWTUtil_IssueClaims(t *testing.T) {
	util, err := NewJWTUtil(testConfig())
	require.NoError(t, err)

	pair, err := util.Issue(testUser())
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access := util.Verify(pair.AccessToken)
	require.True(t, access.Valid)
	require.Equal(t, "42", access.Claims.Subject)
	require.Equal(t, "e@example.com", access.Claims.Email)

	refresh := util.Verify(pair.RefreshToken)
	require.True(t, refresh.Valid)
	require.Equal(t, "42", refresh.Claims.Subject)
	require.Equal(t, "e@example.com", refresh.Claims.Email)

	require.True(t, access.Claims.ExpiresAt.Before(refresh.Claims.ExpiresAt.Time))
	require.Less(t, pair.AccessTTL, pair.RefreshTTL)

	id, err := access.Claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint64(42), id)
}

func TestJWTUtil_MissingSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	_, err := NewJWTUtil(cfg)
	require.Error(t, err)
}

func TestJWTUtil_BadTTLOrder(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = 2 * time.Hour
	_, err := NewJWTUtil(cfg)
	require.Error(t, err)
}

func TestJWTUtil_Malformed(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())

	for _, raw := range []string{"", "bad", "a.b.c"} {
		v := util.Verify(raw)
		require.False(t, v.Valid, raw)
		require.Equal(t, authjwt.ReasonMalformed, v.Reason, raw)
	}
}

func TestJWTUtil_OtherSecret(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())

	otherCfg := testConfig()
	otherCfg.JWTSecret = "other-secret"
	other, _ := NewJWTUtil(otherCfg)

	pair, err := other.Issue(testUser())
	require.NoError(t, err)

	v := util.Verify(pair.RefreshToken)
	require.False(t, v.Valid)
	require.Equal(t, authjwt.ReasonSignature, v.Reason)
}

func TestJWTUtil_Tampered(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	pair, _ := util.Issue(testUser())

	raw := []byte(pair.RefreshToken)
	last := len(raw) - 2
	if raw[last] == 'A' {
		raw[last] = 'B'
	} else {
		raw[last] = 'A'
	}

	v := util.Verify(string(raw))
	require.False(t, v.Valid)
}

func TestJWTUtil_Expired(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	util.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, err := util.Issue(testUser())
	require.NoError(t, err)

	util.now = time.Now
	v := util.Verify(pair.RefreshToken)
	require.False(t, v.Valid)
	require.Equal(t, authjwt.ReasonExpired, v.Reason)
}

func TestJWTUtil_AccessExpiresBeforeRefresh(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	issued := time.Now()
	util.now = func() time.Time { return issued }
	pair, _ := util.Issue(testUser())

	util.now = func() time.Time { return issued.Add(5 * time.Minute) }
	require.Equal(t, authjwt.ReasonExpired, util.Verify(pair.AccessToken).Reason)
	require.True(t, util.Verify(pair.RefreshToken).Valid)
}

func TestJWTUtil_InvalidAlg(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, authjwt.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Email: "e@example.com",
	}).SignedString([]byte("test-secret"))

	v := util.Verify(token)
	require.False(t, v.Valid)
	require.Equal(t, authjwt.ReasonSignature, v.Reason)
}

func TestJWTUtil_WrongClaimsShape(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	exp := jwt.NewNumericDate(time.Now().Add(time.Minute))

	cases := map[string]jwt.Claims{
		"no email": jwt.MapClaims{"sub": "1", "iss": "test", "exp": exp.Unix()},
		"bad sub":  jwt.MapClaims{"sub": "abc", "email": "e@example.com", "iss": "test", "exp": exp.Unix()},
		"no exp":   jwt.MapClaims{"sub": "1", "email": "e@example.com", "iss": "test"},
		"issuer":   jwt.MapClaims{"sub": "1", "email": "e@example.com", "iss": "wrong", "exp": exp.Unix()},
	}
	for name, claims := range cases {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(util.secret)
		require.NoError(t, err, name)

		v := util.Verify(token)
		require.False(t, v.Valid, name)
		require.Equal(t, authjwt.ReasonClaims, v.Reason, name)
	}
}

func TestJWTUtil_DistinctJTI(t *testing.T) {
	util, _ := NewJWTUtil(testConfig())
	a, _ := util.Issue(testUser())
	b, _ := util.Issue(testUser())

	va, vb := util.Verify(a.RefreshToken), util.Verify(b.RefreshToken)
	require.NotEqual(t, va.Claims.ID, vb.Claims.ID)
	require.Equal(t, strconv.FormatUint(testUser().ID, 10), vb.Claims.Subject)
}

func FuzzJWTUtil_Verify(f *testing.F) {
	util, err := NewJWTUtil(testConfig())
	if err != nil {
		f.Fatal(err)
	}
	pair, err := util.Issue(testUser())
	if err != nil {
		f.Fatal(err)
	}

	f.Add(pair.AccessToken)
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiIxIn0.")

	f.Fuzz(func(t *testing.T, raw string) {
		v := util.Verify(raw)
		if v.Valid && v.Reason != authjwt.ReasonNone {
			t.Fatalf("valid verification with reason %s", v.Reason)
		}
		if !v.Valid && v.Reason == authjwt.ReasonNone {
			t.Fatal("invalid verification without reason")
		}
	})
}
