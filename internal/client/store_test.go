package client

import (
	"context"
	"testing"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	user := model.Profile{ID: 7, Email: "a@b.c", FirstName: "A", LastName: "B"}

	require.NoError(t, NewTokenStore(storage).Save(ctx, "acc", "ref", user))

	s := NewTokenStore(storage)
	require.Nil(t, s.User())
	require.NoError(t, s.Load(ctx))
	require.Equal(t, "acc", s.AccessToken())
	require.Equal(t, "ref", s.RefreshToken())
	require.Equal(t, user.Email, s.User().Email)
	require.Equal(t, user.ID, s.User().ID)

	require.NoError(t, s.Clear(ctx))
	require.Nil(t, s.User())
	require.Empty(t, s.AccessToken())

	left, err := storage.Load(ctx, sessionKeys...)
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestTokenStore_PartialStateIsLoggedOut(t *testing.T) {
	cases := map[string]map[string]string{
		"no refresh": {KeyUser: `{"id":1}`, KeyAccessToken: "a"},
		"no access":  {KeyUser: `{"id":1}`, KeyRefreshToken: "r"},
		"no user":    {KeyAccessToken: "a", KeyRefreshToken: "r"},
		"bad user":   {KeyUser: "{", KeyAccessToken: "a", KeyRefreshToken: "r"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			storage := NewMemoryStorage()
			require.NoError(t, storage.Save(ctx, values))

			s := NewTokenStore(storage)
			require.NoError(t, s.Load(ctx))
			require.Nil(t, s.User())
			require.Empty(t, s.AccessToken())
			require.Empty(t, s.RefreshToken())
		})
	}
}

func TestTokenStore_UserIsCopy(t *testing.T) {
	s := NewTokenStore(nil)
	require.NoError(t, s.Save(context.Background(), "a", "r", model.Profile{Email: "x@y.z"}))

	u := s.User()
	u.Email = "changed"
	require.Equal(t, "x@y.z", s.User().Email)
}
