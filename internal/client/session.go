package client

import (
	"context"
	"sync/atomic"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
)

// Session is the application-facing view of the login state. It starts out
// loading and becomes ready after Load, whatever Load finds.
type Session struct {
	client  *Client
	loading atomic.Bool
}

func NewSession(c *Client) *Session {
	s := &Session{client: c}
	s.loading.Store(true)
	return s
}

func (s *Session) Load(ctx context.Context) error {
	defer s.loading.Store(false)
	return s.client.store.Load(ctx)
}

func (s *Session) Login(ctx context.Context, email, password string) (model.Profile, error) {
	return s.client.Login(ctx, email, password)
}

func (s *Session) Register(ctx context.Context, in dto.RegisterDTO) (model.Profile, error) {
	return s.client.Register(ctx, in)
}

func (s *Session) Logout(ctx context.Context) error {
	return s.client.Logout(ctx)
}

func (s *Session) User() *model.Profile { return s.client.store.User() }

func (s *Session) IsAuthenticated() bool { return s.client.store.User() != nil }

func (s *Session) Loading() bool { return s.loading.Load() }
