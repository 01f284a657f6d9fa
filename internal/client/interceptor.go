package client

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"go.uber.org/zap"
)

// exchange is per logical request state carried in the request context, so a
// request that already went through one refresh is never refreshed again.
type exchange struct {
	retried atomic.Bool
}

type exchangeKey struct{}

func exchangeOf(ctx context.Context) (*exchange, context.Context) {
	if ex, ok := ctx.Value(exchangeKey{}).(*exchange); ok {
		return ex, ctx
	}
	ex := &exchange{}
	return ex, context.WithValue(ctx, exchangeKey{}, ex)
}

type refreshFunc func(ctx context.Context, refreshToken string) (dto.SessionResponse, error)

// Interceptor attaches the current access token to outgoing requests and, on
// a 401, renews the session once and replays the request with the new token.
type Interceptor struct {
	next      http.RoundTripper
	store     *TokenStore
	refresh   refreshFunc
	onExpired func()
	log       *zap.Logger
}

func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	ex, ctx := exchangeOf(req.Context())

	out := req.Clone(ctx)
	if token := i.store.AccessToken(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := i.next.RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if !ex.retried.CompareAndSwap(false, true) {
		return resp, nil
	}

	refreshToken := i.store.RefreshToken()
	if refreshToken == "" {
		drain(resp)
		return nil, &RefreshError{Err: ErrNoRefreshToken}
	}

	// The 401 is handed back untouched when the body cannot be sent twice.
	body, replayable := rewind(out)
	if !replayable {
		return resp, nil
	}
	drain(resp)

	sess, err := i.refresh(ctx, refreshToken)
	if err != nil {
		i.expire(ctx, err)
		return nil, &RefreshError{Err: err}
	}
	if err := i.store.Save(ctx, sess.AccessToken, sess.RefreshToken, sess.User); err != nil {
		i.log.Warn("persist refreshed session", zap.Error(err))
	}

	retry := out.Clone(ctx)
	retry.Body = body
	retry.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	return i.next.RoundTrip(retry)
}

func (i *Interceptor) expire(ctx context.Context, cause error) {
	i.log.Info("session expired", zap.Error(cause))
	if err := i.store.Clear(ctx); err != nil {
		i.log.Warn("clear session", zap.Error(err))
	}
	if i.onExpired != nil {
		i.onExpired()
	}
}

func rewind(req *http.Request) (io.ReadCloser, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	return body, true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
