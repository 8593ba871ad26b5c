package analytics

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/customtoken/internal/core"
)

var (
	_ core.Tracker = (*SafeTracker)(nil)
	_ core.Tracker = (*NoopTracker)(nil)
)

// SafeTracker wraps a Tracker so that failures are logged and never returned.
type SafeTracker struct {
	next core.Tracker
}

// Safe wraps t. A nil tracker is replaced with a NoopTracker.
func Safe(t core.Tracker) *SafeTracker {
	if t == nil {
		t = NewNoopTracker()
	}
	return &SafeTracker{next: t}
}

func (s *SafeTracker) Pageview(ctx context.Context, p core.Pageview) error {
	logFailure(ctx, "pageview", s.next.Pageview(ctx, p))
	return nil
}

func (s *SafeTracker) Event(ctx context.Context, e core.Event) error {
	logFailure(ctx, "event", s.next.Event(ctx, e))
	return nil
}

func (s *SafeTracker) Exception(ctx context.Context, e core.Exception) error {
	logFailure(ctx, "exception", s.next.Exception(ctx, e))
	return nil
}

func (s *SafeTracker) SetUserID(id string) {
	s.next.SetUserID(id)
}

func logFailure(ctx context.Context, hit string, err error) {
	if err == nil {
		return
	}
	log.Ctx(ctx).Warn().Err(err).Str("hit", hit).Msg("failed to send analytics hit")
}

// NoopTracker drops every hit. Used when no tracking ID is configured.
type NoopTracker struct{}

func NewNoopTracker() *NoopTracker {
	return &NoopTracker{}
}

func (n *NoopTracker) Pageview(context.Context, core.Pageview) error   { return nil }
func (n *NoopTracker) Event(context.Context, core.Event) error         { return nil }
func (n *NoopTracker) Exception(context.Context, core.Exception) error { return nil }
func (n *NoopTracker) SetUserID(string)                                {}
