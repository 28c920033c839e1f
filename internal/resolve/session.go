package resolve

import (
	"context"
	"errors"
	"sync"
)

// ErrStale is returned by Session.Navigate when a later navigation started
// before this one finished. The late result is discarded.
var ErrStale = errors.New("resolve: navigation superseded")

// Session serializes navigations for one viewer. Starting a navigation
// cancels the one in flight.
type Session struct {
	resolver *Resolver

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSession creates a Session resolving through r.
func NewSession(r *Resolver) *Session {
	return &Session{resolver: r}
}

// Navigate resolves slug as the viewer's current page.
func (s *Session) Navigate(ctx context.Context, slug string) (Resolution, error) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	mine := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.resolver.Resolve(ctx, slug)

	s.mu.Lock()
	defer s.mu.Unlock()
	if mine != s.seq {
		return Resolution{}, ErrStale
	}
	s.cancel = nil
	cancel()
	return res, err
}

// Close cancels any navigation in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
