// Package scan implements a concurrent TCP connect scanner: one probe
// task per port, admission gated to a configured concurrency cap,
// with open ports funnelled through a bounded channel to a single
// collecting goroutine.
package scan

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc is invoked exactly once per finished port, whatever
// the outcome. It must be safe for concurrent use.
type ProgressFunc func()

// Option configures a Scanner.
type Option func(*Scanner)

// WithProgress registers a per-port completion callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scanner) { s.progress = fn }
}

// WithRateLimit caps probe dispatch at n launches per second. Zero or
// negative n leaves dispatch unpaced.
func WithRateLimit(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.rate = ratelimit.New(n)
		}
	}
}

// Scanner drives one scan over the configured port range.
type Scanner struct {
	cfg      Config
	gate     *limiter
	rate     ratelimit.Limiter
	progress ProgressFunc
}

// New validates cfg and builds a Scanner.
func New(cfg Config, opts ...Option) (*Scanner, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}
	s := &Scanner{cfg: cfg, gate: newLimiter(cfg.Concurrency)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run probes every port in the target range exactly once and returns
// the open ports sorted ascending, possibly empty. Individual probe
// failures are outcomes, not errors; Run fails only when ctx is
// cancelled before dispatch completes, in which case in-flight probes
// are awaited and no partial result is returned.
func (s *Scanner) Run(ctx context.Context) ([]uint16, error) {
	col := newCollector(s.cfg.ChannelBuffer)

	var open []uint16
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		open = col.collect()
		return nil
	})

	g.Go(func() error {
		var wg sync.WaitGroup
		// wg.Wait runs before close: the channel is closed only once
		// every sender has finished.
		defer col.close()
		defer wg.Wait()
		for p := int(s.cfg.Target.StartPort); p <= int(s.cfg.Target.EndPort); p++ {
			if s.rate != nil {
				s.rate.Take()
			}
			if err := s.gate.acquire(ctx); err != nil {
				return fmt.Errorf("admission gate: %w", err)
			}
			wg.Add(1)
			go func(port uint16) {
				defer wg.Done()
				defer s.gate.release()
				res := probe(ctx, s.cfg.Target.Addr, port, s.cfg.Timeout)
				if res.Outcome == Open {
					col.report(res.Port)
				}
				if s.progress != nil {
					s.progress()
				}
			}(uint16(p))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return open, nil
}
