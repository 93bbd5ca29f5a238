package research

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Tier is a named source with its own deadline.
type Tier struct {
	Name    string
	Source  Source
	Timeout time.Duration
}

// Observer receives per-tier outcomes; observability.Metrics satisfies it.
type Observer interface {
	ObserveTier(tier, outcome string, elapsed time.Duration)
}

// Cache stores live outcomes by query and result count.
type Cache interface {
	Load(ctx context.Context, query string, max int) (Outcome, bool, error)
	Store(ctx context.Context, query string, max int, outcome Outcome) error
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithCache enables the outcome cache.
func WithCache(c Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithObserver reports tier outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// Pipeline walks its tiers in order and returns the first non-empty answer.
// The synthetic tier always runs last, so a well-formed query never comes
// back empty.
type Pipeline struct {
	tiers    []Tier
	cache    Cache
	observer Observer
	logger   *zap.Logger
	maxCap   int
}

// NewPipeline builds the ladder from tiers followed by the stub tier.
func NewPipeline(logger *zap.Logger, maxCap int, tiers []Tier, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	ladder := make([]Tier, 0, len(tiers)+1)
	ladder = append(ladder, tiers...)
	ladder = append(ladder, Tier{Name: TierStub, Source: StubSource{}})

	p := &Pipeline{
		tiers:  ladder,
		logger: logger,
		maxCap: maxCap,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Search returns up to max results for query. It never returns an error:
// failures of individual tiers become notices on the outcome.
func (p *Pipeline) Search(ctx context.Context, query string, max int) Outcome {
	query = strings.TrimSpace(query)
	outcome := Outcome{Query: query, Results: []Result{}}

	if query == "" {
		outcome.Notices = append(outcome.Notices, Notice{Message: "empty query"})
		return outcome
	}
	if max <= 0 {
		outcome.Notices = append(outcome.Notices, Notice{Message: "max results must be positive"})
		return outcome
	}
	if p.maxCap > 0 && max > p.maxCap {
		max = p.maxCap
	}

	if p.cache != nil {
		cached, ok, err := p.cache.Load(ctx, query, max)
		if err != nil {
			p.logger.Warn("research cache read failed", zap.Error(err))
		} else if ok {
			// Notices describe the fetch that filled the entry, not this call.
			cached.Notices = nil
			cached.Cached = true
			return cached
		}
	}

	for _, tier := range p.tiers {
		results, err := p.runTier(ctx, tier, query, max)
		if err != nil {
			p.logger.Warn("research tier failed",
				zap.String("tier", tier.Name),
				zap.String("query", query),
				zap.Error(err),
			)
			outcome.Notices = append(outcome.Notices, Notice{Tier: tier.Name, Message: err.Error()})
			continue
		}
		if len(results) == 0 {
			outcome.Notices = append(outcome.Notices, Notice{Tier: tier.Name, Message: "no results"})
			continue
		}

		if len(results) > max {
			results = results[:max]
		}
		outcome.Tier = tier.Name
		outcome.Results = results
		break
	}

	if p.cache != nil && !outcome.Degraded() {
		entry := outcome
		entry.Notices = nil
		if err := p.cache.Store(ctx, query, max, entry); err != nil {
			p.logger.Warn("research cache write failed", zap.Error(err))
		}
	}
	return outcome
}

func (p *Pipeline) runTier(ctx context.Context, tier Tier, query string, max int) ([]Result, error) {
	tierCtx := ctx
	if tier.Timeout > 0 {
		var cancel context.CancelFunc
		tierCtx, cancel = context.WithTimeout(ctx, tier.Timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := tier.Source.Search(tierCtx, query, max)
	p.observe(tier.Name, classify(results, err), time.Since(start))
	if errors.Is(tierCtx.Err(), context.DeadlineExceeded) && err != nil {
		return nil, errors.New("timed out")
	}
	return results, err
}

func (p *Pipeline) observe(tier, outcome string, elapsed time.Duration) {
	if p.observer != nil {
		p.observer.ObserveTier(tier, outcome, elapsed)
	}
}

func classify(results []Result, err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "skipped"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case err != nil:
		return "error"
	case len(results) == 0:
		return "empty"
	default:
		return "ok"
	}
}
