// Package sites provides the registry that maps a page URL to the judge
// parsers able to extract a task from it.
// Judge-specific code lives behind the Parser interface so the registry
// never needs to know about any particular site.
package sites

import (
	"context"
	"errors"
	"fmt"

	"companion/task"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Parser defines the interface for judge-specific task extractors.
type Parser interface {
	// Name returns the judge name, also used as the task group.
	Name() string

	// MatchPatterns returns the URL patterns this parser handles.
	// The result is constant for the parser's lifetime.
	MatchPatterns() []string

	// Parse extracts exactly one task from the page. Calls are independent
	// and may run concurrently on the same parser.
	Parse(ctx context.Context, url, rawHTML string) (*task.Task, error)
}

// ErrNoParser is returned by Registry.Parse when no parser matches the URL.
var ErrNoParser = errors.New("no parser matches url")

type entry struct {
	parser   Parser
	patterns []Pattern
}

// Registry is an ordered, read-only set of parsers.
// It is safe for concurrent use.
type Registry struct {
	entries []entry
	logger  *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for dispatch decisions.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry compiles the patterns of every parser. Parsers are checked in
// the order given. A parser without patterns, or with a pattern that does
// not compile, is an error.
func NewRegistry(parsers []Parser, opts ...Option) (*Registry, error) {
	r := &Registry{logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}

	for _, p := range parsers {
		raw := p.MatchPatterns()
		if len(raw) == 0 {
			return nil, fmt.Errorf("parser %s declares no patterns", p.Name())
		}
		e := entry{parser: p}
		for _, s := range raw {
			pat, err := CompilePattern(s)
			if err != nil {
				return nil, fmt.Errorf("parser %s: %w", p.Name(), err)
			}
			e.patterns = append(e.patterns, pat)
		}
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// FindParsers returns every parser with a pattern matching url, in
// registration order. No match yields an empty result.
func (r *Registry) FindParsers(url string) []Parser {
	var out []Parser
	for _, e := range r.entries {
		if e.matches(url) {
			out = append(out, e.parser)
		}
	}
	return out
}

// HasParser returns true if any registered parser matches the URL.
func (r *Registry) HasParser(url string) bool {
	for _, e := range r.entries {
		if e.matches(url) {
			return true
		}
	}
	return false
}

// Parse runs the matching parsers in order and returns the first task
// extracted, along with the name of the parser that produced it.
// It returns ErrNoParser when nothing matches, and the combined failures
// when every matching parser fails.
func (r *Registry) Parse(ctx context.Context, url, rawHTML string) (*task.Task, string, error) {
	matched := r.FindParsers(url)
	if len(matched) == 0 {
		r.logger.Debug("no parser for url", zap.String("url", url))
		return nil, "", ErrNoParser
	}

	var errs error
	for _, p := range matched {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		t, err := p.Parse(ctx, url, rawHTML)
		if err == nil {
			r.logger.Debug("task extracted",
				zap.String("parser", p.Name()),
				zap.String("url", url),
				zap.String("name", t.Name()),
				zap.Int("tests", len(t.Tests())))
			return t, p.Name(), nil
		}
		r.logger.Debug("parser failed", zap.String("parser", p.Name()), zap.Error(err))
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return nil, "", errs
}

// Names returns the names of all registered parsers in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.parser.Name()
	}
	return names
}

// Patterns returns the declared patterns of the named parser.
func (r *Registry) Patterns(name string) []string {
	for _, e := range r.entries {
		if e.parser.Name() == name {
			out := make([]string, len(e.patterns))
			for i, p := range e.patterns {
				out[i] = p.String()
			}
			return out
		}
	}
	return nil
}

func (e entry) matches(url string) bool {
	for _, p := range e.patterns {
		if p.Match(url) {
			return true
		}
	}
	return false
}
