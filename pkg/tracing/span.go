// Package tracing records how long each stage of a preprocessing run takes.
// Spans nest through contexts and the finished tree is logged via slog.
package tracing

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed stage of a run.
type Span struct {
	Name     string
	RunID    string
	Start    time.Time
	Duration time.Duration
	Children []*Span
	Attrs    map[string]any

	mu sync.Mutex
}

// Stage is a flattened span: its slash-joined path from the root, nesting
// depth and duration.
type Stage struct {
	Path     string
	Depth    int
	Duration time.Duration
}

// StartRun creates a root span for runID and stores it in the returned
// context.
func StartRun(ctx context.Context, name, runID string) (context.Context, *Span) {
	s := &Span{Name: name, RunID: runID, Start: time.Now(), Attrs: make(map[string]any)}
	return context.WithValue(ctx, contextKey{}, s), s
}

// StartStage opens a child of the span in ctx. Without a parent the new span
// is a detached root, so callers never need a nil check.
func StartStage(ctx context.Context, name string) (context.Context, *Span) {
	s := &Span{Name: name, Start: time.Now(), Attrs: make(map[string]any)}
	if parent := FromContext(ctx); parent != nil {
		s.RunID = parent.RunID
		parent.mu.Lock()
		parent.Children = append(parent.Children, s)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, s), s
}

// FromContext returns the innermost span in ctx, or nil.
func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(contextKey{}).(*Span)
	return s
}

// End fixes the span's duration and returns it.
func (s *Span) End() time.Duration {
	s.Duration = time.Since(s.Start)
	return s.Duration
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

// Stages flattens the tree depth first, parents before children.
func (s *Span) Stages() []Stage {
	var out []Stage
	s.walk(nil, 0, func(path []string, depth int, sp *Span) {
		out = append(out, Stage{Path: strings.Join(path, "/"), Depth: depth, Duration: sp.Duration})
	})
	return out
}

// Log writes one debug record per span.
func (s *Span) Log(log *slog.Logger) {
	s.walk(nil, 0, func(path []string, depth int, sp *Span) {
		sp.mu.Lock()
		attrs := []any{
			"run_id", s.RunID,
			"span", strings.Join(path, "/"),
			"depth", depth,
			"duration_ms", sp.Duration.Milliseconds(),
		}
		for k, v := range sp.Attrs {
			attrs = append(attrs, k, v)
		}
		sp.mu.Unlock()
		log.Debug("stage timing", attrs...)
	})
}

func (s *Span) walk(prefix []string, depth int, fn func([]string, int, *Span)) {
	path := append(prefix[:len(prefix):len(prefix)], s.Name)
	fn(path, depth, s)
	s.mu.Lock()
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()
	for _, c := range children {
		c.walk(path, depth+1, fn)
	}
}
