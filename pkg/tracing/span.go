// Package tracing records span trees for individual requests and emits
// them through slog. Spans ride the context, so strategy fan-outs under a
// search attach as children of the request's root span.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type spanKey struct{}

// Span is one timed operation. Child spans attach through
// StartChildSpan and share the root's trace ID.
type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	Duration  time.Duration

	mu       sync.Mutex
	children []*Span
	attrs    []slog.Attr
}

// StartSpan opens a root span and stores it in the returned context. The
// trace ID is typically the request ID.
func StartSpan(ctx context.Context, name, traceID string) (context.Context, *Span) {
	span := &Span{Name: name, TraceID: traceID, StartTime: time.Now()}
	return context.WithValue(ctx, spanKey{}, span), span
}

// StartChildSpan opens a span under the one in ctx. Without a parent it
// behaves like an orphan root with an empty trace ID.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{Name: name, StartTime: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		child.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, spanKey{}, child), child
}

// FromContext returns the innermost span in ctx, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

// End fixes the span's duration. Safe to call from a defer.
func (s *Span) End() {
	s.Duration = time.Since(s.StartTime)
}

// SetAttr attaches a key/value pair that Log will include.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

// Log emits the span and its descendants, one record per span, annotated
// with tree depth.
func (s *Span) Log() {
	s.emit(slog.Default(), 0)
}

func (s *Span) emit(logger *slog.Logger, depth int) {
	s.mu.Lock()
	args := make([]any, 0, 8+2*len(s.attrs))
	args = append(args,
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_ms", s.Duration.Milliseconds(),
		"depth", depth,
	)
	for _, attr := range s.attrs {
		args = append(args, attr.Key, attr.Value.Any())
	}
	children := s.children
	s.mu.Unlock()

	logger.Info("span", args...)
	for _, child := range children {
		child.emit(logger, depth+1)
	}
}
