// Package sessionlog records simulation sessions to best-effort sinks.
//
// A Logger is built once per process with explicit sinks and handed to the
// components that need it. Log returns the joined sink errors; callers log
// and discard them so a storage outage never fails a simulation request.
package sessionlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/scenario"
)

// ErrNotFound is returned when no session has the requested ID.
var ErrNotFound = errors.New("sessionlog: session not found")

// Entry pairs the input gains of a run with its output.
type Entry struct {
	ID        string           `json:"id"`
	ProjectID *int64           `json:"project_id,omitempty"`
	System    string           `json:"system_type"`
	Input     control.Gains    `json:"input"`
	Output    *scenario.Output `json:"output"`
	CreatedAt time.Time        `json:"created_at"`
}

type Sink interface {
	Write(ctx context.Context, e Entry) error
}

type Logger struct {
	sinks []Sink
	now   func() time.Time
	seq   atomic.Uint64
}

func New(sinks ...Sink) *Logger {
	return &Logger{sinks: sinks, now: time.Now}
}

// Enabled reports whether any sink is configured.
func (l *Logger) Enabled() bool {
	return l != nil && len(l.sinks) > 0
}

// Log stamps the entry and writes it to every sink. All sinks are
// attempted; their failures are joined.
func (l *Logger) Log(ctx context.Context, e Entry) (Entry, error) {
	if !l.Enabled() {
		return e, nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now().UTC()
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("%s-%d-%d", e.System, e.CreatedAt.UnixNano(), l.seq.Add(1))
	}

	var errs []error
	for _, s := range l.sinks {
		if err := s.Write(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	return e, errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	var errs []error
	for _, s := range l.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
