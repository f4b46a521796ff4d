package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"oven/internal/format"
	"oven/internal/services"
	"oven/internal/tracker"
)

// Notifier receives the bar's lifecycle signals. *tracker.Tracker
// satisfies it. A nil Notifier makes the bar count without notifying.
type Notifier interface {
	Init(ctx context.Context) (tracker.Report, error)
	Start(ctx context.Context, description string) (tracker.Report, error)
	Progress(ctx context.Context, fraction float64, description string) (tracker.Report, error)
	Terminate(ctx context.Context, description string) (tracker.Report, error)
	Fail(ctx context.Context, cause error, description string) (tracker.Report, error)
}

type postfix struct {
	key   string
	value string
}

// Bar counts completed units toward a total. It is not safe for concurrent
// use.
type Bar struct {
	notifier    Notifier
	total       int64
	n           int64
	description string
	postfix     []postfix
	startedAt   time.Time
	now         func() time.Time
	closed      bool

	sessionCtx context.Context
}

// Option customizes a Bar.
type Option func(*Bar)

// WithDescription sets the leading label.
func WithDescription(desc string) Option {
	return func(b *Bar) { b.description = strings.TrimSpace(desc) }
}

// WithClock replaces time.Now for rate and ETA.
func WithClock(now func() time.Time) Option {
	return func(b *Bar) {
		if now != nil {
			b.now = now
		}
	}
}

// WithSession makes New open the notifier's session by sending Init and
// Start, so the bar owns the whole lifecycle.
func WithSession(ctx context.Context) Option {
	return func(b *Bar) {
		if ctx == nil {
			ctx = context.Background()
		}
		b.sessionCtx = ctx
	}
}

// New returns a bar for total units. A total <= 0 means unknown; the bar then
// reports counts and rate without a fraction or ETA. An error is returned only
// when WithSession is set and the session could not be opened.
func New(notifier Notifier, total int64, opts ...Option) (*Bar, error) {
	b := &Bar{notifier: notifier, total: total, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	b.startedAt = b.now()
	if b.sessionCtx != nil && b.notifier != nil {
		if _, err := b.notifier.Init(b.sessionCtx); err != nil {
			return nil, err
		}
		if _, err := b.notifier.Start(b.sessionCtx, b.description); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Enabled reports whether the bar sends notifications.
func (b *Bar) Enabled() bool { return b.notifier != nil }

// Add advances the counter by n and reports progress. The count never drops
// below zero nor exceeds a known total.
func (b *Bar) Add(ctx context.Context, n int64) (tracker.Report, error) {
	if b.closed {
		return tracker.Report{}, services.Wrap(services.ErrInvalidTransition, "progress", "add", "bar already closed", nil)
	}
	b.n += n
	if b.n < 0 {
		b.n = 0
	}
	if b.total > 0 && b.n > b.total {
		b.n = b.total
	}
	if b.notifier == nil {
		return tracker.Report{}, nil
	}
	return b.notifier.Progress(ctx, b.Fraction(), b.String())
}

// SetDescription replaces the leading label used by later reports.
func (b *Bar) SetDescription(desc string) {
	b.description = strings.TrimSpace(desc)
}

// SetPostfix attaches a key=value pair shown after the counters. Setting an
// existing key replaces its value in place.
func (b *Bar) SetPostfix(key string, value any) {
	v := fmt.Sprint(value)
	for i := range b.postfix {
		if b.postfix[i].key == key {
			b.postfix[i].value = v
			return
		}
	}
	b.postfix = append(b.postfix, postfix{key: key, value: v})
}

// Count returns the completed units.
func (b *Bar) Count() int64 { return b.n }

// Fraction returns completed/total in [0, 1], or 0 when the total is unknown.
func (b *Bar) Fraction() float64 {
	if b.total <= 0 {
		return 0
	}
	f := float64(b.n) / float64(b.total)
	if f > 1 {
		return 1
	}
	return f
}

// Rate returns completed units per second since the bar was created.
func (b *Bar) Rate() float64 {
	elapsed := b.now().Sub(b.startedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(b.n) / elapsed
}

// ETA estimates the remaining time. ok is false when it cannot be known.
func (b *Bar) ETA() (time.Duration, bool) {
	rate := b.Rate()
	if b.total <= 0 || rate <= 0 {
		return 0, false
	}
	remaining := float64(b.total-b.n) / rate
	return time.Duration(remaining * float64(time.Second)), true
}

// String renders the description line sent with each report.
func (b *Bar) String() string {
	var parts []string
	if b.description != "" {
		parts = append(parts, b.description)
	}
	if b.total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", b.n, b.total))
	} else {
		parts = append(parts, fmt.Sprintf("%d", b.n))
	}
	parts = append(parts, fmt.Sprintf("%.2f it/s", b.Rate()))
	if eta, ok := b.ETA(); ok {
		parts = append(parts, "ETA "+format.Elapsed(eta))
	}
	line := strings.Join(parts, " | ")
	if len(b.postfix) > 0 {
		kv := make([]string, 0, len(b.postfix))
		for _, p := range b.postfix {
			kv = append(kv, p.key+"="+p.value)
		}
		line += " [" + strings.Join(kv, ", ") + "]"
	}
	return line
}

// Close ends the session: Terminate when cause is nil, Error otherwise.
// Later calls are no-ops.
func (b *Bar) Close(ctx context.Context, cause error) (tracker.Report, error) {
	if b.closed {
		return tracker.Report{}, nil
	}
	b.closed = true
	if b.notifier == nil {
		return tracker.Report{}, nil
	}
	if cause != nil {
		return b.notifier.Fail(ctx, cause, b.String())
	}
	return b.notifier.Terminate(ctx, b.String())
}
