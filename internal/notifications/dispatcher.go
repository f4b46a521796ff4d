package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"oven/internal/logging"
	"oven/internal/services"
)

// Observer receives every result after a dispatch completes, in backend
// order. Observers run on the dispatching goroutine.
type Observer func(Result)

// Dispatcher fans payloads out to a fixed, ordered set of backends.
type Dispatcher struct {
	backends  []Backend
	timeout   time.Duration
	logger    *slog.Logger
	observers []Observer
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each backend call independently.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for per-backend diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver registers a callback for each result.
func WithObserver(observer Observer) Option {
	return func(d *Dispatcher) {
		if observer != nil {
			d.observers = append(d.observers, observer)
		}
	}
}

// NewDispatcher builds a dispatcher over backends. The slice order is the
// order results are reported in.
func NewDispatcher(backends []Backend, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backends: append([]Backend(nil), backends...),
		timeout:  DefaultRequestTimeout,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "dispatcher")
	return d
}

// Backends returns a copy of the configured backends.
func (d *Dispatcher) Backends() []Backend {
	if d == nil {
		return nil
	}
	return append([]Backend(nil), d.backends...)
}

// Len returns the number of configured backends.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.backends)
}

// Channels returns the distinct channels in use, in first-seen order.
func (d *Dispatcher) Channels() []Channel {
	if d == nil {
		return nil
	}
	seen := make(map[Channel]struct{}, len(d.backends))
	channels := make([]Channel, 0, len(d.backends))
	for _, b := range d.backends {
		ch := b.Channel()
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		channels = append(channels, ch)
	}
	return channels
}

// Dispatch sends the same payload to every backend.
func (d *Dispatcher) Dispatch(ctx context.Context, payload Payload) Outcome {
	return d.DispatchEach(ctx, func(Backend) Payload { return payload })
}

// DispatchEach sends render(b) to each backend b. Rendering happens on the
// calling goroutine before any delivery starts; deliveries then run
// concurrently, one goroutine per backend, and are all joined before
// returning. Every delivery of one call shares a correlation id, taken from
// the context or generated. Caller cancellation does not abort deliveries;
// each one is bounded only by the dispatcher timeout.
func (d *Dispatcher) DispatchEach(ctx context.Context, render func(Backend) Payload) Outcome {
	if d == nil || len(d.backends) == 0 {
		return Outcome{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	correlationID, ok := services.RequestIDFromContext(ctx)
	if !ok || correlationID == "" {
		correlationID = uuid.NewString()
		ctx = services.WithRequestID(ctx, correlationID)
	}
	base := context.WithoutCancel(ctx)

	payloads := make([]Payload, len(d.backends))
	for i, b := range d.backends {
		payloads[i] = render(b)
	}

	results := make([]Result, len(d.backends))
	var group errgroup.Group
	for i, b := range d.backends {
		group.Go(func() error {
			results[i] = d.invoke(base, b, payloads[i])
			return nil
		})
	}
	_ = group.Wait()

	for _, res := range results {
		if res.HasError {
			logging.WarnWithContext(logging.WithContext(ctx, d.logger), "notification delivery failed", "notification_failed",
				logging.String("backend", res.Backend),
				logging.String(logging.FieldErrorHint, res.Error),
				logging.String(logging.FieldImpact, "this channel missed the update; other channels are unaffected"),
				logging.Duration("elapsed", res.Elapsed),
			)
		} else {
			logging.WithContext(ctx, d.logger).Debug("notification delivered",
				logging.String("backend", res.Backend),
				logging.Duration("elapsed", res.Elapsed),
			)
		}
		for _, observe := range d.observers {
			observe(res)
		}
	}
	return Outcome{Results: results, CorrelationID: correlationID}
}

func (d *Dispatcher) invoke(ctx context.Context, backend Backend, payload Payload) (res Result) {
	name := backend.Name()
	callCtx, cancel := context.WithTimeout(services.WithBackend(ctx, name), d.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Failuref(name, "backend panicked: %v", r)
		}
		res.Backend = name
		res.Elapsed = time.Since(start)
	}()

	res = backend.Notify(callCtx, payload)
	return res
}
