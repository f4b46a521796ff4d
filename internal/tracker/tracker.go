package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"oven/internal/format"
	"oven/internal/lifecycle"
	"oven/internal/logging"
	"oven/internal/metrics"
	"oven/internal/notifications"
	"oven/internal/services"
	"oven/internal/trigger"
)

// Recorder persists delivery outcomes. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, sessionID string, sig lifecycle.Signal, outcome notifications.Outcome) error
}

// Report summarizes how one signal was handled.
type Report struct {
	Signal     lifecycle.Signal
	Decision   trigger.Decision
	Dispatched bool
	Outcome    notifications.Outcome
}

// Tracker is owned by a single signal producer and is not safe for
// concurrent use.
type Tracker struct {
	dispatcher *notifications.Dispatcher
	gate       *trigger.Gate
	formatters []*format.Formatter
	byChannel  map[notifications.Channel]*format.Formatter
	phase      lifecycle.Phase
	clock      lifecycle.Clock

	sessionID string
	host      string
	command   string
	now       func() time.Time
	recorder  Recorder
	logger    *slog.Logger
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger for decisions and delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithRecorder journals every dispatch outcome.
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

// WithClock replaces time.Now for the convenience methods.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithHost sets the host label shown in notifications.
func WithHost(host string) Option {
	return func(t *Tracker) { t.host = host }
}

// WithCommand sets the command line shown in the Start notification.
func WithCommand(command string) Option {
	return func(t *Tracker) { t.command = command }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(t *Tracker) {
		if id != "" {
			t.sessionID = id
		}
	}
}

// New returns a tracker in the Uninitialized phase. A nil policy announces
// every signal.
func New(dispatcher *notifications.Dispatcher, policy trigger.Policy, opts ...Option) *Tracker {
	t := &Tracker{
		dispatcher: dispatcher,
		gate:       trigger.NewGate(policy),
		byChannel:  make(map[notifications.Channel]*format.Formatter),
		sessionID:  uuid.NewString(),
		now:        time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.WithSessionID(logging.NewComponentLogger(t.logger, "tracker"), t.sessionID)
	for _, ch := range dispatcher.Channels() {
		f := format.New(format.StyleFor(ch))
		t.formatters = append(t.formatters, f)
		t.byChannel[ch] = f
	}
	return t
}

// SessionID returns the id stamped on every notification and journal row.
func (t *Tracker) SessionID() string { return t.sessionID }

// Phase reports the current lifecycle phase.
func (t *Tracker) Phase() lifecycle.Phase { return t.phase }

// Handle processes one lifecycle event. It returns an error marked
// services.ErrInvalidTransition when the signal is not allowed in the
// current phase or its timestamp moves backwards; the tracker is left
// unchanged in that case.
func (t *Tracker) Handle(ctx context.Context, ev lifecycle.Event) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithSessionID(ctx, t.sessionID)
	report := Report{Signal: ev.Signal}

	next, err := lifecycle.Next(t.phase, ev.Signal)
	if err != nil {
		return report, err
	}
	if err := t.clock.Advance(ev.Signal, ev.At); err != nil {
		return report, err
	}
	t.phase = next
	if ev.Signal == lifecycle.SignalInit {
		ev.Meta = t.fillMeta(ev.Meta)
	}
	metrics.IncSignal(ev.Signal.String())

	report.Decision = t.gate.Decide(ev)
	metrics.IncDecision(report.Decision.Fire)

	payloads := make(map[notifications.Channel]notifications.Payload, len(t.formatters))
	rendered := false
	for _, f := range t.formatters {
		payload, ok, err := f.Apply(ev)
		if err != nil {
			// Formatters see the same sequence the tracker already validated.
			return report, fmt.Errorf("format %s: %w", f.Channel(), err)
		}
		if ok {
			payloads[f.Channel()] = payload
			rendered = true
		}
	}

	result := "suppress"
	if report.Decision.Fire {
		result = "fire"
	}
	t.logger.Debug("trigger decision",
		logging.Args(append(logging.DecisionAttrs("trigger", result, report.Decision.Reason),
			logging.String(logging.FieldSignal, ev.Signal.String()),
			logging.Float64("progress", ev.Progress),
		)...)...,
	)

	if !report.Decision.Fire || !rendered {
		return report, nil
	}

	report.Outcome = t.dispatcher.DispatchEach(ctx, func(b notifications.Backend) notifications.Payload {
		return payloads[b.Channel()]
	})
	report.Dispatched = true

	if failed := report.Outcome.Failures(); len(failed) > 0 {
		t.logger.Info("notification round finished with failures",
			logging.String(logging.FieldSignal, ev.Signal.String()),
			logging.Int("succeeded", report.Outcome.Succeeded()),
			logging.Int("failed", len(failed)),
		)
	}

	if t.recorder != nil {
		if err := t.recorder.Record(context.WithoutCancel(ctx), t.sessionID, ev.Signal, report.Outcome); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, t.logger), "history record failed", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the state directory is writable"),
				logging.String(logging.FieldImpact, "this dispatch is missing from oven history"),
			)
		}
	}
	return report, nil
}

func (t *Tracker) fillMeta(meta lifecycle.Meta) lifecycle.Meta {
	if meta.SessionID == "" {
		meta.SessionID = t.sessionID
	}
	if meta.Host == "" {
		meta.Host = t.host
	}
	if meta.Command == "" {
		meta.Command = t.command
	}
	return meta
}

// Init registers the session.
func (t *Tracker) Init(ctx context.Context) (Report, error) {
	return t.Handle(ctx, lifecycle.Event{Signal: lifecycle.SignalInit, At: t.now()})
}

// Start announces that the process began.
func (t *Tracker) Start(ctx context.Context, description string) (Report, error) {
	return t.Handle(ctx, lifecycle.Event{Signal: lifecycle.SignalStart, At: t.now(), Description: description})
}

// Progress reports a completed fraction in [0, 1].
func (t *Tracker) Progress(ctx context.Context, fraction float64, description string) (Report, error) {
	return t.Handle(ctx, lifecycle.Event{Signal: lifecycle.SignalProgress, At: t.now(), Progress: fraction, Description: description})
}

// Fail ends the session with an error.
func (t *Tracker) Fail(ctx context.Context, cause error, description string) (Report, error) {
	return t.Handle(ctx, lifecycle.Event{Signal: lifecycle.SignalError, At: t.now(), Err: cause, Description: description})
}

// Terminate ends the session successfully.
func (t *Tracker) Terminate(ctx context.Context, description string) (Report, error) {
	return t.Handle(ctx, lifecycle.Event{Signal: lifecycle.SignalTerminate, At: t.now(), Description: description})
}
