package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oven/internal/services"
)

// Backend delivers payloads to one external channel. Implementations must be
// safe for concurrent use and must never panic or block past their timeout.
type Backend interface {
	// Name is the configured identifier, unique within a dispatcher.
	Name() string
	// Channel selects the formatting conventions for this backend.
	Channel() Channel
	// Notify performs one delivery attempt.
	Notify(ctx context.Context, payload Payload) Result
	// Describe returns a non-secret summary for diagnostics.
	Describe() map[string]string
}

// Result reports the outcome of one delivery attempt.
type Result struct {
	Backend  string
	HasError bool
	Error    string
	Elapsed  time.Duration
}

// Success builds a successful result.
func Success(backend string) Result {
	return Result{Backend: backend}
}

// Failure builds a failed result from err.
func Failure(backend string, err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = strings.TrimSpace(err.Error())
	}
	return Result{Backend: backend, HasError: true, Error: msg}
}

// Failuref builds a failed result from a formatted message.
func Failuref(backend, format string, args ...any) Result {
	return Result{Backend: backend, HasError: true, Error: fmt.Sprintf(format, args...)}
}

// Outcome holds the per-backend results of one dispatch, in backend
// configuration order.
type Outcome struct {
	Results []Result
	// CorrelationID tags the logs of every delivery in this dispatch.
	CorrelationID string
}

// Failed reports whether at least one backend failed.
func (o Outcome) Failed() bool {
	for _, r := range o.Results {
		if r.HasError {
			return true
		}
	}
	return false
}

// Failures returns the failed results in order.
func (o Outcome) Failures() []Result {
	var failed []Result
	for _, r := range o.Results {
		if r.HasError {
			failed = append(failed, r)
		}
	}
	return failed
}

// Succeeded returns the number of successful deliveries.
func (o Outcome) Succeeded() int {
	return len(o.Results) - len(o.Failures())
}

// Err joins the failures into one error marked services.ErrDelivery, or nil
// when every backend succeeded. Callers decide whether that matters; delivery
// is best effort.
func (o Outcome) Err() error {
	failed := o.Failures()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, r := range failed {
		errs = append(errs, services.Wrap(services.ErrDelivery, r.Backend, "notify", r.Error, nil))
	}
	return errors.Join(errs...)
}
