package tracker_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"oven/internal/lifecycle"
	"oven/internal/notifications"
	"oven/internal/services"
	"oven/internal/testsupport"
	"oven/internal/tracker"
	"oven/internal/trigger"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Step(d time.Duration) { c.now = c.now.Add(d) }

type memoryRecorder struct {
	mu      sync.Mutex
	signals []lifecycle.Signal
	ids     []string
	err     error
}

func (r *memoryRecorder) Record(_ context.Context, sessionID string, sig lifecycle.Signal, _ notifications.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
	r.ids = append(r.ids, sessionID)
	return r.err
}

func newTracker(t *testing.T, policy trigger.Policy, backends ...notifications.Backend) (*tracker.Tracker, *stepClock, *memoryRecorder) {
	t.Helper()
	clock := &stepClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	rec := &memoryRecorder{}
	d := notifications.NewDispatcher(backends, notifications.WithTimeout(time.Second))
	tr := tracker.New(d, policy,
		tracker.WithClock(clock.Now),
		tracker.WithHost("box"),
		tracker.WithCommand("make build"),
		tracker.WithSessionID("sess-1"),
		tracker.WithRecorder(rec),
	)
	return tr, clock, rec
}

func TestTrackerFullSession(t *testing.T) {
	chat := testsupport.NewFakeBackend("team")
	chat.Kind = notifications.ChannelChat
	push := testsupport.NewFakeBackend("phone")

	tr, clock, rec := newTracker(t, trigger.DeltaPolicy{Threshold: 0.25}, chat, push)
	ctx := context.Background()

	report, err := tr.Init(ctx)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if report.Dispatched {
		t.Fatal("init must not dispatch")
	}

	clock.Step(time.Second)
	if _, err := tr.Start(ctx, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	first, _ := chat.Last()
	if first.Title != "Oven @ box" || !strings.Contains(first.Body, "`make build`") {
		t.Fatalf("unexpected chat start payload %+v", first)
	}
	if p, _ := push.Last(); p.Title != "🔥 Started @ box" {
		t.Fatalf("unexpected push title %q", p.Title)
	}

	clock.Step(10 * time.Second)
	report, err = tr.Progress(ctx, 0.1, "")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if report.Decision.Fire || report.Dispatched {
		t.Fatalf("expected suppression, got %+v", report)
	}

	clock.Step(10 * time.Second)
	report, err = tr.Progress(ctx, 0.5, "halfway")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !report.Dispatched || report.Outcome.Failed() {
		t.Fatalf("expected delivered progress, got %+v", report)
	}
	if p, _ := push.Last(); !strings.Contains(p.Body, "50%") || !strings.Contains(p.Body, "halfway") {
		t.Fatalf("unexpected push progress body %q", p.Body)
	}

	clock.Step(5 * time.Second)
	if _, err := tr.Terminate(ctx, ""); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if tr.Phase() != lifecycle.PhaseTerminated {
		t.Fatalf("phase = %s", tr.Phase())
	}
	last, _ := push.Last()
	if last.Status != notifications.StatusDone || !strings.Contains(last.Body, "25s") {
		t.Fatalf("unexpected done payload %+v", last)
	}

	if chat.Calls() != 3 || push.Calls() != 3 {
		t.Fatalf("calls chat=%d push=%d, want 3 each", chat.Calls(), push.Calls())
	}
	want := []lifecycle.Signal{lifecycle.SignalStart, lifecycle.SignalProgress, lifecycle.SignalTerminate}
	if len(rec.signals) != len(want) {
		t.Fatalf("recorded %v, want %v", rec.signals, want)
	}
	for i := range want {
		if rec.signals[i] != want[i] || rec.ids[i] != "sess-1" {
			t.Fatalf("record %d = %s/%s", i, rec.signals[i], rec.ids[i])
		}
	}
}

func TestTrackerRejectsInvalidTransitions(t *testing.T) {
	push := testsupport.NewFakeBackend("phone")
	tr, clock, _ := newTracker(t, nil, push)
	ctx := context.Background()

	if _, err := tr.Start(ctx, ""); !services.IsInvalidTransition(err) {
		t.Fatalf("start before init: expected invalid transition, got %v", err)
	}
	if _, err := tr.Init(ctx); err != nil {
		t.Fatal(err)
	}
	clock.Step(time.Second)
	if _, err := tr.Start(ctx, ""); err != nil {
		t.Fatal(err)
	}

	ev := lifecycle.Event{Signal: lifecycle.SignalProgress, At: clock.Now().Add(-time.Minute), Progress: 0.5}
	if _, err := tr.Handle(ctx, ev); !services.IsInvalidTransition(err) {
		t.Fatalf("backwards timestamp: expected invalid transition, got %v", err)
	}

	clock.Step(time.Second)
	if _, err := tr.Terminate(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Progress(ctx, 0.9, ""); !services.IsInvalidTransition(err) {
		t.Fatalf("progress after terminate: expected invalid transition, got %v", err)
	}
	if push.Calls() != 2 {
		t.Fatalf("calls = %d, want 2", push.Calls())
	}
}

func TestTrackerFailureIsReportNotError(t *testing.T) {
	broken := testsupport.NewFakeBackend("broken")
	broken.Fail = "HTTP 500"
	ok := testsupport.NewFakeBackend("ok")
	tr, clock, rec := newTracker(t, nil, broken, ok)
	rec.err = errors.New("disk full")
	ctx := context.Background()

	if _, err := tr.Init(ctx); err != nil {
		t.Fatal(err)
	}
	clock.Step(time.Second)
	if _, err := tr.Start(ctx, ""); err != nil {
		t.Fatal(err)
	}
	clock.Step(time.Second)
	report, err := tr.Fail(ctx, errors.New("exit status 2"), "")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if !report.Outcome.Failed() || report.Outcome.Succeeded() != 1 {
		t.Fatalf("unexpected outcome %+v", report.Outcome)
	}
	if !errors.Is(report.Outcome.Err(), services.ErrDelivery) {
		t.Fatalf("expected delivery error marker, got %v", report.Outcome.Err())
	}
	last, _ := ok.Last()
	if last.Status != notifications.StatusError || !strings.Contains(last.Body, "exit status 2") {
		t.Fatalf("unexpected error payload %+v", last)
	}
}

func TestTrackerWithoutBackends(t *testing.T) {
	tr, clock, rec := newTracker(t, nil)
	ctx := context.Background()
	if _, err := tr.Init(ctx); err != nil {
		t.Fatal(err)
	}
	clock.Step(time.Second)
	report, err := tr.Start(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if !report.Decision.Fire || report.Dispatched {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(rec.signals) != 0 {
		t.Fatalf("nothing should be recorded, got %v", rec.signals)
	}
}

func TestTrackerGeneratesSessionID(t *testing.T) {
	a := tracker.New(nil, nil)
	b := tracker.New(nil, nil)
	if a.SessionID() == "" || a.SessionID() == b.SessionID() {
		t.Fatalf("expected unique session ids, got %q and %q", a.SessionID(), b.SessionID())
	}
}

func TestTrackerJournalsToHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTrigger("interval", 30, 0.5))
	store := testsupport.MustOpenHistory(t, cfg)
	policy, err := trigger.FromConfig(cfg.Trigger)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	broken := testsupport.NewFakeBackend("broken")
	broken.Fail = "HTTP 503"
	d := notifications.NewDispatcher([]notifications.Backend{testsupport.NewFakeBackend("phone"), broken})
	clock := &stepClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tr := tracker.New(d, policy, tracker.WithClock(clock.Now), tracker.WithRecorder(store), tracker.WithHost(cfg.Notifications.Host))
	ctx := context.Background()

	if _, err := tr.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Start(ctx, ""); err != nil {
		t.Fatal(err)
	}
	clock.Step(10 * time.Second)
	if report, err := tr.Progress(ctx, 0.2, ""); err != nil || report.Dispatched {
		t.Fatalf("progress inside interval and below threshold: %+v %v", report, err)
	}
	clock.Step(30 * time.Second)
	if report, err := tr.Progress(ctx, 0.3, ""); err != nil || !report.Dispatched {
		t.Fatalf("progress after interval: %+v %v", report, err)
	}

	entries, err := store.Session(ctx, tr.SessionID())
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 journal rows, got %d", len(entries))
	}
	if entries[0].Signal != "start" || entries[0].Backend != "phone" || !entries[0].OK {
		t.Fatalf("unexpected first row %+v", entries[0])
	}
	if entries[3].Signal != "progress" || entries[3].Backend != "broken" || entries[3].OK || entries[3].Error != "HTTP 503" {
		t.Fatalf("unexpected last row %+v", entries[3])
	}
}
