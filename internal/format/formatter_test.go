package format_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"oven/internal/format"
	"oven/internal/lifecycle"
	"oven/internal/notifications"
	"oven/internal/services"
)

var start = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func feed(t *testing.T, f *format.Formatter, events ...lifecycle.Event) []notifications.Payload {
	t.Helper()
	var out []notifications.Payload
	for _, ev := range events {
		p, ok, err := f.Apply(ev)
		if err != nil {
			t.Fatalf("apply %s: %v", ev.Signal, err)
		}
		if ok {
			out = append(out, p)
		}
	}
	return out
}

func initEvent() lifecycle.Event {
	return lifecycle.Event{
		Signal: lifecycle.SignalInit,
		At:     start,
		Meta:   lifecycle.Meta{SessionID: "s-1", Host: "lab-7", Command: "python train.py --epochs 3"},
	}
}

func TestInitProducesNoPayload(t *testing.T) {
	f := format.New(format.PushStyle{})
	p, ok, err := f.Apply(initEvent())
	if err != nil || ok {
		t.Fatalf("init: ok=%v err=%v payload=%+v", ok, err, p)
	}
	if f.Phase() != lifecycle.PhaseIdle {
		t.Fatalf("phase = %s, want idle", f.Phase())
	}
	s := f.Session()
	if s.ID != "s-1" || s.Host != "lab-7" || s.Command != "python train.py --epochs 3" {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestPushLifecycle(t *testing.T) {
	f := format.New(format.PushStyle{})
	payloads := feed(t, f,
		initEvent(),
		lifecycle.Event{Signal: lifecycle.SignalStart, At: start, Description: "warming up"},
		lifecycle.Event{Signal: lifecycle.SignalProgress, At: start.Add(90 * time.Second), Progress: 0.5},
		lifecycle.Event{Signal: lifecycle.SignalTerminate, At: start.Add(3 * time.Minute), Description: "all epochs done"},
	)
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}

	startP := payloads[0]
	if startP.Title != "🔥 Started @ lab-7" {
		t.Fatalf("start title = %q", startP.Title)
	}
	if startP.Body != "🔥 Started\n\npython train.py --epochs 3\n\nwarming up" {
		t.Fatalf("start body = %q", startP.Body)
	}
	if startP.Status != notifications.StatusRunning {
		t.Fatalf("start status = %s", startP.Status)
	}

	progressP := payloads[1]
	if progressP.Body != "🏃 Running ⏱️ 1m30s\n\n50%\n\nwarming up" {
		t.Fatalf("progress body = %q", progressP.Body)
	}

	doneP := payloads[2]
	if doneP.Body != "🔔 Done ⏱️ 3m0s\n\nall epochs done" {
		t.Fatalf("done body = %q", doneP.Body)
	}
	if doneP.Status != notifications.StatusDone {
		t.Fatalf("done status = %s", doneP.Status)
	}
	if f.Phase() != lifecycle.PhaseTerminated {
		t.Fatalf("phase = %s", f.Phase())
	}
}

func TestErrorCarriesErrorText(t *testing.T) {
	f := format.New(format.EmailStyle{})
	payloads := feed(t, f,
		initEvent(),
		lifecycle.Event{Signal: lifecycle.SignalStart, At: start},
		lifecycle.Event{Signal: lifecycle.SignalError, At: start.Add(5 * time.Second), Err: errors.New("exit status 2\n")},
	)
	last := payloads[len(payloads)-1]
	if last.Status != notifications.StatusError {
		t.Fatalf("status = %s", last.Status)
	}
	if last.Body != "❌ Error ⏱️ 5s\n\nexit status 2" {
		t.Fatalf("body = %q", last.Body)
	}
	if last.Title != "Fri 02 Jan 2026 03:04:10 PM UTC @ lab-7" {
		t.Fatalf("subject = %q", last.Title)
	}
}

func TestEmailSubjectUsesEventTime(t *testing.T) {
	f := format.New(format.EmailStyle{})
	payloads := feed(t, f,
		initEvent(),
		lifecycle.Event{Signal: lifecycle.SignalStart, At: start},
		lifecycle.Event{Signal: lifecycle.SignalProgress, At: start.Add(2 * time.Minute), Progress: 0.5},
	)
	if payloads[0].Title != "Fri 02 Jan 2026 03:04:05 PM UTC @ lab-7" {
		t.Fatalf("start subject = %q", payloads[0].Title)
	}
	if payloads[1].Title != "Fri 02 Jan 2026 03:06:05 PM UTC @ lab-7" {
		t.Fatalf("progress subject = %q", payloads[1].Title)
	}
}

func TestChatQuotesDescription(t *testing.T) {
	f := format.New(format.ChatStyle{})
	payloads := feed(t, f,
		initEvent(),
		lifecycle.Event{Signal: lifecycle.SignalStart, At: start, Description: "line one\nline two"},
	)
	p := payloads[0]
	if p.Title != "Oven @ lab-7" {
		t.Fatalf("title = %q", p.Title)
	}
	want := "*🔥 Started*\n\n`python train.py --epochs 3`\n\n> line one\n>\n> line two"
	if p.Body != want {
		t.Fatalf("body = %q, want %q", p.Body, want)
	}
}

func TestBodiesNeverContainEmptyParagraphs(t *testing.T) {
	descriptions := []string{"", "   ", "one", "a\n\n\n\nb", "\n\ntrailing\n\n", "x\n \n \ny"}
	styles := []format.Style{format.ChatStyle{}, format.PushStyle{}, format.EmailStyle{}}
	for _, style := range styles {
		for _, desc := range descriptions {
			f := format.New(style)
			payloads := feed(t, f,
				initEvent(),
				lifecycle.Event{Signal: lifecycle.SignalStart, At: start, Description: desc},
				lifecycle.Event{Signal: lifecycle.SignalProgress, At: start.Add(time.Second), Progress: 0.1, Description: desc},
				lifecycle.Event{Signal: lifecycle.SignalError, At: start.Add(2 * time.Second), Err: errors.New("  ")},
			)
			for _, p := range payloads {
				if strings.Contains(p.Body, "\n\n\n") {
					t.Fatalf("%T %q: double blank line in %q", style, desc, p.Body)
				}
				if strings.HasPrefix(p.Body, "\n") || strings.HasSuffix(p.Body, "\n") {
					t.Fatalf("%T %q: leading or trailing empty section in %q", style, desc, p.Body)
				}
				for _, para := range strings.Split(p.Body, "\n\n") {
					if strings.TrimSpace(para) == "" {
						t.Fatalf("%T %q: empty paragraph in %q", style, desc, p.Body)
					}
				}
			}
		}
	}
}

func TestSignalsAfterTerminalStateAreRejected(t *testing.T) {
	for _, terminal := range []lifecycle.Signal{lifecycle.SignalTerminate, lifecycle.SignalError} {
		f := format.New(format.PushStyle{})
		feed(t, f,
			initEvent(),
			lifecycle.Event{Signal: lifecycle.SignalStart, At: start},
			lifecycle.Event{Signal: terminal, At: start.Add(time.Second)},
		)
		for _, sig := range []lifecycle.Signal{lifecycle.SignalProgress, lifecycle.SignalTerminate, lifecycle.SignalError, lifecycle.SignalStart, lifecycle.SignalInit} {
			_, ok, err := f.Apply(lifecycle.Event{Signal: sig, At: start.Add(time.Minute)})
			if ok || !errors.Is(err, services.ErrInvalidTransition) {
				t.Fatalf("after %s, %s: ok=%v err=%v", terminal, sig, ok, err)
			}
		}
	}
}

func TestBackwardsTimestampRejected(t *testing.T) {
	f := format.New(format.PushStyle{})
	feed(t, f, initEvent(), lifecycle.Event{Signal: lifecycle.SignalStart, At: start.Add(time.Minute)})
	_, _, err := f.Apply(lifecycle.Event{Signal: lifecycle.SignalProgress, At: start, Progress: 0.2})
	if !services.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if f.Phase() != lifecycle.PhaseRunning {
		t.Fatalf("rejected event changed phase to %s", f.Phase())
	}
}

func TestProgressKeepsPreviousDescription(t *testing.T) {
	f := format.New(format.PushStyle{})
	payloads := feed(t, f,
		initEvent(),
		lifecycle.Event{Signal: lifecycle.SignalStart, At: start, Description: "epoch 1"},
		lifecycle.Event{Signal: lifecycle.SignalProgress, At: start.Add(time.Second), Progress: 0.25},
		lifecycle.Event{Signal: lifecycle.SignalProgress, At: start.Add(2 * time.Second), Progress: 0.5, Description: "epoch 2"},
	)
	if !strings.HasSuffix(payloads[1].Body, "epoch 1") {
		t.Fatalf("expected previous description, got %q", payloads[1].Body)
	}
	if !strings.HasSuffix(payloads[2].Body, "epoch 2") {
		t.Fatalf("expected replaced description, got %q", payloads[2].Body)
	}
}

func TestMessage(t *testing.T) {
	p := format.Message(format.EmailStyle{}, "lab-7", start, "disk almost full")
	if p.Status != notifications.StatusInfo {
		t.Fatalf("status = %s", p.Status)
	}
	if !strings.HasSuffix(p.Title, "@ lab-7") || !strings.HasSuffix(p.Body, "disk almost full") {
		t.Fatalf("unexpected message payload: %+v", p)
	}
}
