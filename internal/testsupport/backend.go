package testsupport

import (
	"context"
	"sync"
	"time"

	"oven/internal/notifications"
)

// FakeBackend is an in-memory notifications.Backend that records payloads.
type FakeBackend struct {
	BackendName string
	Kind        notifications.Channel
	// Fail makes every Notify return a failed result with this message.
	Fail string
	// Delay blocks Notify until it elapses or the context ends.
	Delay time.Duration
	// Panic makes Notify panic with this value.
	Panic any

	mu       sync.Mutex
	payloads []notifications.Payload
}

// NewFakeBackend returns a push-channel fake that always succeeds.
func NewFakeBackend(name string) *FakeBackend {
	return &FakeBackend{BackendName: name, Kind: notifications.ChannelPush}
}

func (f *FakeBackend) Name() string { return f.BackendName }

func (f *FakeBackend) Channel() notifications.Channel {
	if f.Kind == "" {
		return notifications.ChannelPush
	}
	return f.Kind
}

func (f *FakeBackend) Describe() map[string]string {
	return map[string]string{"kind": "fake", "channel": string(f.Channel())}
}

func (f *FakeBackend) Notify(ctx context.Context, payload notifications.Payload) notifications.Result {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()

	if f.Panic != nil {
		panic(f.Panic)
	}
	if f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return notifications.Failuref(f.BackendName, "timed out: %v", ctx.Err())
		}
	}
	if f.Fail != "" {
		return notifications.Failuref(f.BackendName, "%s", f.Fail)
	}
	return notifications.Success(f.BackendName)
}

// Calls returns the number of Notify invocations.
func (f *FakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

// Payloads returns a copy of every payload received.
func (f *FakeBackend) Payloads() []notifications.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifications.Payload(nil), f.payloads...)
}

// Last returns the most recent payload.
func (f *FakeBackend) Last() (notifications.Payload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return notifications.Payload{}, false
	}
	return f.payloads[len(f.payloads)-1], true
}
