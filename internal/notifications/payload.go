package notifications

import "time"

// DefaultRequestTimeout bounds every backend call unless configuration
// overrides it.
const DefaultRequestTimeout = 10 * time.Second

// Channel groups backends that share formatting conventions.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// Status is the lifecycle marker carried by a payload.
type Status string

const (
	StatusRunning Status = "running"
	StatusError   Status = "error"
	StatusDone    Status = "done"
	StatusInfo    Status = "info"
)

// Payload is the rendered notification for one channel.
type Payload struct {
	Title  string
	Body   string
	Status Status
	At     time.Time
}
