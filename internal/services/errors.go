package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks malformed or placeholder backend credentials.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidTransition marks a lifecycle signal fed out of order.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrDelivery marks a failed notification delivery.
	ErrDelivery = errors.New("delivery failure")
	// ErrTimeout marks a delivery that exceeded the request timeout.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker. The marker should be one of the exported
// sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrDelivery
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsConfiguration reports whether err carries the configuration marker.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsInvalidTransition reports whether err carries the lifecycle marker.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
