package stream

import (
	"errors"
	"fmt"
)

// DefaultMaxMessageBytes is the single-message limit of the target event hubs.
const DefaultMaxMessageBytes = 1 << 20

// ErrMessageTooLarge is returned when a payload exceeds the transport limit.
// Oversized payloads are rejected, not split.
var ErrMessageTooLarge = errors.New("message too large")

// CheckSize returns ErrMessageTooLarge if payload is longer than maxBytes.
// A non-positive maxBytes disables the check.
func CheckSize(payload []byte, maxBytes int) error {
	if maxBytes > 0 && len(payload) > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrMessageTooLarge, len(payload), maxBytes)
	}
	return nil
}
