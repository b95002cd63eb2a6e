package record

import (
	"crypto/sha256"
	"strings"

	"github.com/google/uuid"
)

// trackingAlphabet excludes 0/O/1/I/L to keep tracking IDs unambiguous
// when read over the phone or copied from a paper certificate.
const trackingAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// trackingIDLength is the number of alphabet characters after the event
// type prefix.
const trackingIDLength = 7

// NewEventID returns a fresh opaque record identifier.
func NewEventID() string {
	return uuid.New().String()
}

// NewTrackingID derives a human-shareable tracking ID for a new record:
// a one-letter event prefix (B/D/M) followed by seven characters from a
// restricted alphabet, e.g. "B7KQ2MXN".
//
// The ID is derived from the event ID so that record creation stays
// deterministic under replay: the same event ID always yields the same
// tracking ID.
func NewTrackingID(t EventType, eventID string) string {
	sum := sha256.Sum256([]byte("crvs/tracking/v1\x00" + eventID))

	var b strings.Builder
	b.WriteString(trackingPrefix(t))
	for i := 0; i < trackingIDLength; i++ {
		b.WriteByte(trackingAlphabet[int(sum[i])%len(trackingAlphabet)])
	}
	return b.String()
}

func trackingPrefix(t EventType) string {
	switch t {
	case EventBirth:
		return "B"
	case EventDeath:
		return "D"
	case EventMarriage:
		return "M"
	default:
		return "X"
	}
}
