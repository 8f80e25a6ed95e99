// Package ids derives short todo identifiers and the unique prefixes used
// to refer to them on the command line.
package ids

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
	"time"
)

// DefaultLength is the standard length for generated IDs.
const DefaultLength = 8

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generate returns a lowercase base32 ID of at most length characters
// derived from input. The same input always yields the same ID.
func Generate(input string, length int) string {
	if length <= 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(input))
	encoded := encoding.EncodeToString(sum[:])
	if length < len(encoded) {
		encoded = encoded[:length]
	}
	return strings.ToLower(encoded)
}

// GenerateWithTimestamp mixes a nanosecond timestamp into input so that
// identical texts created at different times get different IDs.
func GenerateWithTimestamp(input string, timestamp time.Time, length int) string {
	return Generate(input+"\x00"+timestamp.UTC().Format(time.RFC3339Nano), length)
}
