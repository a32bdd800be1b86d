// Package keygen produces and validates human-readable license keys.
//
// Keys use the formatted strategy: APP-XXXX-YYYY-ZZZZ, where every segment is
// four characters drawn uniformly from a 32-character alphabet with the
// visually ambiguous characters (0, O, 1, I) removed. Generation is pure with
// respect to the store; uniqueness checking and bounded retries are the
// caller's responsibility, with the database unique index as the final
// authority.
package keygen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Prefix identifies keys issued by this system.
const Prefix = "APP"

// alphabet has exactly 32 characters so a random byte masked to 5 bits maps
// uniformly onto it.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	segmentLength = 4
	segmentCount  = 3
)

var keyPattern = regexp.MustCompile(`^APP-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// ErrInvalidFormat is returned when a key does not match the expected pattern.
var ErrInvalidFormat = errors.New("invalid license key format")

// Generator creates candidate license keys from a random source.
type Generator struct {
	rand io.Reader
}

// New creates a generator backed by crypto/rand.
func New() *Generator {
	return &Generator{rand: rand.Reader}
}

// NewWithRand creates a generator with a caller-supplied random source.
// Tests use this to make generation deterministic.
func NewWithRand(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate returns a candidate key in the form APP-XXXX-YYYY-ZZZZ.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, segmentLength*segmentCount)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	var b strings.Builder
	b.WriteString(Prefix)
	for i, rb := range buf {
		if i%segmentLength == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(alphabet[rb&0x1f])
	}
	return b.String(), nil
}

// Normalize trims surrounding whitespace and uppercases a key as received
// from a client.
func Normalize(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// Validate checks a normalized key against the formatted-strategy pattern.
func Validate(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidFormat
	}
	return nil
}
