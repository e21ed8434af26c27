package persist

import (
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
)

const (
	TimestampLayout = "20060102_150405"
	suffixLen       = 6
	unknownName     = "unknown"
)

// SanitizeName makes s safe as a file name fragment: spaces become
// underscores and anything other than letters, digits, '_' and '-' is dropped.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return unknownName
	}
	return out
}

// uniqueSuffix is the random tail of a ULID for t, lowercased.
func uniqueSuffix(t time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
	return strings.ToLower(id[len(id)-suffixLen:])
}

// NewID returns a ULID for t. ULIDs sort by creation time.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
