package blogs

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// slugAttempts bounds the collision loop: the bare slug plus nine suffixed tries.
const slugAttempts = 10

// Slugify lower-cases s and collapses every run of non-alphanumerics into a
// single hyphen. Titles without any usable character become "post".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "post"
	}
	return out
}

func slugSuffix() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// slugCandidate returns base on the first attempt and base-<8 hex> afterwards.
func slugCandidate(base string, attempt int) (string, error) {
	if attempt == 0 {
		return base, nil
	}
	suffix, err := slugSuffix()
	if err != nil {
		return "", err
	}
	return base + "-" + suffix, nil
}
