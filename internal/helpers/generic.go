package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"strings"
)

func GenerateToken(len int) (string, error) {
	b := make([]byte, len)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// SanitizeUsername lowercases the name and strips everything outside the
// identity store's accepted set: letters, digits, '_', '-', '.'.
func SanitizeUsername(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		}
	}

	return b.String()
}

// IsSafeRedirect reports whether target is a same-origin relative path.
// Anything with a scheme, host, or protocol-relative prefix is rejected so a
// crafted redirect_to cannot send the user off-site.
func IsSafeRedirect(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return false
	}

	u, err := url.Parse(target)
	if err != nil {
		return false
	}

	return u.Scheme == "" && u.Host == ""
}
