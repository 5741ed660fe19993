package entity

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// defaultUserIDSalt is the salt mixed into the caller-identity hash.
// Deployments should override it via security.user_id_salt; changing it
// invalidates every stored user_id.
const defaultUserIDSalt = "tvpd$wo8"

// Identifier patterns. These are anchored when compiled below.
const (
	patternURLSafe  = `[a-zA-Z0-9_\-]+`
	patternUserID   = `[a-f0-9]+`
	patternDevID    = `[a-f0-9]+`
	patternRegID    = `[a-zA-Z0-9_\-]+`
	patternConfigID = `[a-zA-Z0-9_\-]+`
)

var (
	emailRegex    = regexp.MustCompile(`(?i)^\s*([A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,6})\s*$`)
	userIDRegex   = regexp.MustCompile(`(?i)^\s*(` + patternUserID + `)\s*$`)
	devIDRegex    = regexp.MustCompile(`(?i)^\s*(` + patternDevID + `)\s*$`)
	regIDRegex    = regexp.MustCompile(`(?i)^\s*(` + patternRegID + `)\s*$`)
	configIDRegex = regexp.MustCompile(`(?i)^\s*(` + patternConfigID + `)\s*$`)
)

// userIDSalt guards the configurable salt. Set once at startup.
var (
	userIDSalt   = defaultUserIDSalt
	userIDSaltMu sync.RWMutex
)

// SetUserIDSalt overrides the user-id hashing salt. Call once during
// startup, before any entity is loaded.
func SetUserIDSalt(salt string) {
	if salt == "" {
		return
	}
	userIDSaltMu.Lock()
	userIDSalt = salt
	userIDSaltMu.Unlock()
}

// HashUserID derives the stored user_id from the caller's platform
// identity: hex(sha512(salt + identity)). The raw identity never leaves
// the process.
func HashUserID(identity string) string {
	userIDSaltMu.RLock()
	salt := userIDSalt
	userIDSaltMu.RUnlock()

	sum := sha512.Sum512([]byte(salt + strings.TrimSpace(identity)))
	return hex.EncodeToString(sum[:])
}

// ValidateNotEmpty trims the value and rejects empty strings.
func ValidateNotEmpty(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: expected a non-empty string for %q", ErrInvalidField, field)
	}
	return value, nil
}

// ValidateEmail matches a simple email address pattern and returns the
// trimmed address.
func ValidateEmail(field, value string) (string, error) {
	m := emailRegex.FindStringSubmatch(value)
	if m == nil {
		return "", fmt.Errorf("%w: expected an email address for %q, got %q", ErrInvalidField, field, value)
	}
	return m[1], nil
}

// ValidateUserID matches a hashed user identifier (lowercase hex).
func ValidateUserID(field, value string) (string, error) {
	return matchIdentifier(userIDRegex, "user id", field, value)
}

// ValidateDevID matches a device hardware identifier (lowercase hex).
func ValidateDevID(field, value string) (string, error) {
	return matchIdentifier(devIDRegex, "dev id", field, value)
}

// ValidateRegID matches a push-registration identifier.
func ValidateRegID(field, value string) (string, error) {
	return matchIdentifier(regIDRegex, "reg id", field, value)
}

// ValidateConfigID matches a configuration name.
func ValidateConfigID(field, value string) (string, error) {
	return matchIdentifier(configIDRegex, "config id", field, value)
}

func matchIdentifier(re *regexp.Regexp, what, field, value string) (string, error) {
	m := re.FindStringSubmatch(value)
	if m == nil {
		return "", fmt.Errorf("%w: expected a %s for %q, got %q", ErrInvalidField, what, field, value)
	}
	return m[1], nil
}

// Get returns kv[key] if present and non-empty, else def.
func (kv KV) Get(key, def string) string {
	if v, ok := kv[key]; ok && v != "" {
		return v
	}
	return def
}
