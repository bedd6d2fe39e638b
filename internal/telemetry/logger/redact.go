package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

const redactedValue = "***REDACTED***"

// sensitiveWords mark an attribute key as secret when they appear anywhere
// in it, case-insensitively. Reservation tokens match "token".
var sensitiveWords = [...]string{
	"password", "secret", "token", "credential",
	"authorization", "cookie", "bearer",
}

// authSchemes are Authorization header schemes whose credential is masked.
var authSchemes = [...]string{"Bearer ", "Basic "}

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			out = append(out, redactSensitive(ga))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		v := a.Value.String()
		if masked, ok := maskCredentials(v); ok {
			return slog.String(a.Key, masked)
		}
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}
	return a
}

// maskCredentials hides the credential of an Authorization value and the
// password of a URL with userinfo. It reports whether v was such a value.
func maskCredentials(v string) (string, bool) {
	for _, scheme := range authSchemes {
		if len(v) > len(scheme) && strings.HasPrefix(v, scheme) {
			return scheme + redactedValue, true
		}
	}

	if !strings.Contains(v, "://") || !strings.Contains(v, "@") {
		return "", false
	}
	u, err := url.Parse(v)
	if err != nil || u.User == nil {
		return "", false
	}
	return u.Redacted(), true
}

// RedactString masks credentials embedded in value, such as the password
// of a reservation URL. Other values are returned unchanged.
func RedactString(value string) string {
	if masked, ok := maskCredentials(value); ok {
		return masked
	}
	return value
}

// IsSensitiveKey reports whether an attribute or config key names a secret.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, w := range sensitiveWords {
		if strings.Contains(key, w) {
			return true
		}
	}
	return false
}
