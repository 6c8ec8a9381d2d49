package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"apikey",
	"api_key",
	"credential",
	"authorization",
	"bearer",
}

// Query parameters that commonly carry credentials in CDN or signed URLs.
var sensitiveQueryParams = []string{
	"token",
	"access_token",
	"key",
	"apikey",
	"api_key",
	"sig",
	"signature",
	"x-amz-signature",
	"x-amz-credential",
	"x-goog-signature",
	"auth",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// maskedValue replaces credentials inside a URL.
const maskedValue = "***"

// redactSensitive masks URL credentials in string values and fully redacts
// values under sensitive keys.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strVal == "" {
			return a
		}

		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if looksLikeURL(strVal) {
			if masked := RedactURL(strVal); masked != strVal {
				return slog.String(a.Key, masked)
			}
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

func looksLikeURL(s string) bool {
	return strings.Contains(s, "://")
}

// RedactURL masks the password in the userinfo and the values of sensitive
// query parameters. Values that do not parse as URLs are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	changed := false
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), maskedValue)
		} else {
			u.User = url.User(maskedValue)
		}
		changed = true
	}

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if isSensitiveParam(k) {
				q.Set(k, maskedValue)
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}

	if !changed {
		return raw
	}
	// url.String escapes the mask; logs are easier to read without it.
	return strings.ReplaceAll(u.String(), url.QueryEscape(maskedValue), maskedValue)
}

func isSensitiveParam(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range sensitiveQueryParams {
		if lower == p {
			return true
		}
	}
	return false
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
