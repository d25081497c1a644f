package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"insider-hq/relay/pkg/config"
)

// Redactor masks credentials in log values.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternBearerToken    = "bearer_token"
	PatternEncryptedToken = "encrypted_token"
	PatternAPIKey         = "api_key"
	PatternPassword       = "password"
)

var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternBearerToken, `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternEncryptedToken, `enc_[A-Za-z0-9+/=_\-]+`, "enc_***"},
	{PatternAPIKey, `sk-[a-zA-Z0-9\-_]{8,}`, "sk-***"},
	{PatternPassword, `(password|passwd|pwd)[:=]\s*[^\s&"]+`, "$1=***"},
}

// sensitiveKeys mark attributes whose whole value is masked.
var sensitiveKeys = []string{
	"token", "password", "passwd", "secret",
	"authorization", "api_key", "apikey", "private_key",
}

// NewRedactor creates a Redactor with the built-in patterns plus custom ones.
// An invalid custom pattern is an error.
func NewRedactor(custom []config.RedactPattern) (*Redactor, error) {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p.Name, err)
		}
		replacement := p.Replacement
		if replacement == "" {
			replacement = "***"
		}
		r.patterns = append(r.patterns, &redactPattern{name: p.Name, regex: regex, replacement: replacement})
	}

	return r, nil
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr masks a sensitive key entirely and pattern-redacts string values.
// Groups are redacted recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, maskValue(v.String()))
		}
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, "***")
		}
	}

	return slog.Attr{Key: a.Key, Value: v}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// maskValue keeps a 4 character hint of long values.
func maskValue(v string) string {
	switch {
	case v == "":
		return ""
	case len(v) <= 8:
		return "***"
	default:
		return v[:4] + "***"
	}
}
