package utils

import (
	"regexp"
)

const redacted = "[REDACTED]"

var (
	bearerPattern     = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`)
	privateKeyPattern = regexp.MustCompile(`\b(0x)?[0-9a-fA-F]{64}\b`)
	secretKeyPattern  = regexp.MustCompile(`(?i)(secret|password|token|key)`)
)

// Redact returns a copy of v with credentials masked: map entries whose key
// names a secret, bearer tokens, and 64-hex strings the length of a private
// key. Unknown types pass through unchanged.
func Redact(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return redactString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if secretKeyPattern.MatchString(k) {
				out[k] = redacted
				continue
			}
			out[k] = Redact(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if secretKeyPattern.MatchString(k) {
				out[k] = redacted
				continue
			}
			out[k] = redactString(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Redact(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = redactString(val)
		}
		return out
	case []ValidationError:
		out := make([]ValidationError, len(t))
		for i, e := range t {
			out[i] = ValidationError{Field: e.Field, Tag: e.Tag, Message: redactString(e.Message)}
		}
		return out
	default:
		return v
	}
}

func redactString(s string) string {
	s = bearerPattern.ReplaceAllString(s, redacted)
	return privateKeyPattern.ReplaceAllString(s, redacted)
}
