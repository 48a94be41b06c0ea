package errors

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxRuleLength bounds the rule text accepted from users.
const MaxRuleLength = 4096

// ValidateRule validates rule text before it is sent to the rule service.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only rules
//   - Valid UTF-8
//   - No control characters other than tab and newline
//   - Maximum length of MaxRuleLength bytes
//
// Grammar checks are left to the rule service.
func ValidateRule(rule string) error {
	if strings.TrimSpace(rule) == "" {
		return New(ErrCodeInvalidInput, "rule cannot be empty")
	}

	if len(rule) > MaxRuleLength {
		return New(ErrCodeInvalidInput, "rule too long (max %d characters)", MaxRuleLength)
	}

	if !utf8.ValidString(rule) {
		return New(ErrCodeInvalidInput, "rule is not valid UTF-8")
	}

	for _, r := range rule {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "rule contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must include a host")
	}

	return nil
}

// ValidateFieldName validates a data field name sent to /evaluate.
// Field names become JSON object keys, so only emptiness and control
// characters are rejected.
func ValidateFieldName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "field name cannot be empty")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "field name %q contains control characters", name)
		}
	}
	return nil
}
