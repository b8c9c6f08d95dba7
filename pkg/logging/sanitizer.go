package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// National identity card numbers (Maldivian format: A followed by six digits).
	nationalIDPattern = regexp.MustCompile(`\b[A-Za-z]\d{6}\b`)

	// Phone numbers: seven or more digits, optionally prefixed with +country code
	// and separated by spaces or dashes.
	phonePattern = regexp.MustCompile(`(\+\d{1,3}[\s-]?)?\d[\d\s-]{5,}\d`)

	// Email addresses.
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Passwords embedded in connection strings (user:pass@host).
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// MaskContact redacts a phone number down to its last two digits so log
// lines stay correlatable without exposing the full number.
func MaskContact(contact string) string {
	if len(contact) <= 2 {
		return contact
	}
	masked := make([]byte, len(contact)-2)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + contact[len(contact)-2:]
}

// SanitizePII removes directory PII (national IDs, phone numbers, emails)
// from a string before it reaches a log line.
func SanitizePII(s string) string {
	if s == "" {
		return ""
	}
	sanitized := nationalIDPattern.ReplaceAllString(s, RedactedText)
	sanitized = emailPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = phonePattern.ReplaceAllString(sanitized, RedactedText)
	return sanitized
}

// SanitizeError sanitizes error messages that might contain sensitive data.
// Use this before logging any error from database operations.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := connStringPattern.ReplaceAllString(err.Error(), "://"+RedactedText+"@"+RedactedText)
	return SanitizePII(sanitized)
}

// SanitizeConnectionString removes credentials from connection strings.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	return connStringPattern.ReplaceAllString(connStr, "://"+RedactedText+"@"+RedactedText)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
