// Package redact strips personally identifying content before anything is
// persisted to the memory store.
//
// It provides two pure functions: Redact masks PII substrings in free text,
// and IsSensitiveSource reports whether a source URL must be excluded from
// storage entirely. Neither function errors: text that matches no pattern
// passes through unchanged, and unparsable URLs fall back to substring
// matching.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

// textPattern is one ordered pattern → placeholder substitution.
type textPattern struct {
	re          *regexp.Regexp
	placeholder string
}

// textPatterns are applied in order. Placeholders contain no digits or @, so
// applying the list twice yields the same result (Redact is idempotent).
var textPatterns = []textPattern{
	// email addresses
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL]"},
	// Japanese mobile numbers
	{regexp.MustCompile(`0[789]0[-\s]?\d{4}[-\s]?\d{4}`), "[PHONE]"},
	// Japanese landline numbers
	{regexp.MustCompile(`0\d{1,4}[-\s]?\d{1,4}[-\s]?\d{4}`), "[PHONE]"},
	// card-like 16-digit runs
	{regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`), "[CARD]"},
	// postal codes
	{regexp.MustCompile(`\b\d{3}-\d{4}\b`), "[POSTAL]"},
	// national-ID-like 12-digit runs
	{regexp.MustCompile(`\b\d{4}\s?\d{4}\s?\d{4}\b`), "[ID]"},
}

// excludeDomains are hosts that are always sensitive, matched exactly.
var excludeDomains = map[string]bool{
	"accounts.google.com":       true,
	"myaccount.google.com":      true,
	"security.google.com":       true,
	"id.apple.com":              true,
	"appleid.apple.com":         true,
	"login.microsoftonline.com": true,
	"1password.com":             true,
	"lastpass.com":              true,
}

// excludeURLPatterns are substring patterns matched against the lowercased
// URL.
var excludeURLPatterns = []*regexp.Regexp{
	// banking and payments
	regexp.MustCompile(`bank\.`),
	regexp.MustCompile(`banking\.`),
	regexp.MustCompile(`pay\.`),
	regexp.MustCompile(`payment`),
	regexp.MustCompile(`checkout`),
	regexp.MustCompile(`smbc\.`),
	regexp.MustCompile(`mufg\.`),
	regexp.MustCompile(`mizuho\.`),
	regexp.MustCompile(`rakuten-bank`),
	regexp.MustCompile(`sbi-sec`),
	// authentication
	regexp.MustCompile(`login\.`),
	regexp.MustCompile(`signin`),
	regexp.MustCompile(`sign-in`),
	regexp.MustCompile(`auth\.`),
	regexp.MustCompile(`oauth`),
	regexp.MustCompile(`accounts\.google`),
	regexp.MustCompile(`account\.microsoft`),
	regexp.MustCompile(`id\.apple`),
	// mail and messaging
	regexp.MustCompile(`mail\.google`),
	regexp.MustCompile(`outlook\.live`),
	regexp.MustCompile(`outlook\.com/mail`),
	regexp.MustCompile(`mail\.yahoo`),
	regexp.MustCompile(`icloud\.com/mail`),
	// password managers
	regexp.MustCompile(`password`),
	regexp.MustCompile(`1password`),
	regexp.MustCompile(`lastpass`),
	regexp.MustCompile(`bitwarden`),
	// medical
	regexp.MustCompile(`medical\.`),
	regexp.MustCompile(`hospital\.`),
	regexp.MustCompile(`clinic\.`),
	regexp.MustCompile(`pharmacy`),
	// private and internal addresses
	regexp.MustCompile(`localhost`),
	regexp.MustCompile(`192\.168\.`),
	regexp.MustCompile(`10\.\d+\.\d+\.`),
	regexp.MustCompile(`172\.\d+\.`),
	regexp.MustCompile(`internal\.`),
	regexp.MustCompile(`intranet\.`),
}

// Redact masks PII substrings (email, phone, card-like digit runs, postal
// codes, national-ID-like runs) with bracketed placeholders. It is
// idempotent: Redact(Redact(s)) == Redact(s). Text matching no pattern is
// returned unchanged.
func Redact(text string) string {
	for _, p := range textPatterns {
		text = p.re.ReplaceAllString(text, p.placeholder)
	}
	return text
}

// IsSensitiveSource reports whether a URL points at a source that must not
// be persisted (banking, authentication, mail, password managers, medical,
// private-network addresses). Pure; never errors on malformed input.
func IsSensitiveSource(rawURL string) bool {
	lower := strings.ToLower(rawURL)

	if u, err := url.Parse(rawURL); err == nil {
		if excludeDomains[strings.ToLower(u.Hostname())] {
			return true
		}
	}

	for _, re := range excludeURLPatterns {
		if re.MatchString(lower) {
			return true
		}
	}

	return false
}
