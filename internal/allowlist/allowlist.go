// Package allowlist decides whether an email address belongs to one of the
// domains that may auto-provision an account without an invitation.
package allowlist

import (
	"strings"
	"unicode"
)

// Parse splits a domain list on whitespace and commas and lower-cases each entry.
// Blank entries and a leading "@" are dropped.
func Parse(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimPrefix(f, "@"))
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// IsAllowed reports whether the domain of email is listed in list.
// The comparison is an exact, case-insensitive match on the part after the last "@".
func IsAllowed(list, email string) bool {
	domain := emailDomain(email)
	if domain == "" {
		return false
	}
	for _, d := range Parse(list) {
		if d == domain {
			return true
		}
	}
	return false
}

func emailDomain(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// PolicyFunc adapts a plain function to the resolver's domain policy port.
type PolicyFunc func(list, email string) bool

func (f PolicyFunc) IsAllowed(list, email string) bool { return f(list, email) }

// Default is the policy backed by IsAllowed.
var Default = PolicyFunc(IsAllowed)
