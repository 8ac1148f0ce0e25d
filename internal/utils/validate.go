package utils // validation helpers shared by the auth, inquiry and newsletter handlers

import (
    "regexp"
    "strings"
    "unicode"
)

// emailRe accepts the usual local@domain.tld shape.  It deliberately stays
// loose; the authoritative check is delivery, not grammar.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// usernameRe restricts usernames to letters, numbers, dots, hyphens and
// underscores.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidEmail reports whether s looks like an email address.  Callers are
// expected to trim whitespace first.
func ValidEmail(s string) bool {
    return emailRe.MatchString(s)
}

// ValidUsernameLength reports whether the username is 3-50 characters long.
func ValidUsernameLength(s string) bool {
    return len(s) >= 3 && len(s) <= 50
}

// ValidUsernameCharset reports whether the username uses only the allowed
// character set.
func ValidUsernameCharset(s string) bool {
    return usernameRe.MatchString(s)
}

// StrongPassword reports whether the password is at least 8 characters and
// contains at least one uppercase letter and one digit.
func StrongPassword(s string) bool {
    if len(s) < 8 {
        return false
    }
    hasUpper, hasDigit := false, false
    for _, r := range s {
        switch {
        case unicode.IsUpper(r):
            hasUpper = true
        case unicode.IsDigit(r):
            hasDigit = true
        }
    }
    return hasUpper && hasDigit
}

// NormalizeEmail lowercases and trims an email address so lookups and
// uniqueness checks behave consistently.
func NormalizeEmail(s string) string {
    return strings.ToLower(strings.TrimSpace(s))
}
