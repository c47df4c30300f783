// Package redact removes credentials from strings before they are logged.
// Connection URLs carry passwords in their userinfo section, so anything
// that logs a database URL must pass it through here first.
package redact

import (
	"net/url"
	"regexp"
)

// Placeholder substituted for redacted credentials.
const Placeholder = "[REDACTED]"

// dbConnRegex catches credential-bearing connection strings embedded in
// free-form text, e.g. inside error messages from the driver.
var dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)

// URL masks the password in a connection URL while keeping the scheme,
// user, host, and database visible for diagnostics. Unparseable input is
// fully replaced rather than returned as-is.
func URL(raw string) string {
	if raw == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Placeholder
	}

	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}

// String replaces credential-bearing connection strings found anywhere in
// the input with the placeholder.
func String(input string) string {
	if input == "" {
		return input
	}
	return dbConnRegex.ReplaceAllString(input, "${1}://"+Placeholder+"@")
}

// Error redacts an error's message, tolerating nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
