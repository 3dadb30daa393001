package http

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxUsernameLen = 20
	maxEmailLen    = 50
	minPasswordLen = 7
	maxPasswordLen = 50
	maxTextLen     = 512
)

// fieldErrors collects per-field validation messages.
type fieldErrors map[string]string

func (f fieldErrors) check(ok bool, field, msg string) {
	if !ok {
		if _, seen := f[field]; !seen {
			f[field] = msg
		}
	}
}

func (f fieldErrors) username(field, v string) {
	n := utf8.RuneCountInString(v)
	f.check(strings.TrimSpace(v) != "", field, "is required")
	f.check(n <= maxUsernameLen, field, "must be at most 20 characters")
}

func (f fieldErrors) email(v string) {
	f.check(v != "", "email", "is required")
	f.check(utf8.RuneCountInString(v) <= maxEmailLen, "email", "must be at most 50 characters")
	addr, err := mail.ParseAddress(v)
	f.check(err == nil && addr.Address == v, "email", "must be a valid email address")
}

func (f fieldErrors) password(field, v string) {
	n := utf8.RuneCountInString(v)
	f.check(n >= minPasswordLen && n <= maxPasswordLen, field, "must be between 7 and 50 characters")
}

func (f fieldErrors) text(v string) {
	f.check(strings.TrimSpace(v) != "", "text", "is required")
	f.check(utf8.RuneCountInString(v) <= maxTextLen, "text", "must be at most 512 characters")
}

func (f fieldErrors) id(field string, v int64) {
	f.check(v > 0, field, "is required")
}
