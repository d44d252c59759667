package domain

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxSubscriberNameLength is the longest accepted name, in characters.
const MaxSubscriberNameLength = 256

// forbiddenNameCharacters may never appear in a subscriber name.
const forbiddenNameCharacters = `/()"<>\{}`

// SubscriberName is a validated subscriber display name.
type SubscriberName struct {
	value string
}

// ParseSubscriberName validates raw and returns it wrapped as a SubscriberName.
// The original string is kept as-is; trimming only applies to the checks.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	if !utf8.ValidString(raw) {
		return SubscriberName{}, &ValidationError{Field: "name", Err: ErrInvalidEncoding}
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SubscriberName{}, &ValidationError{Field: "name", Err: ErrEmpty}
	}
	// NFC composes combining sequences so "é" counts once.
	if utf8.RuneCountInString(norm.NFC.String(trimmed)) > MaxSubscriberNameLength {
		return SubscriberName{}, &ValidationError{Field: "name", Err: ErrTooLong}
	}
	if strings.ContainsAny(raw, forbiddenNameCharacters) {
		return SubscriberName{}, &ValidationError{Field: "name", Err: ErrForbiddenCharacter}
	}
	// Surrounding whitespace is tolerated; control characters inside the name are not.
	if strings.ContainsFunc(trimmed, unicode.IsControl) {
		return SubscriberName{}, &ValidationError{Field: "name", Err: ErrForbiddenCharacter}
	}
	return SubscriberName{value: raw}, nil
}

func (n SubscriberName) String() string { return n.value }

// SubscriberEmail is a syntactically valid email address. No DNS or mailbox
// verification is performed.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail validates raw as a bare addr-spec (local@domain).
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if !validEmail(raw) {
		return SubscriberEmail{}, &ValidationError{Field: "email", Err: ErrInvalidFormat}
	}
	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string { return e.value }

func validEmail(raw string) bool {
	if strings.TrimSpace(raw) == "" || raw != strings.TrimSpace(raw) {
		return false
	}

	// Rejects display names ("Ann <ann@x.io>") and anything the parser had to rewrite.
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return false
	}

	at := strings.LastIndex(raw, "@")
	if at <= 0 || at == len(raw)-1 {
		return false
	}
	local, domainPart := raw[:at], raw[at+1:]

	if !validDotSeparated(local) {
		return false
	}
	if !strings.Contains(domainPart, ".") || !validDotSeparated(domainPart) {
		return false
	}
	for _, label := range strings.Split(domainPart, ".") {
		if !validDomainLabel(label) {
			return false
		}
	}
	return true
}

// maxDomainLabelLength is the DNS limit for a single label, in octets.
const maxDomainLabelLength = 63

// validDomainLabel accepts letters and digits, with hyphens only between them.
// Non-ASCII letters are allowed so internationalized domains still parse.
func validDomainLabel(label string) bool {
	if label == "" || len(label) > maxDomainLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, r := range label {
		if r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// validDotSeparated rejects empty input and leading, trailing, or doubled dots.
func validDotSeparated(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

// NewSubscriber is a subscriber that passed validation but has not been stored.
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// ParseNewSubscriber validates both raw fields. The email is checked first so
// callers get the address problem when both fields are bad.
func ParseNewSubscriber(name, email string) (NewSubscriber, error) {
	e, err := ParseSubscriberEmail(email)
	if err != nil {
		return NewSubscriber{}, err
	}
	n, err := ParseSubscriberName(name)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Name: n, Email: e}, nil
}
