package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength     = 255
	maxEmailLength    = 255
	minPasswordLength = 8
	maxPasswordLength = 128
)

var (
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	lowercaseRe = regexp.MustCompile(`[a-z]`)
	digitRe     = regexp.MustCompile(`[0-9]`)
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(v *ValidationError, field, name string) {
	switch {
	case name == "":
		v.Add(field, fmt.Sprintf("The %s field is required.", field))
	case utf8.RuneCountInString(name) > maxNameLength:
		v.Add(field, fmt.Sprintf("The %s field must not be greater than %d characters.", field, maxNameLength))
	}
}

func validateEmail(v *ValidationError, field, email string) {
	if email == "" {
		v.Add(field, fmt.Sprintf("The %s field is required.", field))
		return
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		v.Add(field, fmt.Sprintf("The %s field must not be greater than %d characters.", field, maxEmailLength))
		return
	}
	addr, err := mail.ParseAddress(email)
	// Reject display-name forms like "Ann <ann@x.io>"; only a bare address is accepted.
	if err != nil || addr.Address != email {
		v.Add(field, fmt.Sprintf("The %s field must be a valid email address.", field))
	}
}

func validatePassword(v *ValidationError, field, label, password string) {
	if password == "" {
		v.Add(field, fmt.Sprintf("The %s field is required.", label))
		return
	}
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		v.Add(field, fmt.Sprintf("The %s field must be at least %d characters.", label, minPasswordLength))
	}
	if n > maxPasswordLength {
		v.Add(field, fmt.Sprintf("The %s field must not be greater than %d characters.", label, maxPasswordLength))
	}
	if !uppercaseRe.MatchString(password) || !lowercaseRe.MatchString(password) {
		v.Add(field, fmt.Sprintf("The %s field must contain at least one uppercase and one lowercase letter.", label))
	}
	if !digitRe.MatchString(password) {
		v.Add(field, fmt.Sprintf("The %s field must contain at least one number.", label))
	}
}

func requirePresent(v *ValidationError, field, value string) {
	if value == "" {
		v.Add(field, fmt.Sprintf("The %s field is required.", strings.ReplaceAll(field, "_", " ")))
	}
}
