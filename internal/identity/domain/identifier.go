package domain

import (
	"regexp"
	"strings"
)

// IdentifierKind tags a raw user-supplied identifier.
type IdentifierKind string

const (
	KindEmail        IdentifierKind = "email"
	KindMobile       IdentifierKind = "mobile"
	KindUnrecognized IdentifierKind = "unrecognized"
)

// DefaultMobileDigits is the mobile number length when not configured.
const DefaultMobileDigits = 10

// Identifier is a classified user identifier. A classification is only valid
// for the exact raw input it was derived from; callers must reclassify
// whenever the input changes.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Classify inspects raw and tags it as an email address, a mobile number of
// exactly mobileDigits digits, or unrecognized. Pure, no I/O.
func Classify(raw string, mobileDigits int) Identifier {
	if mobileDigits <= 0 {
		mobileDigits = DefaultMobileDigits
	}

	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return Identifier{Kind: KindUnrecognized, Value: value}
	case isDigits(value) && len(value) == mobileDigits:
		return Identifier{Kind: KindMobile, Value: value}
	case emailPattern.MatchString(value):
		return Identifier{Kind: KindEmail, Value: strings.ToLower(value)}
	default:
		return Identifier{Kind: KindUnrecognized, Value: value}
	}
}

// ParseKind maps a wire "type" field to an IdentifierKind.
func ParseKind(s string) IdentifierKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "email":
		return KindEmail
	case "mobile", "phone":
		return KindMobile
	default:
		return KindUnrecognized
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
