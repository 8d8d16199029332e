package identitysdk

import (
	"regexp"
	"strings"
)

// Envelope status convention shared with the service.
const (
	StatusFailure   = 0
	StatusOK        = 1
	StatusChallenge = 2
)

// IdentifierKind tags a classified identifier.
type IdentifierKind string

const (
	KindEmail        IdentifierKind = "email"
	KindMobile       IdentifierKind = "mobile"
	KindUnrecognized IdentifierKind = "unrecognized"
)

// DefaultMobileDigits is the digit count a purely numeric string must have
// to classify as a mobile number.
const DefaultMobileDigits = 10

// Identifier is a raw input string with its classification. The value is
// normalised (trimmed, emails lowercased), so it is safe to send on the
// wire as-is.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Classify tags a raw identifier as email, mobile, or unrecognized. Pure:
// callers must re-classify whenever the raw input changes rather than cache
// a result across edits.
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

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Profile is the user record returned by the service.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Mobile    string `json:"mobile"`
	Role      string `json:"role"`
}

// ChallengeReceipt reports a successful code request.
type ChallengeReceipt struct {
	OTPExpiry int64 `json:"otp_expiry"` // unix seconds
	ResendIn  int   `json:"resend_in"`  // seconds until resend is allowed
}

// SessionGrant is the unit handed back after full authentication.
type SessionGrant struct {
	Token string  `json:"token"`
	User  Profile `json:"data"`
}

// RegisterRequest is the registration form plus the verification proofs
// minted by VerifyCode for each submitted channel.
type RegisterRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email,omitempty"`
	Mobile       string `json:"mobile"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code,omitempty"`

	MobileProof string `json:"mobile_proof"`
	EmailProof  string `json:"email_proof,omitempty"`
}
