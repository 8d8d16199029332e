package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitrine/identity/internal/identity/domain"
	"github.com/vitrine/identity/internal/identity/store"
	"github.com/vitrine/identity/pkg/cryptox"
	"github.com/vitrine/identity/pkg/idx"
	"github.com/vitrine/identity/pkg/slogx"
)

var (
	ErrInvalidIdentifier  = errors.New("invalid_identifier")
	ErrCodeExpired        = errors.New("code_expired")
	ErrCodeMismatch       = errors.New("code_mismatch")
	ErrAttemptsExhausted  = errors.New("attempts_exhausted")
	ErrChannelUnavailable = errors.New("channel_unavailable")
)

// RateLimitedError reports that the resend cooldown for a challenge has not
// elapsed yet.
type RateLimitedError struct {
	RetryIn time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate_limited: retry in %s", e.RetryIn.Round(time.Second))
}

// CodeSender dispatches a one-time code over a channel's transport. The
// actual delivery (SMTP, SMS gateway) lives outside this service.
type CodeSender interface {
	SendCode(ctx context.Context, channel domain.Channel, target, code string, expiresAt time.Time) error
}

// CodeSenderFunc adapts a function to the CodeSender interface.
type CodeSenderFunc func(ctx context.Context, channel domain.Channel, target, code string, expiresAt time.Time) error

func (f CodeSenderFunc) SendCode(ctx context.Context, channel domain.Channel, target, code string, expiresAt time.Time) error {
	return f(ctx, channel, target, code, expiresAt)
}

// OTPService issues and verifies one-time codes for a channel+identifier
// pair. Codes are single-use, attempt-bounded and resend-throttled; at most
// one challenge is active per channel+target.
type OTPService struct {
	Store  store.Store
	Sender CodeSender

	CodeDigits     int           // length of dispatched codes
	CodeTTL        time.Duration // how long a code stays verifiable
	ResendCooldown time.Duration // minimum gap between dispatches
	MaxAttempts    int           // verification attempts per code
	ProofTTL       time.Duration // lifetime of the minted verification proof
	MobileDigits   int           // identifier classification config
}

// classify validates the submitted identifier server-side. The wire kind
// must agree with what the value actually is, and the classified value (a
// lowercased email, for one) becomes the challenge target so proofs bind to
// the normalized form.
func (s *OTPService) classify(kind domain.IdentifierKind, value string) (domain.Channel, string, error) {
	id := domain.Classify(value, s.MobileDigits)
	if id.Kind != kind {
		return "", "", ErrInvalidIdentifier
	}
	channel, ok := domain.ChannelForKind(id.Kind)
	if !ok {
		return "", "", ErrInvalidIdentifier
	}
	return channel, id.Value, nil
}

// ChallengeReceipt is returned on a successful code request.
type ChallengeReceipt struct {
	ExpiresAt time.Time
	ResendIn  time.Duration
}

// RequestCode dispatches a fresh code to the classified identifier and
// records the challenge, superseding any active one for the same channel.
// Returns RateLimitedError while the previous dispatch's cooldown is live.
func (s *OTPService) RequestCode(ctx context.Context, kind domain.IdentifierKind, value string) (ChallengeReceipt, error) {
	channel, target, err := s.classify(kind, value)
	if err != nil {
		return ChallengeReceipt{}, err
	}
	return s.issue(ctx, channel, target, "")
}

// RequestSecondFactorCode dispatches a login second-factor code to the
// user's mobile channel. The challenge is bound to the user so completion is
// only accepted for that login.
func (s *OTPService) RequestSecondFactorCode(ctx context.Context, user domain.User) (ChallengeReceipt, error) {
	if user.Mobile == "" {
		return ChallengeReceipt{}, ErrChannelUnavailable
	}
	return s.issue(ctx, domain.ChannelMobile, user.Mobile, user.ID)
}

func (s *OTPService) issue(ctx context.Context, channel domain.Channel, target, userID string) (ChallengeReceipt, error) {
	now := time.Now()
	log := slogx.FromContext(ctx)

	existing, err := s.Store.Challenges().GetChallenge(ctx, channel, target)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return ChallengeReceipt{}, err
	}
	if err == nil && !existing.Expired(now) && !existing.ResendAllowed(now) {
		return ChallengeReceipt{}, &RateLimitedError{RetryIn: existing.ResendAt.Sub(now)}
	}

	code, err := cryptox.GenerateNumericCode(s.CodeDigits)
	if err != nil {
		return ChallengeReceipt{}, fmt.Errorf("generate code: %w", err)
	}

	challenge := domain.Challenge{
		ID:        idx.New().String(),
		Channel:   channel,
		Target:    target,
		UserID:    userID,
		CodeHash:  cryptox.FingerprintToken(code),
		Attempts:  s.MaxAttempts,
		IssuedAt:  now,
		ResendAt:  now.Add(s.ResendCooldown),
		ExpiresAt: now.Add(s.CodeTTL),
	}

	// Dispatch first so the cooldown only resets on an actual send. A
	// failed dispatch leaves the previous challenge untouched.
	if err := s.Sender.SendCode(ctx, channel, target, code, challenge.ExpiresAt); err != nil {
		log.Warn("code dispatch failed", "channel", channel, "err", err)
		return ChallengeReceipt{}, fmt.Errorf("%w: %w", ErrChannelUnavailable, err)
	}

	if err := s.Store.Challenges().ReplaceChallenge(ctx, challenge); err != nil {
		return ChallengeReceipt{}, fmt.Errorf("store challenge: %w", err)
	}

	log.Info("challenge issued", "channel", channel, "second_factor", userID != "")
	return ChallengeReceipt{
		ExpiresAt: challenge.ExpiresAt,
		ResendIn:  s.ResendCooldown,
	}, nil
}

// VerifyCode checks a submitted code and, on success, mints a single-use
// verification proof token bound to the channel+identifier. The challenge is
// destroyed on success, so replaying the same code fails.
func (s *OTPService) VerifyCode(ctx context.Context, kind domain.IdentifierKind, value, code string) (string, error) {
	channel, target, err := s.classify(kind, value)
	if err != nil {
		return "", err
	}

	challenge, err := s.consume(ctx, channel, target, code)
	if err != nil {
		return "", err
	}
	if challenge.UserID != "" {
		// A login second-factor challenge for the same target; the public
		// verify surface must not consume it or mint a proof from it.
		return "", ErrCodeExpired
	}

	proof, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("generate proof token: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Challenges().DeleteChallenge(ctx, challenge.ID); err != nil {
			return err
		}
		return tx.TempTokens().CreateTempToken(ctx, domain.TemporaryToken{
			ID:         idx.New().String(),
			TokenHash:  cryptox.FingerprintToken(proof),
			Purpose:    domain.PurposeVerification,
			Channel:    channel,
			Identifier: target,
			ExpiresAt:  time.Now().Add(s.ProofTTL),
		})
	})
	if err != nil {
		return "", err
	}

	return proof, nil
}

// ConsumeSecondFactorCode verifies an OTP-variant second-factor code for a
// pending login. The challenge must be the one bound to the user.
func (s *OTPService) ConsumeSecondFactorCode(ctx context.Context, user domain.User, code string) error {
	challenge, err := s.consume(ctx, domain.ChannelMobile, user.Mobile, code)
	if err != nil {
		return err
	}
	if challenge.UserID != user.ID {
		// The active challenge for this number belongs to a different
		// flow; the login cannot be completed with it.
		return ErrCodeMismatch
	}
	return s.Store.Challenges().DeleteChallenge(ctx, challenge.ID)
}

// consume validates code against the active challenge for channel+target.
// On a mismatch it burns an attempt; on success it returns the challenge
// without deleting it (callers decide what completion means).
func (s *OTPService) consume(ctx context.Context, channel domain.Channel, target, code string) (domain.Challenge, error) {
	now := time.Now()

	challenge, err := s.Store.Challenges().GetChallenge(ctx, channel, target)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Either never requested, superseded, or already used.
			return domain.Challenge{}, ErrCodeExpired
		}
		return domain.Challenge{}, err
	}

	if challenge.Expired(now) {
		return domain.Challenge{}, ErrCodeExpired
	}
	if challenge.Attempts <= 0 {
		return domain.Challenge{}, ErrAttemptsExhausted
	}

	if !cryptox.CodeEqual(code, challenge.CodeHash) {
		updated, derr := s.Store.Challenges().DecrementChallengeAttempts(ctx, challenge.ID)
		if derr != nil {
			return domain.Challenge{}, derr
		}
		if updated.Attempts <= 0 {
			return domain.Challenge{}, ErrAttemptsExhausted
		}
		return domain.Challenge{}, ErrCodeMismatch
	}

	return challenge, nil
}
