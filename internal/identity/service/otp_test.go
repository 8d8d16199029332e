package service

import (
	"context"
	"testing"
	"time"

	"github.com/vitrine/identity/internal/identity/domain"
	"github.com/vitrine/identity/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestRequestCodeRejectsUnrecognisedIdentifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newOTPService(newTestStore(t), &captureSender{})

	_, err := svc.RequestCode(ctx, domain.KindUnrecognized, "hello")
	require.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestVerifyCodeMintsSingleUseProof(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sender := &captureSender{}
	svc := newOTPService(newTestStore(t), sender)

	receipt, err := svc.RequestCode(ctx, domain.KindMobile, "9876543210")
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, receipt.ResendIn)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), receipt.ExpiresAt, 2*time.Second)

	code := sender.last(t).Code
	require.Len(t, code, 4)

	proof, err := svc.VerifyCode(ctx, domain.KindMobile, "9876543210", code)
	require.NoError(t, err)
	require.NotEmpty(t, proof)

	// Replaying the same correct code must fail: the challenge is gone.
	_, err = svc.VerifyCode(ctx, domain.KindMobile, "9876543210", code)
	require.ErrorIs(t, err, ErrCodeExpired)
}

func TestResendCooldownEnforced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newOTPService(newTestStore(t), &captureSender{})

	_, err := svc.RequestCode(ctx, domain.KindEmail, "a@b.com")
	require.NoError(t, err)

	_, err = svc.RequestCode(ctx, domain.KindEmail, "a@b.com")
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.Greater(t, rl.RetryIn, time.Duration(0))
	require.LessOrEqual(t, rl.RetryIn, 30*time.Second)
}

func TestNewRequestSupersedesActiveChallenge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sender := &captureSender{}
	svc := newOTPService(newTestStore(t), sender)
	svc.ResendCooldown = 0 // allow immediate resend for this test

	_, err := svc.RequestCode(ctx, domain.KindMobile, "9876543210")
	require.NoError(t, err)
	oldCode := sender.last(t).Code

	_, err = svc.RequestCode(ctx, domain.KindMobile, "9876543210")
	require.NoError(t, err)
	newCode := sender.last(t).Code

	// The superseded code no longer verifies, even though it was correct
	// for the prior challenge. (Skip when the fresh code happens to
	// collide with the old one.)
	if oldCode != newCode {
		_, err = svc.VerifyCode(ctx, domain.KindMobile, "9876543210", oldCode)
		require.Error(t, err)
	}

	_, err = svc.VerifyCode(ctx, domain.KindMobile, "9876543210", newCode)
	require.NoError(t, err)
}

func TestVerifyCodeBurnsAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sender := &captureSender{}
	svc := newOTPService(newTestStore(t), sender)
	svc.MaxAttempts = 2

	_, err := svc.RequestCode(ctx, domain.KindEmail, "a@b.com")
	require.NoError(t, err)
	code := sender.last(t).Code

	wrong := "0000"
	if code == wrong {
		wrong = "0001"
	}

	_, err = svc.VerifyCode(ctx, domain.KindEmail, "a@b.com", wrong)
	require.ErrorIs(t, err, ErrCodeMismatch)

	_, err = svc.VerifyCode(ctx, domain.KindEmail, "a@b.com", wrong)
	require.ErrorIs(t, err, ErrAttemptsExhausted)

	// Budget exhausted: even the correct code needs a fresh challenge.
	_, err = svc.VerifyCode(ctx, domain.KindEmail, "a@b.com", code)
	require.ErrorIs(t, err, ErrAttemptsExhausted)
}

func TestDispatchFailureLeavesStateUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sender := &captureSender{}
	svc := newOTPService(newTestStore(t), sender)
	svc.ResendCooldown = 0

	_, err := svc.RequestCode(ctx, domain.KindMobile, "9876543210")
	require.NoError(t, err)
	code := sender.last(t).Code

	sender.fail = true
	_, err = svc.RequestCode(ctx, domain.KindMobile, "9876543210")
	require.ErrorIs(t, err, ErrChannelUnavailable)
	sender.fail = false

	// The earlier challenge survived the failed dispatch.
	proof, err := svc.VerifyCode(ctx, domain.KindMobile, "9876543210", code)
	require.NoError(t, err)
	require.NotEmpty(t, proof)
}

func TestChallengesAreChannelScoped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sender := &captureSender{}
	svc := newOTPService(newTestStore(t), sender)

	_, err := svc.RequestCode(ctx, domain.KindMobile, "9876543210")
	require.NoError(t, err)
	mobileCode := sender.last(t).Code

	_, err = svc.RequestCode(ctx, domain.KindEmail, "a@b.com")
	require.NoError(t, err)
	emailCode := sender.last(t).Code

	// Both challenges stay live independently.
	_, err = svc.VerifyCode(ctx, domain.KindMobile, "9876543210", mobileCode)
	require.NoError(t, err)
	_, err = svc.VerifyCode(ctx, domain.KindEmail, "a@b.com", emailCode)
	require.NoError(t, err)
}

func TestRequestCodeRejectsMismatchedKind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sender := &captureSender{}
	svc := newOTPService(newTestStore(t), sender)

	// The wire kind is not trusted: the value must actually classify as
	// what the client claims, and nothing is dispatched otherwise.
	_, err := svc.RequestCode(ctx, domain.KindMobile, "not-a-number")
	require.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = svc.RequestCode(ctx, domain.KindEmail, "9876543210")
	require.ErrorIs(t, err, ErrInvalidIdentifier)

	require.Empty(t, sender.codes)
}

func TestVerifyCodeNormalisesEmailTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sender := &captureSender{}
	st := newTestStore(t)
	svc := newOTPService(st, sender)

	_, err := svc.RequestCode(ctx, domain.KindEmail, "Ada@Example.com")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", sender.last(t).Target)

	// Verification accepts the mixed-case form and binds the proof to the
	// lowercased identifier.
	proof, err := svc.VerifyCode(ctx, domain.KindEmail, "Ada@Example.com", sender.last(t).Code)
	require.NoError(t, err)

	record, err := st.TempTokens().GetTempTokenByHash(ctx, cryptox.FingerprintToken(proof))
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", record.Identifier)
}

func TestPublicVerifyCannotSpendLoginChallenge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	sender := &captureSender{}
	svc, _ := newAuthService(t, st, sender)

	seedUser(t, st, domain.User{
		FirstName:    "Ada",
		LastName:     "Okafor",
		Mobile:       "9876543210",
		SecondFactor: domain.SecondFactorOTP,
	})

	_, err := svc.Login(ctx, domain.KindMobile, "9876543210", "correct-horse-battery", "")
	require.NoError(t, err)
	code := sender.last(t).Code

	// The channel-verification surface must not consume the pending login
	// challenge or mint an ownership proof from it.
	_, err = svc.OTP.VerifyCode(ctx, domain.KindMobile, "9876543210", code)
	require.ErrorIs(t, err, ErrCodeExpired)

	// The login itself still completes with the same code.
	result, err := svc.Login(ctx, domain.KindMobile, "9876543210", "correct-horse-battery", code)
	require.NoError(t, err)
	require.NotNil(t, result.Grant)
}
