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

	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrDuplicateIdentifier = errors.New("duplicate_identifier")
	ErrInvalidTempToken    = errors.New("invalid_temp_token")
)

// ValidationError reports a locally recoverable input problem. The message
// is safe to surface to the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalidInput(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// AuthService validates credentials and runs the conditional second-factor
// sub-protocol before a session is issued.
type AuthService struct {
	Store    store.Store
	OTP      *OTPService
	Sessions *SessionService

	MobileDigits int // identifier classification config
}

// LoginResult is either a completed session grant or a pending second-factor
// challenge, never both.
type LoginResult struct {
	Grant        *SessionGrant
	SecondFactor domain.SecondFactorKind // set when a challenge is pending
}

// Login authenticates an identifier+password pair. When the user has a
// second factor configured and no code was supplied, a challenge is started
// and the result reports which variant the client must satisfy. A failed
// second-factor code never invalidates the password credential: the caller
// may retry with a fresh code.
func (s *AuthService) Login(ctx context.Context, kind domain.IdentifierKind, value, password, twoFactorCode string) (LoginResult, error) {
	log := slogx.FromContext(ctx)

	// Classify server-side: a value that is not what the wire kind claims
	// gets the same generic rejection as a bad password.
	id := domain.Classify(value, s.MobileDigits)
	if id.Kind != kind {
		return LoginResult{}, ErrInvalidCredentials
	}
	channel, ok := domain.ChannelForKind(id.Kind)
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByIdentifier(ctx, channel, id.Value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Generic rejection; never reveal whether the identifier
			// exists.
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Info("login rejected", "user_id", user.ID)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if user.SecondFactor == domain.SecondFactorNone {
		grant, err := s.Sessions.Issue(ctx, user)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Grant: &grant}, nil
	}

	if twoFactorCode == "" {
		if err := s.startSecondFactor(ctx, user); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{SecondFactor: user.SecondFactor}, nil
	}

	if err := s.verifySecondFactor(ctx, user, twoFactorCode); err != nil {
		return LoginResult{}, err
	}

	grant, err := s.Sessions.Issue(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Grant: &grant}, nil
}

// startSecondFactor opens the challenge for the user's configured variant.
// An already-active challenge is kept: repeated password submissions must
// not reset the attempt budget or re-dispatch inside the cooldown.
func (s *AuthService) startSecondFactor(ctx context.Context, user domain.User) error {
	switch user.SecondFactor {
	case domain.SecondFactorOTP:
		_, err := s.OTP.RequestSecondFactorCode(ctx, user)
		var rl *RateLimitedError
		if errors.As(err, &rl) {
			// Challenge already live; the client keeps its cooldown.
			return nil
		}
		return err

	case domain.SecondFactorAuthenticator:
		// No dispatch and no resend for the authenticator variant, but
		// expiry and attempt semantics match the OTP one via the same
		// challenge row. Keep an unexpired challenge as-is.
		now := time.Now()
		existing, err := s.Store.Challenges().GetChallenge(ctx, domain.ChannelAuthenticator, user.ID)
		if err == nil && !existing.Expired(now) {
			return nil
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return s.Store.Challenges().ReplaceChallenge(ctx, domain.Challenge{
			ID:        idx.New().String(),
			Channel:   domain.ChannelAuthenticator,
			Target:    user.ID,
			UserID:    user.ID,
			Attempts:  s.OTP.MaxAttempts,
			IssuedAt:  now,
			ResendAt:  now,
			ExpiresAt: now.Add(s.OTP.CodeTTL),
		})

	default:
		return fmt.Errorf("unknown second factor kind %q", user.SecondFactor)
	}
}

func (s *AuthService) verifySecondFactor(ctx context.Context, user domain.User, code string) error {
	switch user.SecondFactor {
	case domain.SecondFactorOTP:
		return s.OTP.ConsumeSecondFactorCode(ctx, user, code)

	case domain.SecondFactorAuthenticator:
		return s.verifyAuthenticatorCode(ctx, user, code)

	default:
		return fmt.Errorf("unknown second factor kind %q", user.SecondFactor)
	}
}

// verifyAuthenticatorCode validates a TOTP code against the user's enrolled
// secret, burning challenge attempts exactly like the OTP variant.
func (s *AuthService) verifyAuthenticatorCode(ctx context.Context, user domain.User, code string) error {
	now := time.Now()

	challenge, err := s.Store.Challenges().GetChallenge(ctx, domain.ChannelAuthenticator, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCodeExpired
		}
		return err
	}
	if challenge.Expired(now) {
		return ErrCodeExpired
	}
	if challenge.Attempts <= 0 {
		return ErrAttemptsExhausted
	}

	if user.TOTPSecret == nil || !totp.Validate(code, *user.TOTPSecret) {
		updated, derr := s.Store.Challenges().DecrementChallengeAttempts(ctx, challenge.ID)
		if derr != nil {
			return derr
		}
		if updated.Attempts <= 0 {
			return ErrAttemptsExhausted
		}
		return ErrCodeMismatch
	}

	return s.Store.Challenges().DeleteChallenge(ctx, challenge.ID)
}

// RegisterParams carries the registration form plus the verification proofs
// minted by VerifyCode for each channel.
type RegisterParams struct {
	FirstName    string
	LastName     string
	Email        string // optional
	Mobile       string
	Password     string
	ReferralCode string
	Role         domain.Role

	MobileProof string // required, bound to Mobile
	EmailProof  string // required iff Email is present, bound to Email
}

// Register creates a user once every required channel carries a proof whose
// bound identifier matches the submitted field value. Proofs are spent
// inside the same transaction that creates the user.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (domain.Profile, error) {
	if p.FirstName == "" || p.LastName == "" {
		return domain.Profile{}, invalidInput("First and last name are required.")
	}
	if len(p.Password) < 8 {
		return domain.Profile{}, invalidInput("Password must be at least 8 characters.")
	}

	mobile := domain.Classify(p.Mobile, s.MobileDigits)
	if mobile.Kind != domain.KindMobile {
		return domain.Profile{}, invalidInput("A valid mobile number is required.")
	}

	var email domain.Identifier
	if p.Email != "" {
		email = domain.Classify(p.Email, s.MobileDigits)
		if email.Kind != domain.KindEmail {
			return domain.Profile{}, invalidInput("The email address is not valid.")
		}
		if p.EmailProof == "" {
			return domain.Profile{}, invalidInput("The email address has not been verified.")
		}
	}
	if p.MobileProof == "" {
		return domain.Profile{}, invalidInput("The mobile number has not been verified.")
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	role := p.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	user := domain.User{
		ID:           idx.New().String(),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        email.Value,
		Mobile:       mobile.Value,
		PasswordHash: hash,
		Role:         role,
		ReferralCode: p.ReferralCode,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := spendProof(ctx, tx, domain.ChannelMobile, mobile.Value, p.MobileProof); err != nil {
			return err
		}
		if email.Value != "" {
			if err := spendProof(ctx, tx, domain.ChannelEmail, email.Value, p.EmailProof); err != nil {
				return err
			}
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateIdentifier
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Profile{}, err
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", user.ID, "role", user.Role)
	return user.Profile(), nil
}

// ResetPassword completes the reset chain. The temp token minted by the OTP
// verification step is the only thing that authorises the change; without a
// live token bound to the same identifier the reset fails outright. Every
// session of the user is revoked on success.
func (s *AuthService) ResetPassword(ctx context.Context, kind domain.IdentifierKind, value, newPassword, tempToken string) error {
	if len(newPassword) < 8 {
		return invalidInput("Password must be at least 8 characters.")
	}

	id := domain.Classify(value, s.MobileDigits)
	if id.Kind != kind {
		return ErrInvalidTempToken
	}
	channel, ok := domain.ChannelForKind(id.Kind)
	if !ok {
		return ErrInvalidTempToken
	}

	user, err := s.Store.Users().GetUserByIdentifier(ctx, channel, id.Value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidTempToken
		}
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := spendProof(ctx, tx, channel, id.Value, tempToken); err != nil {
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}
		return tx.Sessions().DeleteUserSessions(ctx, user.ID)
	})
}

// spendProof validates and consumes a verification temp token. The token
// must be live and bound to exactly the channel+identifier being claimed;
// deleting it inside the caller's transaction makes it single-use.
func spendProof(ctx context.Context, tx store.Tx, channel domain.Channel, identifier, token string) error {
	if token == "" {
		return ErrInvalidTempToken
	}

	record, err := tx.TempTokens().GetTempTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidTempToken
		}
		return err
	}

	if record.Purpose != domain.PurposeVerification ||
		record.Channel != channel ||
		record.Identifier != identifier ||
		record.Expired(time.Now()) {
		return ErrInvalidTempToken
	}

	return tx.TempTokens().DeleteTempToken(ctx, record.ID)
}
