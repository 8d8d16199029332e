package identitysdk

import (
	"context"
	"errors"
	"sync"
	"time"
)

func secondsDuration(s int) time.Duration { return time.Duration(s) * time.Second }

// FlowState is the lifecycle position of one attempt.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowChallengeActive
	FlowVerified
	FlowSubmitting
	FlowSucceeded
	FlowFailed
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowChallengeActive:
		return "challenge_active"
	case FlowVerified:
		return "verified"
	case FlowSubmitting:
		return "submitting"
	case FlowSucceeded:
		return "succeeded"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RegisterForm is the registration input a Flow submits. Proof tokens are
// not part of the form: the Flow reads them from its Ledger, which is what
// ties submission to the verified values.
type RegisterForm struct {
	FirstName    string
	LastName     string
	Email        string
	Mobile       string
	Password     string
	ReferralCode string
}

// Flow owns the client-side state of exactly one sign-in, sign-up, or
// password-reset attempt: the classified identifier, the active challenge's
// cooldown, and the verification ledger. State never crosses attempts.
//
// A Flow permits one pending network operation at a time, and an operation
// that completes after the Flow was reset (or its identifier re-classified)
// has its result discarded rather than applied to fresh state.
type Flow struct {
	Cooldown *CooldownTimer
	Ledger   *Ledger

	client   *Client
	sessions *SessionStore

	mu         sync.Mutex
	state      FlowState
	identifier Identifier
	generation uint64
	pending    bool
}

func NewFlow(client *Client, sessions *SessionStore) *Flow {
	return &Flow{
		Cooldown: NewCooldownTimer(),
		Ledger:   NewLedger(),
		client:   client,
		sessions: sessions,
	}
}

// State returns the flow's current lifecycle position.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Identifier returns the current classified identifier.
func (f *Flow) Identifier() Identifier {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identifier
}

// SetIdentifier re-classifies the raw input. Changing the identifier's kind
// discards the whole attempt, including the ledger, the cooldown, and any
// in-flight result. Channel identity is not portable across
// re-classification. Editing the value within the same kind only
// invalidates that channel's proof.
func (f *Flow) SetIdentifier(raw string) Identifier {
	ident := f.client.Classify(raw)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.identifier.Kind != ident.Kind && f.identifier.Kind != "" {
		f.resetLocked()
	}
	f.identifier = ident
	f.Ledger.Sync(ident.Kind, ident.Value)
	return ident
}

// Reset discards all attempt state. Any in-flight operation's result will
// be dropped when it lands.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
	f.identifier = Identifier{}
}

func (f *Flow) resetLocked() {
	f.generation++
	f.pending = false
	f.state = FlowIdle
	f.Ledger.Reset()
	f.Cooldown.Cancel()
}

// beginOp claims the flow's single pending-operation slot.
func (f *Flow) beginOp() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return 0, ErrOperationPending
	}
	f.pending = true
	return f.generation, nil
}

// endOp releases the slot. It reports false when the flow was reset while
// the operation was in flight, in which case the caller must discard the
// result.
func (f *Flow) endOp(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation != gen {
		return false
	}
	f.pending = false
	return true
}

// RequestCode dispatches a code to the flow's primary identifier and starts
// the cooldown. A *RateLimitedError leaves the existing challenge and
// cooldown untouched.
func (f *Flow) RequestCode(ctx context.Context) error {
	return f.requestCode(ctx, f.Identifier())
}

// RequestCodeFor dispatches a code to a secondary field's value (the
// optional email during registration) without touching the primary
// identifier.
func (f *Flow) RequestCodeFor(ctx context.Context, raw string) error {
	return f.requestCode(ctx, f.client.Classify(raw))
}

func (f *Flow) requestCode(ctx context.Context, ident Identifier) error {
	gen, err := f.beginOp()
	if err != nil {
		return err
	}

	receipt, err := f.client.RequestCode(ctx, ident.Kind, ident.Value)

	if !f.endOp(gen) {
		return ErrStaleResponse
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.state = FlowChallengeActive
	f.mu.Unlock()
	f.Cooldown.Start(secondsDuration(receipt.ResendIn))
	return nil
}

// VerifyCode submits the received code for the primary identifier. Success
// records the proof in the ledger, ends the challenge, and cancels the
// cooldown.
func (f *Flow) VerifyCode(ctx context.Context, code string) error {
	return f.verifyCode(ctx, f.Identifier(), code)
}

// VerifyCodeFor submits the received code for a secondary field's value.
func (f *Flow) VerifyCodeFor(ctx context.Context, raw, code string) error {
	return f.verifyCode(ctx, f.client.Classify(raw), code)
}

func (f *Flow) verifyCode(ctx context.Context, ident Identifier, code string) error {
	gen, err := f.beginOp()
	if err != nil {
		return err
	}

	proof, err := f.client.VerifyCode(ctx, ident.Kind, ident.Value, code)

	if !f.endOp(gen) {
		return ErrStaleResponse
	}
	if err != nil {
		return err
	}

	f.Ledger.Record(ident.Kind, ident.Value, proof)
	f.Cooldown.Cancel()

	f.mu.Lock()
	f.state = FlowVerified
	f.mu.Unlock()
	return nil
}

// Login authenticates against the flow's identifier. On full success the
// grant is persisted through the session store and all attempt state is
// cleared. A *SecondFactorRequiredError moves the flow into the challenge
// state; call Login again with the code. A failed second-factor code leaves
// the flow (and the password credential) retryable.
func (f *Flow) Login(ctx context.Context, password, twoFactorCode string) (SessionRecord, error) {
	gen, err := f.beginOp()
	if err != nil {
		return SessionRecord{}, err
	}

	f.setState(FlowSubmitting)
	ident := f.Identifier()
	grant, err := f.client.Login(ctx, ident.Kind, ident.Value, password, twoFactorCode)

	if !f.endOp(gen) {
		return SessionRecord{}, ErrStaleResponse
	}

	var challenge *SecondFactorRequiredError
	switch {
	case errors.As(err, &challenge):
		f.setState(FlowChallengeActive)
		return SessionRecord{}, err
	case err != nil:
		f.setState(FlowFailed)
		return SessionRecord{}, err
	}

	rec := SessionRecord{Token: grant.Token, User: grant.User, Role: grant.User.Role}
	if err := f.sessions.Establish(rec); err != nil {
		// Persistence failure must not report success.
		f.setState(FlowFailed)
		return SessionRecord{}, err
	}

	f.mu.Lock()
	f.resetLocked()
	f.state = FlowSucceeded
	f.mu.Unlock()
	return rec, nil
}

// Register submits the sign-up form. The ledger must hold a valid proof for
// the mobile channel, and for the email channel when one was entered;
// otherwise ErrLedgerIncomplete is returned without a network call.
func (f *Flow) Register(ctx context.Context, form RegisterForm) (Profile, error) {
	f.Ledger.Sync(KindMobile, form.Mobile)
	f.Ledger.Sync(KindEmail, form.Email)
	if !f.Ledger.IsComplete(form.Mobile, form.Email) {
		return Profile{}, ErrLedgerIncomplete
	}

	gen, err := f.beginOp()
	if err != nil {
		return Profile{}, err
	}
	f.setState(FlowSubmitting)

	mobileProof, _ := f.Ledger.ProofFor(KindMobile, form.Mobile)
	emailProof, _ := f.Ledger.ProofFor(KindEmail, form.Email)

	profile, err := f.client.Register(ctx, RegisterRequest{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		Mobile:       form.Mobile,
		Password:     form.Password,
		ReferralCode: form.ReferralCode,
		MobileProof:  mobileProof,
		EmailProof:   emailProof,
	})

	if !f.endOp(gen) {
		return Profile{}, ErrStaleResponse
	}
	if err != nil {
		// Proofs are kept: a transient failure must not force the user
		// to re-verify channels.
		f.setState(FlowFailed)
		return Profile{}, err
	}

	f.mu.Lock()
	f.resetLocked()
	f.state = FlowSucceeded
	f.mu.Unlock()
	return profile, nil
}

// ResetPassword completes the reset chain using the proof recorded for the
// flow's identifier. The proof is single-use; success clears the attempt.
func (f *Flow) ResetPassword(ctx context.Context, newPassword string) error {
	ident := f.Identifier()
	proof, ok := f.Ledger.ProofFor(ident.Kind, ident.Value)
	if !ok {
		return ErrLedgerIncomplete
	}

	gen, err := f.beginOp()
	if err != nil {
		return err
	}
	f.setState(FlowSubmitting)

	err = f.client.ResetPassword(ctx, ident.Kind, ident.Value, newPassword, proof)

	if !f.endOp(gen) {
		return ErrStaleResponse
	}
	if err != nil {
		f.setState(FlowFailed)
		return err
	}

	f.mu.Lock()
	f.resetLocked()
	f.state = FlowSucceeded
	f.mu.Unlock()
	return nil
}

func (f *Flow) setState(s FlowState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}
