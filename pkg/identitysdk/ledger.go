package identitysdk

import (
	"sync"
	"time"
)

// Proof is one verified channel within an attempt: the token minted by the
// service bound to the identifier value it was minted for.
type Proof struct {
	Kind       IdentifierKind
	Identifier string
	Token      string
	VerifiedAt time.Time
}

// Ledger accumulates verification proofs for one registration or reset
// attempt. A proof is only ever surfaced while the form still holds the
// exact value it was minted for: editing a verified field invalidates its
// proof, and proofs never survive a flow reset.
type Ledger struct {
	mu     sync.Mutex
	proofs map[IdentifierKind]Proof
}

func NewLedger() *Ledger {
	return &Ledger{proofs: make(map[IdentifierKind]Proof)}
}

// Record stores the proof for a channel, replacing any prior one.
func (l *Ledger) Record(kind IdentifierKind, identifier, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.proofs[kind] = Proof{
		Kind:       kind,
		Identifier: identifier,
		Token:      token,
		VerifiedAt: time.Now(),
	}
}

// ProofFor returns the proof token for a channel, but only while the held
// value matches the value it was bound to.
func (l *Ledger) ProofFor(kind IdentifierKind, identifier string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.proofs[kind]
	if !ok || p.Identifier != identifier {
		return "", false
	}
	return p.Token, true
}

// Sync drops the channel's proof when the current form value no longer
// matches the value the proof was bound to. Call it on every field edit.
func (l *Ledger) Sync(kind IdentifierKind, currentValue string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.proofs[kind]; ok && p.Identifier != currentValue {
		delete(l.proofs, kind)
	}
}

// Reset discards all proofs for the attempt.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.proofs = make(map[IdentifierKind]Proof)
}

// IsComplete reports whether the attempt may be submitted: the mobile
// channel must be proven, and the email channel too when a value is
// present.
func (l *Ledger) IsComplete(mobile, email string) bool {
	if _, ok := l.ProofFor(KindMobile, mobile); !ok {
		return false
	}
	if email != "" {
		if _, ok := l.ProofFor(KindEmail, email); !ok {
			return false
		}
	}
	return true
}
