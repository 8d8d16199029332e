package identitysdk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedgerProofBoundToValue(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	l.Record(KindEmail, "ada@example.com", "proof-1")

	token, ok := l.ProofFor(KindEmail, "ada@example.com")
	require.True(t, ok)
	require.Equal(t, "proof-1", token)

	// A different value never surfaces the proof.
	_, ok = l.ProofFor(KindEmail, "eve@example.com")
	require.False(t, ok)
}

func TestLedgerInvalidationOnEdit(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	l.Record(KindMobile, "0412345678", "proof-m")
	l.Record(KindEmail, "ada@example.com", "proof-e")
	require.True(t, l.IsComplete("0412345678", "ada@example.com"))

	// Editing the email field drops its proof; mobile stays verified.
	l.Sync(KindEmail, "eve@example.com")
	require.False(t, l.IsComplete("0412345678", "eve@example.com"))

	_, ok := l.ProofFor(KindMobile, "0412345678")
	require.True(t, ok)
}

func TestLedgerEmailOptional(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	l.Record(KindMobile, "0412345678", "proof-m")
	require.True(t, l.IsComplete("0412345678", ""))
	require.False(t, l.IsComplete("0412345678", "ada@example.com"))
}

func TestLedgerReset(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	l.Record(KindMobile, "0412345678", "proof-m")
	l.Reset()

	_, ok := l.ProofFor(KindMobile, "0412345678")
	require.False(t, ok)
}

func TestLedgerRecordReplaces(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	l.Record(KindEmail, "ada@example.com", "proof-old")
	l.Record(KindEmail, "ada@example.com", "proof-new")

	token, ok := l.ProofFor(KindEmail, "ada@example.com")
	require.True(t, ok)
	require.Equal(t, "proof-new", token)
}
