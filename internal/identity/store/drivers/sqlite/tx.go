package sqlite

import "database/sql"

// txStore is a Store scoped to one open transaction. Repos resolved from it
// run against the tx rather than the root connection.
type txStore struct {
	Store
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }
