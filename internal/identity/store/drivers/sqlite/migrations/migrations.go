// Package migrations embeds the SQL schema migrations so the binary can
// bring any database file up to date on boot.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
