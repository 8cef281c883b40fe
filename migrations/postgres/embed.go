// Package migrations embeds SQL migration files.
package migrations

import "embed"

// BindingsFS contains the schema for the external bindings table.
//
//go:embed bindings/*.sql
var BindingsFS embed.FS

// BindingsDir is the directory within BindingsFS where migrations live.
const BindingsDir = "bindings"
