// Package repository defines the data access interface for zmodels.
//
// A Repository is bound to one schema descriptor and maps instances of
// that model type onto rows of one table. The SQL implementation lives
// in the sqlrepo subpackage and works for every dialect the database
// package supports.
//
// # Operations
//
//   - Filter: equality search; nil terms are ignored, no terms returns every row
//   - Get: Filter expecting exactly one row (ErrNotFound / ErrNotUnique otherwise)
//   - GetOrCreate: Get, creating the row from the terms when nothing matches
//   - All: every row
//   - Create: build a model from attributes and Save it
//   - Save: update by primary key, falling back to insert
//   - CreateTable: idempotent CREATE TABLE IF NOT EXISTS
//   - LastID: the session's last auto-generated key
//
// # Concurrency
//
// GetOrCreate does not lock. Two callers racing on the same terms may
// both insert; declare the identifying fields unique in the schema to
// have the database reject the second row.
package repository
