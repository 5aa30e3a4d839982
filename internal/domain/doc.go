// Package domain defines the core types of the zmodels data-access layer.
//
// This package contains the values every other layer passes around: models,
// the schema descriptors that describe how a model maps to a table, and the
// errors repositories return.
//
// # Core Types
//
// Model is an ordered attribute bag representing one row. It knows its type
// name and its fields, nothing about storage.
//
// Schema describes a model type: its name, its table, and its ordered fields
// with type, primary key and key generation strategy. Table and field names
// are checked against an identifier allow-list so they can be written into SQL
// text safely.
//
// # Table Names
//
// TableName derives a snake_case table identifier from a CamelCase model type
// name ("UserAccount" becomes "user_account"). Derived names are cached per
// model type name.
//
// # Errors
//
// ErrNotFound and ErrNotUnique are returned (wrapped in LookupError) when a
// lookup expecting exactly one row finds zero or several. ErrNoRepository is
// returned when a model is saved without a repository.
//
// # Design Principles
//
// - No database or external dependencies
// - Repositories are passed to models explicitly, models never hold one
package domain
