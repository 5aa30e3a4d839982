// Package service coordinates repositories for the CLI and HTTP surfaces.
//
// # Catalog
//
// Catalog holds one repository per model name, built from schema
// descriptors. Its operations accept raw input (command-line terms,
// query parameters, decoded JSON or YAML) and coerce each value to the
// type its schema field declares before reaching the repository.
//
// # Event System
//
// Writes made through the catalog are published on an EventBus
// (model_created, models_imported, schema_reloaded). The HTTP server
// forwards them to Server-Sent Events clients.
package service
