// Package handler implements the HTTP API of zmodels serve.
//
// # Routes
//
//	GET  /api/models                         registered schemas
//	GET  /api/models/{model}                 filter rows by query parameters
//	GET  /api/models/{model}/one             the single row matching the query
//	POST /api/models/{model}                 create from a JSON object, import a JSON array
//	POST /api/models/{model}/get-or-create   get or create from a JSON object
//	GET  /api/events                         Server-Sent Events feed of changes
//	GET  /health                             database reachability
//
// Query parameter and body values are coerced to the schema's field
// types; the literal null in a query parameter means "ignore this field".
//
// # Response Format
//
// Rows are JSON objects with keys in column order. List endpoints honour
// an Accept header of application/yaml or text/plain.
// Error responses return JSON with {error, details} structure.
package handler
