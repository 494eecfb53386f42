// Package services defines shared utilities consumed by the importer, the
// HTTP API, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp record IDs, components, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that let outer layers map
//     failures onto HTTP status codes and CLI messages without string matching.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the service.
package services
