// Package importer keeps anime records in step with the Jikan provider.
//
// The Synchronizer fetches one provider record for an external id, maps and
// sanitizes it, and commits title, synopsis, attributes and genres together.
// Provider failures never escape as errors; they come back as a SyncResult
// outcome and leave the record untouched. Cover images are ingested after
// the field commit and may fail on their own without undoing it.
//
// The SearchProxy turns a title query into (externalId, title) candidates and
// keeps "no query", "no matches" and "lookup failed" distinguishable.
//
// Hooks wires both into a host's save and search events with the guard
// conditions a save pipeline needs (autosave, content type, missing id).
package importer
