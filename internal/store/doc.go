// Package store persists content records in SQLite.
//
// A record is a typed piece of content (records created by the importer use
// the "anime" content type) with a title, a body, free-form attribute
// key/values, terms drawn from named vocabularies, an optional external
// identifier and an optional cover asset. Assets describe image files kept
// on disk; settings hold runtime overrides such as the provider base URL.
//
// Multi-statement updates go through WithTx so readers never observe a
// half-written record. Schema changes bump schemaVersion in schema.go; older
// databases must be deleted to adopt the new schema.
package store
