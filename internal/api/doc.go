// Package api serves the animeimporter HTTP API on echo.
//
// Routes live under /api. Records are exposed as camelCase DTOs with the
// synopsis and genre list lifted out of the generic store fields; timestamps
// use RFC3339 with milliseconds. Saving a record through PUT runs the same
// save hook an editor would trigger, so the response carries the sync
// outcome alongside the record.
//
// Errors are rendered as {"error": message, "code": kind}. Search failures
// keep their own codes (no_query, provider_unreachable, malformed_response)
// so clients can tell a blank query from an unreachable provider.
package api
