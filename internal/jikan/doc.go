// Package jikan is a read-only client for the Jikan REST API, an unofficial
// MyAnimeList mirror.
//
// Two endpoints are used: the full anime record (GET /anime/{id}/full) and
// title search (GET /anime?q=). Every failure is reported through one of two
// sentinels so callers can classify it without inspecting transport details:
// ErrUnreachable covers connection errors, timeouts and non-2xx statuses;
// ErrMalformed covers bodies that are not JSON or lack the expected data
// member. Only the first page of search results is ever requested.
package jikan
