// Package config loads, normalizes, and validates animeimporter configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// JIKAN_API_URL. The Config type centralizes every knob the daemon and CLI
// need, so the data directory, the asset directory, and the provider base URL
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
