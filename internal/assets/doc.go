// Package assets downloads remote cover images and stores them locally.
//
// The Ingester fetches an image URL, enforces a byte cap, decodes the body
// (JPEG, PNG or GIF), shrinks it to fit the configured maximum dimension,
// re-encodes it as JPEG and writes it under the asset directory named by
// its xxh3 content hash. Each stored file gets an asset row; identical
// images are deduplicated by hash.
package assets
