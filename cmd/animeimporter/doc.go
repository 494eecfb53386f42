// Command animeimporter manages anime records and imports their metadata
// from the Jikan API.
//
// "animeimporter serve" runs the HTTP API daemon. The remaining commands
// open the same SQLite database directly, so they work whether or not the
// daemon is running:
//
//	animeimporter record add --title "Cowboy Bebop" --mal-id 1
//	animeimporter record save <id> --mal-id 1
//	animeimporter sync <id>
//	animeimporter search "cowboy bebop"
//	animeimporter settings set https://api.jikan.moe/v4
package main
