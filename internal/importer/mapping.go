package importer

import (
	"strconv"
	"strings"

	"animeimporter/internal/jikan"
	"animeimporter/internal/textutil"
)

// Mapped is a provider record reduced to local, sanitized values.
type Mapped struct {
	Title      string
	Synopsis   string
	Attributes map[string]string
	Genres     []string
	CoverURL   string
}

// MapAnime converts a provider record. Null or missing values become empty
// strings; nothing here can fail.
func MapAnime(anime *jikan.Anime) Mapped {
	if anime == nil {
		anime = &jikan.Anime{}
	}

	rating := ""
	if anime.Score != nil {
		rating = strconv.FormatFloat(*anime.Score, 'f', -1, 64)
	}
	episodes := ""
	if anime.Episodes != nil {
		episodes = strconv.Itoa(*anime.Episodes)
	}

	return Mapped{
		Title:    textutil.SanitizeText(anime.Title),
		Synopsis: textutil.SanitizeTextarea(anime.Synopsis),
		Attributes: map[string]string{
			AttrReleaseDate:  textutil.SanitizeText(anime.Aired.String),
			AttrRating:       rating,
			AttrEpisodeCount: episodes,
			AttrStudio:       textutil.SanitizeText(anime.FirstStudio()),
			AttrKind:         textutil.SanitizeText(anime.Type),
		},
		Genres:   mapGenres(anime.Genres),
		CoverURL: strings.TrimSpace(anime.CoverURL()),
	}
}

func mapGenres(genres []jikan.Named) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, genre := range genres {
		name := textutil.SanitizeText(genre.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
