package jikan

// Named is the {mal_id, name} pair Jikan uses for studios and genres.
type Named struct {
	MalID int64  `json:"mal_id"`
	Name  string `json:"name"`
}

// Aired carries the human readable airing range.
type Aired struct {
	String string `json:"string"`
}

// ImageSet holds the URLs for one image format.
type ImageSet struct {
	ImageURL      string `json:"image_url"`
	LargeImageURL string `json:"large_image_url"`
}

// Images groups the formats Jikan publishes.
type Images struct {
	JPG ImageSet `json:"jpg"`
}

// Anime is the subset of a Jikan anime object the importer consumes. Score
// and Episodes are pointers because the API reports unknown values as null.
type Anime struct {
	MalID    int64    `json:"mal_id"`
	Title    string   `json:"title"`
	Synopsis string   `json:"synopsis"`
	Type     string   `json:"type"`
	Aired    Aired    `json:"aired"`
	Score    *float64 `json:"score"`
	Episodes *int     `json:"episodes"`
	Studios  []Named  `json:"studios"`
	Genres   []Named  `json:"genres"`
	Images   Images   `json:"images"`
}

// FirstStudio returns the first listed studio name or "".
func (a Anime) FirstStudio() string {
	if len(a.Studios) == 0 {
		return ""
	}
	return a.Studios[0].Name
}

// CoverURL returns the JPG cover image URL or "".
func (a Anime) CoverURL() string {
	return a.Images.JPG.ImageURL
}

type fullResponse struct {
	Data *Anime `json:"data"`
}

type searchResponse struct {
	Data *[]Anime `json:"data"`
}
