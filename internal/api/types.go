package api

import "animeimporter/internal/preflight"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Record describes a stored anime record in a transport-friendly format.
type Record struct {
	ID           string            `json:"id"`
	ContentType  string            `json:"contentType"`
	Status       string            `json:"status"`
	Title        string            `json:"title"`
	Synopsis     string            `json:"synopsis"`
	ExternalID   string            `json:"externalId"`
	Attributes   map[string]string `json:"attributes"`
	Genres       []string          `json:"genres"`
	CoverAssetID string            `json:"coverAssetId,omitempty"`
	CoverURL     string            `json:"coverUrl,omitempty"`
	CreatedAt    string            `json:"createdAt,omitempty"`
	UpdatedAt    string            `json:"updatedAt,omitempty"`
}

// Sync reports the outcome of one synchronization.
type Sync struct {
	Outcome string  `json:"outcome"`
	Cover   string  `json:"cover"`
	Reason  string  `json:"reason,omitempty"`
	Record  *Record `json:"record,omitempty"`
}

// SaveResponse is returned by create and save. Sync is nil when the save
// hook did not run a sync.
type SaveResponse struct {
	Record *Record `json:"record"`
	Sync   *Sync   `json:"sync"`
}

// RecordList is returned by GET /api/records.
type RecordList struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

// Candidate is one search match.
type Candidate struct {
	ExternalID string `json:"externalId"`
	Title      string `json:"title"`
}

// SearchResponse wraps search matches.
type SearchResponse struct {
	Query   string      `json:"query"`
	Results []Candidate `json:"results"`
}

// Settings describes the provider base URL setting.
type Settings struct {
	JikanAPIURL   string `json:"jikanApiUrl"`
	ConfiguredURL string `json:"configuredUrl"`
	Overridden    bool   `json:"overridden"`
}

// Genre is a vocabulary term.
type Genre struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Status aggregates runtime information.
type Status struct {
	Version     string             `json:"version"`
	PID         int                `json:"pid"`
	Records     int                `json:"records"`
	BaseURL     string             `json:"baseUrl"`
	Database    string             `json:"database"`
	AssetsOn    bool               `json:"assetsEnabled"`
	Preflight   []preflight.Result `json:"preflight"`
	GeneratedAt string             `json:"generatedAt"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type createRequest struct {
	Title      string  `json:"title"`
	Synopsis   string  `json:"synopsis"`
	Status     string  `json:"status"`
	ExternalID *string `json:"externalId"`
}

type saveRequest struct {
	Title      *string `json:"title"`
	Synopsis   *string `json:"synopsis"`
	Status     *string `json:"status"`
	ExternalID *string `json:"externalId"`
	Autosave   bool    `json:"autosave"`
}

type settingsRequest struct {
	JikanAPIURL string `json:"jikanApiUrl"`
}
