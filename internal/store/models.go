package store

import (
	"fmt"
	"time"

	"animeimporter/internal/services"
)

// Record statuses.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
)

// ErrRecordNotFound is returned when a record id does not exist.
var ErrRecordNotFound = fmt.Errorf("record %w", services.ErrNotFound)

// ErrAssetNotFound is returned when an asset id does not exist.
var ErrAssetNotFound = fmt.Errorf("asset %w", services.ErrNotFound)

// Record is a stored content item.
type Record struct {
	ID           string              `json:"id"`
	ContentType  string              `json:"contentType"`
	Status       string              `json:"status"`
	Title        string              `json:"title"`
	Body         string              `json:"body"`
	ExternalID   string              `json:"externalId,omitempty"`
	CoverAssetID string              `json:"coverAssetId,omitempty"`
	Attributes   map[string]string   `json:"attributes"`
	Terms        map[string][]string `json:"terms"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// NewRecord carries the fields accepted when creating a record.
type NewRecord struct {
	ContentType string
	Status      string
	Title       string
	Body        string
	ExternalID  string
}

// EditorUpdate changes editor-owned fields; nil pointers leave a field as is.
type EditorUpdate struct {
	Title  *string
	Body   *string
	Status *string
}

// FieldUpdate overwrites title and body and upserts the given attributes.
// Attributes not named in the map are left untouched.
type FieldUpdate struct {
	Title      string
	Body       string
	Attributes map[string]string
}

// ListOptions filters ListRecords.
type ListOptions struct {
	ContentType string
	Limit       int
}

// Asset describes a stored image file.
type Asset struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"sourceUrl"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mimeType"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	SizeBytes int64     `json:"sizeBytes"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
}

// Term is a vocabulary entry.
type Term struct {
	ID         int64  `json:"id"`
	Vocabulary string `json:"vocabulary"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	ParentID   int64  `json:"parentId,omitempty"`
}
