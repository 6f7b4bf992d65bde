package store

import (
	"context"
	"time"
)

// Record is the atomic unit of ingested knowledge.
type Record struct {
	Id        string
	Title     string
	Content   string
	SourceURL string // empty for manual and Q&A records
	Source    string
	Category  string
	Language  string
	Metadata  map[string]any
	Embedding []float32
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryQA marks question/answer records.
const CategoryQA = "qa"

// Fields carries the writable subset of a record. On update, zero-valued
// string fields are left untouched, Metadata is merged key-wise, and a
// non-nil Embedding replaces the stored vector.
type Fields struct {
	Title     string
	Content   string
	SourceURL string
	Source    string
	Category  string
	Language  string
	Metadata  map[string]any
	Embedding []float32
	IsActive  bool
}

// KeywordFilter narrows a keyword search. Query matches either the exact
// phrase or any single word longer than 2 characters, case-insensitively,
// against title and content. Results are ordered most-recently-updated first.
type KeywordFilter struct {
	Query           string
	RequireSource   bool // only records with a source URL
	ExcludeSource   bool // only records without a source URL
	Category        string
	ExcludeCategory string
	Limit           int
}

// Match pairs a record with its cosine similarity to a query vector.
type Match struct {
	Record     Record
	Similarity float64
}

// Store persists and queries knowledge records. Lookups that find nothing
// return (nil, nil); only infrastructure failures surface as errors.
type Store interface {
	FindBySourceURL(ctx context.Context, url string) (*Record, error)
	// FindManualByTitle looks up a record by title among records with no
	// source URL. Manual-text records live in a separate key space from
	// URL-ingested ones.
	FindManualByTitle(ctx context.Context, title string) (*Record, error)
	Create(ctx context.Context, f Fields) (*Record, error)
	Update(ctx context.Context, id string, f Fields) (*Record, error)
	SearchKeyword(ctx context.Context, filter KeywordFilter) ([]Record, error)
	// SearchEmbedding ranks active records of the given category by cosine
	// similarity against the query vector, considering only the most
	// recently updated candidates that carry an embedding.
	SearchEmbedding(ctx context.Context, vector []float32, category string, limit int) ([]Match, error)
	CountActive(ctx context.Context) (int, error)
	CountByCategory(ctx context.Context, category string) (int, error)
}
