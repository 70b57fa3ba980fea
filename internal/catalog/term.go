// Package catalog implements the preferred business term domain for Taxon.
// It provides types, data access, and business logic for catalog loading,
// term lookup, and catalog statistics.
package catalog

import (
	"time"
)

// Term represents a preferred business term with its definition, conceptual
// data model assignment, and generated synonyms. Position records catalog
// insertion order and is preserved across reloads.
type Term struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Definition string    `json:"definition"`
	CDM        *string   `json:"cdm"`
	Synonyms   []string  `json:"synonyms"`
	Position   int64     `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CombinedText returns the text indexed and matched against for the term
// itself: name and definition joined the same way classification inputs
// are, with the CDM appended when assigned.
func (t *Term) CombinedText() string {
	text := t.Name
	if t.Definition != "" {
		text += " - " + t.Definition
	}
	if t.CDM != nil && *t.CDM != "" {
		text += " - " + *t.CDM
	}
	return text
}

// UpsertCommand carries one catalog row to insert or update. Rows are keyed
// by ID; an existing row keeps its position and synonyms unless the name or
// definition changed, which invalidates generated synonyms.
type UpsertCommand struct {
	ID         string
	Name       string
	Definition string
	CDM        *string
}

// RowError reports a catalog file row that could not be loaded.
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// LoadResult reports the outcome of a catalog load: how many rows were
// upserted, which rows were rejected, and where the raw file was archived.
type LoadResult struct {
	Loaded     int        `json:"loaded"`
	Rejected   []RowError `json:"rejected,omitempty"`
	StorageKey string     `json:"storage_key"`
}

// Statistics summarizes the loaded catalog.
type Statistics struct {
	Total        int            `json:"total"`
	WithSynonyms int            `json:"with_synonyms"`
	ByCDM        map[string]int `json:"by_cdm"`
}
