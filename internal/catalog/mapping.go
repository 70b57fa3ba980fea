package catalog

import (
	"encoding/json"
	"net/url"

	"github.com/termstudio/taxon/pkg/query"
	"github.com/termstudio/taxon/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "terms", "t").
	Project("id", "ID").
	Project("name", "Name").
	Project("definition", "Definition").
	Project("cdm", "CDM").
	Project("synonyms", "Synonyms").
	Project("position", "Position").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "Position",
	Descending: false,
}

// Filters contains optional filtering criteria for term queries.
// Nil fields are ignored. CDM uses exact matching; Name and Definition use
// case-insensitive contains matching.
type Filters struct {
	CDM        *string `json:"cdm,omitempty"`
	Name       *string `json:"name,omitempty"`
	Definition *string `json:"definition,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("CDM", f.CDM).
		WhereContains("Name", f.Name).
		WhereContains("Definition", f.Definition)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if cdm := values.Get("cdm"); cdm != "" {
		f.CDM = &cdm
	}
	if name := values.Get("name"); name != "" {
		f.Name = &name
	}
	if def := values.Get("definition"); def != "" {
		f.Definition = &def
	}

	return f
}

func scanTerm(s repository.Scanner) (Term, error) {
	var (
		t        Term
		synonyms []byte
	)

	err := s.Scan(
		&t.ID,
		&t.Name,
		&t.Definition,
		&t.CDM,
		&synonyms,
		&t.Position,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}

	if len(synonyms) > 0 {
		if err := json.Unmarshal(synonyms, &t.Synonyms); err != nil {
			return t, err
		}
	}

	return t, nil
}
