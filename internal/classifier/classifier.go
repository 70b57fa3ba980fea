// Package classifier implements the classification domain for Taxon.
// It maps a raw data element to a preferred business term using one of
// three methods: pure vector similarity, a single LLM selection over a
// vector shortlist, or an agent state graph that may widen its shortlist
// before committing. Every method runs through a shared confidence scorer
// and match threshold.
package classifier

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/termstudio/taxon/internal/catalog"
)

// Method selects the classification strategy for a request.
type Method string

// Valid classification methods.
const (
	MethodEmbedding Method = "embedding"
	MethodLLM       Method = "llm"
	MethodAgent     Method = "agent"
)

var methods = []Method{
	MethodEmbedding,
	MethodLLM,
	MethodAgent,
}

// Methods returns the list of valid classification methods.
func Methods() []Method {
	return methods
}

// UnmarshalJSON validates that the decoded string is a known method value.
func (m *Method) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Method(raw)
	if !slices.Contains(methods, v) {
		return ErrInvalidMethod
	}
	*m = v
	return nil
}

// ParseMethod validates a string as a known classification method.
// Returns ErrInvalidMethod if the value is not recognized.
func ParseMethod(s string) (Method, error) {
	v := Method(s)
	if !slices.Contains(methods, v) {
		return "", ErrInvalidMethod
	}
	return v, nil
}

// Request carries one data element to classify. TermName is required;
// Description is optional context that sharpens the match.
type Request struct {
	TermName    string `json:"term_name"`
	Description string `json:"description"`
	Method      Method `json:"method"`
}

// CombinedInput joins the element name and description into the text that
// strategies embed and prompt with.
func (r *Request) CombinedInput() string {
	name := strings.TrimSpace(r.TermName)
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return name
	}
	return name + " - " + desc
}

// Validate checks request fields that JSON decoding cannot.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.TermName) == "" {
		return ErrInvalidInput
	}
	if r.Method == "" {
		return ErrInvalidMethod
	}
	return nil
}

// Outcome reports how a classification concluded.
type Outcome string

// Valid classification outcomes.
const (
	OutcomeMatched   Outcome = "matched"
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeError     Outcome = "error"
)

// Candidate is one shortlisted term with its raw similarity and calibrated
// embedding confidence. Text is the index entry that produced the hit,
// which may be a synonym rather than the term name.
type Candidate struct {
	TermID     string  `json:"term_id"`
	Name       string  `json:"name"`
	Definition string  `json:"definition"`
	CDM        *string `json:"cdm"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
	Confidence float64 `json:"confidence"`
}

// Selection is a strategy's pre-threshold verdict: the candidates it
// considered and the term it committed to, if any.
type Selection struct {
	Candidates []Candidate
	ChosenID   string
	Rationale  string
}

// Result is the classification outcome returned for every request.
// Term is populated only when Outcome is matched.
type Result struct {
	RequestID    uuid.UUID     `json:"request_id"`
	Input        string        `json:"input"`
	Method       Method        `json:"method"`
	Outcome      Outcome       `json:"outcome"`
	Term         *catalog.Term `json:"term,omitempty"`
	Confidence   float64       `json:"confidence"`
	Rationale    string        `json:"rationale,omitempty"`
	Candidates   []Candidate   `json:"candidates"`
	Error        string        `json:"error,omitempty"`
	ClassifiedAt time.Time     `json:"classified_at"`
}
