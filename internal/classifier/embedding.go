package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/termstudio/taxon/internal/catalog"
	"github.com/termstudio/taxon/internal/embedding"
	"github.com/termstudio/taxon/internal/index"
)

// Strategy produces a pre-threshold selection for a classification input.
type Strategy interface {
	Classify(ctx context.Context, input string) (*Selection, error)
}

// Shortlister narrows the catalog to the candidates nearest an input.
type Shortlister interface {
	Shortlist(ctx context.Context, input string, k int) ([]Candidate, error)
}

// EmbeddingStrategy classifies by vector similarity alone: the nearest
// term in the index is the commitment. It also serves as the shortlister
// for the LLM and agent strategies.
type EmbeddingStrategy struct {
	index    *index.Index
	provider embedding.Provider
	catalog  catalog.System
	scorer   *Scorer
	k        int
	logger   *slog.Logger
}

// NewEmbeddingStrategy creates an EmbeddingStrategy with shortlist size k.
func NewEmbeddingStrategy(
	ix *index.Index,
	provider embedding.Provider,
	cat catalog.System,
	scorer *Scorer,
	k int,
	logger *slog.Logger,
) *EmbeddingStrategy {
	return &EmbeddingStrategy{
		index:    ix,
		provider: provider,
		catalog:  cat,
		scorer:   scorer,
		k:        k,
		logger:   logger.With("strategy", "embedding"),
	}
}

// Shortlist embeds the input and returns the top k candidate terms ordered
// by similarity, ties resolved by catalog position.
func (s *EmbeddingStrategy) Shortlist(ctx context.Context, input string, k int) ([]Candidate, error) {
	vec, err := s.provider.EmbedQuery(ctx, input)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Query(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		term, err := s.catalog.Find(ctx, hit.TermID)
		if err != nil {
			return nil, fmt.Errorf("resolve candidate %s: %w", hit.TermID, err)
		}

		candidates = append(candidates, Candidate{
			TermID:     term.ID,
			Name:       term.Name,
			Definition: term.Definition,
			CDM:        term.CDM,
			Text:       hit.Text,
			Similarity: hit.Similarity,
			Confidence: s.scorer.Embedding(hit.Similarity),
		})
	}

	return candidates, nil
}

// Classify commits to the nearest candidate. Threshold gating happens in
// the orchestrator; an empty index result is an uncommitted selection.
func (s *EmbeddingStrategy) Classify(ctx context.Context, input string) (*Selection, error) {
	candidates, err := s.Shortlist(ctx, input, s.k)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return &Selection{Rationale: "no candidates within range of the input"}, nil
	}

	top := candidates[0]
	return &Selection{
		Candidates: candidates,
		ChosenID:   top.TermID,
		Rationale: fmt.Sprintf(
			"nearest neighbor %q via entry %q (similarity %.3f)",
			top.Name, top.Text, top.Similarity,
		),
	}, nil
}
