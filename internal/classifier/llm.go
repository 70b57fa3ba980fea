package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/termstudio/taxon/internal/prompts"
	"github.com/termstudio/taxon/pkg/formatting"
)

// Chatter runs a chat inference with provider resilience already applied.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

type selectResponse struct {
	ChosenID  *string `json:"chosen_id"`
	Rationale string  `json:"rationale"`
}

// LLMStrategy classifies with a single LLM selection over an embedding
// shortlist. The shortlist bounds the prompt; the model chooses one
// candidate or none. An unparseable response, an unknown candidate ID, or
// an exhausted provider degrades to an uncommitted selection, never a
// hard failure.
type LLMStrategy struct {
	shortlister Shortlister
	chat        Chatter
	prompts     prompts.System
	k           int
	logger      *slog.Logger
}

// NewLLMStrategy creates an LLMStrategy with shortlist size k.
func NewLLMStrategy(
	shortlister Shortlister,
	chat Chatter,
	ps prompts.System,
	k int,
	logger *slog.Logger,
) *LLMStrategy {
	return &LLMStrategy{
		shortlister: shortlister,
		chat:        chat,
		prompts:     ps,
		k:           k,
		logger:      logger.With("strategy", "llm"),
	}
}

func (s *LLMStrategy) Classify(ctx context.Context, input string) (*Selection, error) {
	candidates, err := s.shortlister.Shortlist(ctx, input, s.k)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return &Selection{Rationale: "no candidates within range of the input"}, nil
	}

	prompt, err := composeSelectPrompt(ctx, s.prompts, input, candidates)
	if err != nil {
		return nil, err
	}

	content, err := s.chat.Chat(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("selection inference failed", "error", err)
		return &Selection{
			Candidates: candidates,
			Rationale:  "model unavailable",
		}, nil
	}

	parsed, err := formatting.Parse[selectResponse](content)
	if err != nil {
		s.logger.Warn("unparseable selection response", "error", err)
		return &Selection{
			Candidates: candidates,
			Rationale:  "model response could not be parsed",
		}, nil
	}

	return resolveSelection(candidates, parsed.ChosenID, parsed.Rationale), nil
}

// resolveSelection validates a model's chosen ID against the shortlist.
// A null or unknown ID resolves to an uncommitted selection.
func resolveSelection(candidates []Candidate, chosenID *string, rationale string) *Selection {
	sel := &Selection{
		Candidates: candidates,
		Rationale:  rationale,
	}

	if chosenID == nil || *chosenID == "" {
		return sel
	}

	if _, ok := findCandidate(candidates, *chosenID); !ok {
		sel.Rationale = fmt.Sprintf("model chose unknown candidate %q", *chosenID)
		return sel
	}

	sel.ChosenID = *chosenID
	return sel
}

func composeSelectPrompt(
	ctx context.Context,
	ps prompts.System,
	input string,
	candidates []Candidate,
) (string, error) {
	instructions, err := ps.Instructions(ctx, prompts.StageSelect)
	if err != nil {
		return "", fmt.Errorf("load instructions: %w", err)
	}

	spec, err := ps.Spec(ctx, prompts.StageSelect)
	if err != nil {
		return "", fmt.Errorf("load spec: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)
	fmt.Fprintf(&sb, "\n\nData element:\n%s\n\nCandidates:\n", input)
	writeCandidates(&sb, candidates)

	return sb.String(), nil
}

func writeCandidates(sb *strings.Builder, candidates []Candidate) {
	for i, c := range candidates {
		cdm := "unassigned"
		if c.CDM != nil && *c.CDM != "" {
			cdm = *c.CDM
		}
		fmt.Fprintf(
			sb,
			"%d. ID: %s | Name: %s | Definition: %s | CDM: %s\n",
			i+1, c.TermID, c.Name, c.Definition, cdm,
		)
	}
}
