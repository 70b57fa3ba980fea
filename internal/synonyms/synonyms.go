// Package synonyms generates alternate names for catalog terms via LLM
// inference. Generated synonyms widen the vector index so informal element
// names can still reach the right preferred term.
package synonyms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/termstudio/taxon/internal/catalog"
	"github.com/termstudio/taxon/internal/prompts"
)

// ErrGenerateFailed wraps inference failures during synonym generation.
var ErrGenerateFailed = errors.New("synonym generation failed")

// Chatter runs a chat inference with provider resilience already applied.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Generator produces synonyms for catalog terms.
type Generator struct {
	chat    Chatter
	prompts prompts.System
	logger  *slog.Logger
	max     int
}

// New creates a Generator with the given chat caller, prompt system, and
// synonym cap.
func New(
	chat Chatter,
	ps prompts.System,
	logger *slog.Logger,
	max int,
) *Generator {
	return &Generator{
		chat:    chat,
		prompts: ps,
		logger:  logger.With("system", "synonyms"),
		max:     max,
	}
}

// Generate returns up to the configured number of synonyms for a term.
// An empty result is valid; some terms have no useful alternate names.
func (g *Generator) Generate(ctx context.Context, term catalog.Term) ([]string, error) {
	prompt, err := composePrompt(ctx, g.prompts, term, g.max)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerateFailed, err)
	}

	content, err := g.chat.Chat(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: chat call: %w", ErrGenerateFailed, err)
	}

	result := ParseList(content, term.Name, g.max)
	g.logger.Debug("synonyms generated", "term", term.ID, "count", len(result))
	return result, nil
}

func composePrompt(
	ctx context.Context,
	ps prompts.System,
	term catalog.Term,
	max int,
) (string, error) {
	instructions, err := ps.Instructions(ctx, prompts.StageSynonyms)
	if err != nil {
		return "", fmt.Errorf("load instructions: %w", err)
	}

	spec, err := ps.Spec(ctx, prompts.StageSynonyms)
	if err != nil {
		return "", fmt.Errorf("load spec: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)
	fmt.Fprintf(&sb, "\n\nGenerate up to %d synonyms for this term:\n\n", max)
	fmt.Fprintf(&sb, "Name: %s\n", term.Name)
	fmt.Fprintf(&sb, "Definition: %s\n", term.Definition)

	return sb.String(), nil
}

// ParseList splits a comma-separated synonym response into a deduplicated
// list capped at max entries. Order of first occurrence is preserved; the
// term name itself and empty entries are dropped. Comparison is
// case-insensitive.
func ParseList(content, termName string, max int) []string {
	content = strings.TrimSpace(content)
	content = strings.Trim(content, "`")

	if content == "" {
		return nil
	}

	seen := map[string]struct{}{
		strings.ToLower(strings.TrimSpace(termName)): {},
	}

	var result []string
	for _, part := range strings.Split(content, ",") {
		synonym := strings.TrimSpace(part)
		synonym = strings.Trim(synonym, `"'`)
		if synonym == "" {
			continue
		}

		key := strings.ToLower(synonym)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		result = append(result, synonym)
		if len(result) == max {
			break
		}
	}

	return result
}
