package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/termstudio/taxon/internal/prompts"
	"github.com/termstudio/taxon/pkg/formatting"
)

// State bag keys for the agent deliberation graph.
const (
	keyInput      = "input"
	keyK          = "k"
	keyIteration  = "iteration"
	keyCandidates = "candidates"
	keyDecision   = "decision"
	keyChosenID   = "chosen_id"
	keyTrace      = "trace"
)

// Deliberation decisions.
const (
	decisionAccept = "accept"
	decisionRefine = "refine"
	decisionReject = "reject"
)

type deliberateResponse struct {
	Decision  string  `json:"decision"`
	ChosenID  *string `json:"chosen_id"`
	Rationale string  `json:"rationale"`
}

// AgentStrategy classifies through a state graph: shortlist the nearest
// terms, deliberate over them, and either commit, reject, or refine by
// doubling the shortlist and looping back. Refinement is bounded; when the
// budget is exhausted the deliberation is forced to reject. The
// accumulated trace of steps becomes the result rationale.
type AgentStrategy struct {
	shortlister    Shortlister
	chat           Chatter
	prompts        prompts.System
	k              int
	maxRefinements int
	logger         *slog.Logger
}

// NewAgentStrategy creates an AgentStrategy with initial shortlist size k
// and the given refinement budget.
func NewAgentStrategy(
	shortlister Shortlister,
	chat Chatter,
	ps prompts.System,
	k int,
	maxRefinements int,
	logger *slog.Logger,
) *AgentStrategy {
	return &AgentStrategy{
		shortlister:    shortlister,
		chat:           chat,
		prompts:        ps,
		k:              k,
		maxRefinements: maxRefinements,
		logger:         logger.With("strategy", "agent"),
	}
}

func (s *AgentStrategy) Classify(ctx context.Context, input string) (*Selection, error) {
	graph, err := s.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil)
	initial = initial.Set(keyInput, input)
	initial = initial.Set(keyK, s.k)
	initial = initial.Set(keyIteration, 0)
	initial = initial.Set(keyTrace, []string{})

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractSelection(final)
}

func (s *AgentStrategy) buildGraph() (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("taxon-deliberate")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("shortlist", s.shortlistNode()); err != nil {
		return nil, err
	}

	if err := graph.AddNode("deliberate", s.deliberateNode()); err != nil {
		return nil, err
	}

	if err := graph.AddNode("resolve", resolveNode()); err != nil {
		return nil, err
	}

	// shortlist → deliberate (unconditional)
	if err := graph.AddEdge("shortlist", "deliberate", nil); err != nil {
		return nil, err
	}

	// deliberate → shortlist (refine loop, bounded inside the node)
	if err := graph.AddEdge("deliberate", "shortlist", isRefine); err != nil {
		return nil, err
	}

	// deliberate → resolve (accept or reject)
	if err := graph.AddEdge("deliberate", "resolve", state.Not(isRefine)); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("shortlist"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("resolve"); err != nil {
		return nil, err
	}

	return graph, nil
}

func (s *AgentStrategy) shortlistNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, st state.State) (state.State, error) {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		input, k, trace, err := extractShortlistState(st)
		if err != nil {
			return st, err
		}

		candidates, err := s.shortlister.Shortlist(ctx, input, k)
		if err != nil {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			return st, fmt.Errorf("shortlist: %w", err)
		}

		trace = append(trace, fmt.Sprintf("shortlist k=%d returned %d candidates", k, len(candidates)))

		st = st.Set(keyCandidates, candidates)
		st = st.Set(keyTrace, trace)
		return st, nil
	})
}

func (s *AgentStrategy) deliberateNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, st state.State) (state.State, error) {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		input, candidates, iteration, trace, err := extractDeliberateState(st)
		if err != nil {
			return st, err
		}

		decision, chosenID, note := s.deliberate(ctx, input, candidates)
		if err := ctx.Err(); err != nil {
			return st, err
		}

		if decision == decisionRefine && iteration >= s.maxRefinements {
			decision = decisionReject
			note = "refinement budget exhausted"
		}

		trace = append(trace, fmt.Sprintf("deliberate: %s (%s)", decision, note))

		if decision == decisionRefine {
			k, _ := st.Get(keyK)
			st = st.Set(keyK, k.(int)*2)
			st = st.Set(keyIteration, iteration+1)
		}

		st = st.Set(keyDecision, decision)
		st = st.Set(keyChosenID, chosenID)
		st = st.Set(keyTrace, trace)
		return st, nil
	})
}

// deliberate runs one inference over the current shortlist. Failures
// degrade rather than abort: an inference error rejects, an unparseable
// response refines (a wider shortlist gets one more chance), and an
// accept without a known candidate ID rejects.
func (s *AgentStrategy) deliberate(
	ctx context.Context,
	input string,
	candidates []Candidate,
) (decision, chosenID, note string) {
	if len(candidates) == 0 {
		return decisionReject, "", "no candidates to deliberate over"
	}

	prompt, err := composeDeliberatePrompt(ctx, s.prompts, input, candidates)
	if err != nil {
		return decisionReject, "", fmt.Sprintf("compose prompt failed: %v", err)
	}

	content, err := s.chat.Chat(ctx, prompt)
	if err != nil {
		return decisionReject, "", fmt.Sprintf("inference failed: %v", err)
	}

	parsed, err := formatting.Parse[deliberateResponse](content)
	if err != nil {
		s.logger.Warn("unparseable deliberation response", "error", err)
		return decisionRefine, "", "unparseable response"
	}

	switch parsed.Decision {
	case decisionAccept:
		if parsed.ChosenID == nil || *parsed.ChosenID == "" {
			return decisionReject, "", "accepted without a candidate"
		}
		if _, ok := findCandidate(candidates, *parsed.ChosenID); !ok {
			return decisionReject, "", fmt.Sprintf("accepted unknown candidate %q", *parsed.ChosenID)
		}
		return decisionAccept, *parsed.ChosenID, parsed.Rationale
	case decisionRefine:
		return decisionRefine, "", parsed.Rationale
	case decisionReject:
		return decisionReject, "", parsed.Rationale
	default:
		return decisionReject, "", fmt.Sprintf("unknown decision %q", parsed.Decision)
	}
}

func resolveNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, st state.State) (state.State, error) {
		return st, ctx.Err()
	})
}

func isRefine(st state.State) bool {
	val, ok := st.Get(keyDecision)
	if !ok {
		return false
	}

	decision, ok := val.(string)
	return ok && decision == decisionRefine
}

func extractShortlistState(st state.State) (string, int, []string, error) {
	input, ok := stateValue[string](st, keyInput)
	if !ok {
		return "", 0, nil, fmt.Errorf("missing %s in state", keyInput)
	}

	k, ok := stateValue[int](st, keyK)
	if !ok {
		return "", 0, nil, fmt.Errorf("missing %s in state", keyK)
	}

	trace, ok := stateValue[[]string](st, keyTrace)
	if !ok {
		return "", 0, nil, fmt.Errorf("missing %s in state", keyTrace)
	}

	return input, k, trace, nil
}

func extractDeliberateState(st state.State) (string, []Candidate, int, []string, error) {
	input, ok := stateValue[string](st, keyInput)
	if !ok {
		return "", nil, 0, nil, fmt.Errorf("missing %s in state", keyInput)
	}

	candidates, ok := stateValue[[]Candidate](st, keyCandidates)
	if !ok {
		return "", nil, 0, nil, fmt.Errorf("missing %s in state", keyCandidates)
	}

	iteration, ok := stateValue[int](st, keyIteration)
	if !ok {
		return "", nil, 0, nil, fmt.Errorf("missing %s in state", keyIteration)
	}

	trace, ok := stateValue[[]string](st, keyTrace)
	if !ok {
		return "", nil, 0, nil, fmt.Errorf("missing %s in state", keyTrace)
	}

	return input, candidates, iteration, trace, nil
}

func extractSelection(st state.State) (*Selection, error) {
	candidates, ok := stateValue[[]Candidate](st, keyCandidates)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", keyCandidates)
	}

	decision, ok := stateValue[string](st, keyDecision)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", keyDecision)
	}

	trace, ok := stateValue[[]string](st, keyTrace)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", keyTrace)
	}

	sel := &Selection{
		Candidates: candidates,
		Rationale:  strings.Join(trace, "; "),
	}

	if decision == decisionAccept {
		chosenID, ok := stateValue[string](st, keyChosenID)
		if !ok {
			return nil, fmt.Errorf("missing %s in final state", keyChosenID)
		}
		sel.ChosenID = chosenID
	}

	return sel, nil
}

func stateValue[T any](st state.State, key string) (T, bool) {
	var zero T

	val, ok := st.Get(key)
	if !ok {
		return zero, false
	}

	typed, ok := val.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func composeDeliberatePrompt(
	ctx context.Context,
	ps prompts.System,
	input string,
	candidates []Candidate,
) (string, error) {
	instructions, err := ps.Instructions(ctx, prompts.StageDeliberate)
	if err != nil {
		return "", fmt.Errorf("load instructions: %w", err)
	}

	spec, err := ps.Spec(ctx, prompts.StageDeliberate)
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
