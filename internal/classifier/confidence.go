package classifier

// Calibration bounds observed for cosine similarity over the embedding
// models in use: below the floor matches are noise, above the ceiling they
// are near-exact.
const (
	similarityFloor   = 0.25
	similarityCeiling = 0.95

	committedBase       = 0.55
	shortlistWeight     = 0.15
	agreementWeight     = 0.20
	embedScoreWeight    = 0.10
	shortlistSaturation = 5
)

// Scorer converts raw strategy output into the calibrated [0,1] confidence
// that the match threshold gates on.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Embedding remaps a cosine similarity into [0,1] linearly between the
// calibration floor and ceiling. Monotonic: a higher similarity never
// yields a lower confidence.
func (sc *Scorer) Embedding(similarity float64) float64 {
	return clamp((similarity - similarityFloor) / (similarityCeiling - similarityFloor))
}

// Committed scores an LLM or agent commitment. A fuller shortlist, an
// embedding shortlist that agrees with the chosen term, and a strong
// embedding score for the chosen candidate each raise confidence above
// the base.
func (sc *Scorer) Committed(offered int, agreement bool, embedScore float64) float64 {
	if offered > shortlistSaturation {
		offered = shortlistSaturation
	}

	score := committedBase + shortlistWeight*float64(offered)/shortlistSaturation
	if agreement {
		score += agreementWeight
	}
	score += embedScoreWeight * clamp(embedScore)

	return clamp(score)
}

// Score computes the final confidence for a strategy's selection.
// An uncommitted selection always scores zero.
func (sc *Scorer) Score(method Method, sel *Selection) float64 {
	if sel.ChosenID == "" {
		return 0
	}

	chosen, ok := findCandidate(sel.Candidates, sel.ChosenID)
	if !ok {
		return 0
	}

	if method == MethodEmbedding {
		return chosen.Confidence
	}

	agreement := len(sel.Candidates) > 0 && sel.Candidates[0].TermID == sel.ChosenID
	return sc.Committed(len(sel.Candidates), agreement, chosen.Confidence)
}

func findCandidate(candidates []Candidate, termID string) (Candidate, bool) {
	for _, c := range candidates {
		if c.TermID == termID {
			return c, true
		}
	}
	return Candidate{}, false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
