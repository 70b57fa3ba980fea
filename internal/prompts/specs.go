package prompts

const synonymsSpec = `Respond with a single comma-separated list of synonyms and nothing else.

Constraints:
- No numbering, bullets, quotes, or markdown fencing
- Each synonym is a short phrase, not a sentence
- Do not repeat the term name itself
- Respond with an empty string when no useful synonyms exist`

const selectSpec = `Respond with a JSON object matching this exact structure:

{
  "chosen_id": "<candidate id or null>",
  "rationale": "<explanation>"
}

Field constraints:
- chosen_id: The ID of the selected candidate exactly as listed, or null
  when no candidate describes the data element.
- rationale: Brief explanation of why the candidate matches, or why no
  candidate was acceptable.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- chosen_id must be one of the listed candidate IDs or null
- Never select more than one candidate`

const deliberateSpec = `Respond with a JSON object matching this exact structure:

{
  "decision": "<accept|refine|reject>",
  "chosen_id": "<candidate id or null>",
  "rationale": "<explanation>"
}

Field constraints:
- decision: accept when one candidate clearly matches, refine when a wider
  shortlist could surface a better match, reject when the candidates are
  unrelated and widening the search is unlikely to help.
- chosen_id: Required when decision is accept; must be one of the listed
  candidate IDs. Null for refine and reject.
- rationale: Brief explanation grounded in the candidate definitions.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Never accept without naming a candidate ID`

var specs = map[Stage]string{
	StageSynonyms:   synonymsSpec,
	StageSelect:     selectSpec,
	StageDeliberate: deliberateSpec,
}

// Spec returns the hardcoded specification for a classification stage.
// Specifications define the expected output format and behavioral constraints.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
