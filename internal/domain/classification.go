package domain

// ClassificationInput is a single classification request.
type ClassificationInput struct {
	Description  string `json:"description"`
	FunctionHint string `json:"function_hint,omitempty"`
	TypeHint     string `json:"type_hint,omitempty"`
}

// ClassificationCandidate is a scored lexicon entry produced by the engine.
type ClassificationCandidate struct {
	HSCode          string   `json:"hs_code"`
	Label           string   `json:"label"`
	Confidence      float64  `json:"confidence"`
	MatchedTerms    []string `json:"matched_terms"`
	FunctionBoosted bool     `json:"function_boosted"`

	// Index is the entry's position in the lexicon, used for stable ordering.
	Index int `json:"-"`
}

// ClassificationResult is the external shape of one candidate.
type ClassificationResult struct {
	HSCode      string  `json:"hs_code"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Rationale   string  `json:"rationale"`
}

// ClassificationResponse wraps the ranked results for a single input.
type ClassificationResponse struct {
	Results          []ClassificationResult `json:"results"`
	LexiconVersion   string                 `json:"lexicon_version,omitempty"`
	FunctionCategory string                 `json:"function_category,omitempty"`
}
