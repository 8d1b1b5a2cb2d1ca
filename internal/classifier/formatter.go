package classifier

import (
	"strings"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
)

// FormatCandidate maps a candidate to its external shape. functionLabel is
// appended to the rationale only when the candidate received the function boost.
func FormatCandidate(c domain.ClassificationCandidate, functionLabel string) domain.ClassificationResult {
	return domain.ClassificationResult{
		HSCode:      c.HSCode,
		Description: c.Label,
		Confidence:  c.Confidence,
		Rationale:   Rationale(c, functionLabel),
	}
}

// Rationale renders "matched: t1, t2" with an optional "; function: <label>".
func Rationale(c domain.ClassificationCandidate, functionLabel string) string {
	var b strings.Builder
	b.WriteString("matched: ")
	b.WriteString(strings.Join(c.MatchedTerms, ", "))
	if c.FunctionBoosted && functionLabel != "" {
		b.WriteString("; function: ")
		b.WriteString(functionLabel)
	}
	return b.String()
}

// Format builds the response for an evaluation. Results is never nil so the
// JSON form is always an array.
func Format(eval Evaluation, lexiconVersion string) *domain.ClassificationResponse {
	resp := &domain.ClassificationResponse{
		Results:        make([]domain.ClassificationResult, 0, len(eval.Candidates)),
		LexiconVersion: lexiconVersion,
	}

	label := ""
	if eval.Function != nil {
		resp.FunctionCategory = eval.Function.ID
		label = eval.Function.Label
	}
	for _, c := range eval.Candidates {
		resp.Results = append(resp.Results, FormatCandidate(c, label))
	}
	return resp
}
