package domain

import "regexp"

// FunctionCategory is a machine's primary industrial function.
// Categories are declared in priority order; earlier ones are more specific.
type FunctionCategory struct {
	ID    string   `json:"id"    yaml:"id"`
	Label string   `json:"label" yaml:"label"`
	Terms []string `json:"terms" yaml:"terms"`
}

// LexiconEntry maps keyword stems to a candidate HS/TARIC code.
type LexiconEntry struct {
	HSCode    string   `json:"hs_code"             yaml:"hs_code"`
	Label     string   `json:"label"               yaml:"label"`
	Terms     []string `json:"terms"               yaml:"terms"`
	Pattern   string   `json:"pattern,omitempty"   yaml:"pattern,omitempty"`
	Functions []string `json:"functions,omitempty" yaml:"functions,omitempty"`
	DutyHint  string   `json:"duty_hint,omitempty" yaml:"duty_hint,omitempty"`
	Notes     string   `json:"notes,omitempty"     yaml:"notes,omitempty"`
}

var hsCodePattern = regexp.MustCompile(`^\d{4}(\.\d{2}){0,3}$`)

// ValidHSCode reports whether code is a 4-digit heading optionally followed by
// up to three dot-separated 2-digit groups (e.g. "8462", "8477.80", "8462.11.10.00").
func ValidHSCode(code string) bool {
	return hsCodePattern.MatchString(code)
}

// Specificity is the number of digits in an HS code.
func Specificity(code string) int {
	n := 0
	for _, r := range code {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
