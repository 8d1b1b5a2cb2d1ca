// Package lexicon loads and validates the versioned HS/TARIC keyword lexicon.
//
// A Lexicon is immutable after Parse returns: callers share a single value
// across goroutines and must not modify its slices.
package lexicon

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
)

//go:embed data/lexicon.yml
var embedded embed.FS

const embeddedPath = "data/lexicon.yml"

var (
	// ErrEmptyLexicon is returned when a lexicon has no entries or no function categories.
	ErrEmptyLexicon = errors.New("lexicon is empty")
	// ErrInvalidLexicon wraps every structural validation failure.
	ErrInvalidLexicon = errors.New("invalid lexicon")
)

// Lexicon is the loaded keyword table.
type Lexicon struct {
	Version            string                    `yaml:"version"`
	FunctionCategories []domain.FunctionCategory `yaml:"function_categories"`
	Entries            []domain.LexiconEntry     `yaml:"entries"`

	// Checksum is the sha256 of the raw file and identifies the exact
	// table that produced a classification.
	Checksum string `yaml:"-"`
	// Source is the path the lexicon was read from, or "embedded".
	Source string `yaml:"-"`

	patterns []*regexp.Regexp
}

// Default returns the lexicon compiled into the binary.
func Default() (*Lexicon, error) {
	data, err := embedded.ReadFile(embeddedPath)
	if err != nil {
		return nil, fmt.Errorf("read embedded lexicon: %w", err)
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, err
	}
	lex.Source = "embedded"
	return lex, nil
}

// Load reads a lexicon file, or the embedded lexicon when path is empty.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	lex.Source = path
	return lex, nil
}

// Parse decodes and validates a YAML lexicon.
func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidLexicon, err)
	}
	if err := lex.validate(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	lex.Checksum = hex.EncodeToString(sum[:])
	return &lex, nil
}

// Pattern returns the compiled pattern for entry i, or nil.
func (l *Lexicon) Pattern(i int) *regexp.Regexp {
	if l == nil || i < 0 || i >= len(l.patterns) {
		return nil
	}
	return l.patterns[i]
}

// Empty reports whether the lexicon cannot be used for classification.
func (l *Lexicon) Empty() bool {
	return l == nil || len(l.Entries) == 0 || len(l.FunctionCategories) == 0
}

func (l *Lexicon) validate() error {
	if l.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidLexicon)
	}
	if len(l.Entries) == 0 || len(l.FunctionCategories) == 0 {
		return ErrEmptyLexicon
	}

	categories := make(map[string]struct{}, len(l.FunctionCategories))
	for i, c := range l.FunctionCategories {
		if c.ID == "" || c.Label == "" {
			return fmt.Errorf("%w: function category %d: id and label are required", ErrInvalidLexicon, i)
		}
		if _, dup := categories[c.ID]; dup {
			return fmt.Errorf("%w: duplicate function category %q", ErrInvalidLexicon, c.ID)
		}
		if err := validateTerms(c.Terms); err != nil {
			return fmt.Errorf("%w: function category %q: %w", ErrInvalidLexicon, c.ID, err)
		}
		categories[c.ID] = struct{}{}
	}

	codes := make(map[string]struct{}, len(l.Entries))
	l.patterns = make([]*regexp.Regexp, len(l.Entries))
	for i, e := range l.Entries {
		if !domain.ValidHSCode(e.HSCode) {
			return fmt.Errorf("%w: entry %d: malformed hs_code %q", ErrInvalidLexicon, i, e.HSCode)
		}
		if _, dup := codes[e.HSCode]; dup {
			return fmt.Errorf("%w: duplicate hs_code %q", ErrInvalidLexicon, e.HSCode)
		}
		codes[e.HSCode] = struct{}{}

		if e.Label == "" {
			return fmt.Errorf("%w: entry %s: label is required", ErrInvalidLexicon, e.HSCode)
		}
		if len(e.Terms) == 0 && e.Pattern == "" {
			return fmt.Errorf("%w: entry %s: terms or pattern required", ErrInvalidLexicon, e.HSCode)
		}
		if len(e.Terms) > 0 {
			if err := validateTerms(e.Terms); err != nil {
				return fmt.Errorf("%w: entry %s: %w", ErrInvalidLexicon, e.HSCode, err)
			}
		}
		for _, f := range e.Functions {
			if _, ok := categories[f]; !ok {
				return fmt.Errorf("%w: entry %s: unknown function category %q", ErrInvalidLexicon, e.HSCode, f)
			}
		}
		if e.Pattern != "" {
			re, err := regexp.Compile(e.Pattern)
			if err != nil {
				return fmt.Errorf("%w: entry %s: pattern: %w", ErrInvalidLexicon, e.HSCode, err)
			}
			l.patterns[i] = re
		}
	}

	return nil
}

func validateTerms(terms []string) error {
	if len(terms) == 0 {
		return errors.New("at least one term is required")
	}
	for _, t := range terms {
		if Normalize(t) == "" {
			return fmt.Errorf("term %q is empty after normalization", t)
		}
	}
	return nil
}
