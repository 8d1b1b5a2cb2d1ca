// Package classifier scores lexicon entries against machinery descriptions
// and shapes the ranked candidates for callers.
//
// Matching uses a single Aho-Corasick automaton per engine. The engine is
// built once from an immutable lexicon and is safe for concurrent use.
package classifier

import (
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
)

// Scoring defaults.
const (
	DefaultBaseWeight    = 0.5
	DefaultFunctionBoost = 0.3
	DefaultTermBoost     = 0.1
	DefaultMaxResults    = 10

	maxConfidence       = 1.0
	confidencePrecision = 1000
)

// Options tunes scoring and truncation.
type Options struct {
	BaseWeight    float64
	FunctionBoost float64
	TermBoost     float64
	MaxResults    int
}

// DefaultOptions returns the standard scoring weights.
func DefaultOptions() Options {
	return Options{
		BaseWeight:    DefaultBaseWeight,
		FunctionBoost: DefaultFunctionBoost,
		TermBoost:     DefaultTermBoost,
		MaxResults:    DefaultMaxResults,
	}
}

// setDefaults replaces a zero Options with DefaultOptions and repairs
// out-of-range fields. Zero boosts are kept when other fields are set.
func (o *Options) setDefaults() {
	if *o == (Options{}) {
		*o = DefaultOptions()
		return
	}
	if o.BaseWeight <= 0 {
		o.BaseWeight = DefaultBaseWeight
	}
	if o.FunctionBoost < 0 {
		o.FunctionBoost = DefaultFunctionBoost
	}
	if o.TermBoost < 0 {
		o.TermBoost = DefaultTermBoost
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
}

// Evaluation is the engine output for one input.
type Evaluation struct {
	// Function is the resolved category, nil when neither hint nor inference produced one.
	Function   *domain.FunctionCategory
	Candidates []domain.ClassificationCandidate
}

// Engine ranks lexicon entries for a description.
type Engine struct {
	lexicon *lexicon.Lexicon
	inferer *FunctionInferer
	matcher *ahocorasick.Matcher
	terms   []string
	entries []compiledEntry
	opts    Options
}

type compiledEntry struct {
	entry domain.LexiconEntry
	// termIDs are dictionary indexes in declaration order, without duplicates.
	termIDs   []int
	functions map[string]struct{}
}

// NewEngine compiles the lexicon into a matcher. It fails with
// lexicon.ErrEmptyLexicon when lex is nil or has no entries or categories.
func NewEngine(lex *lexicon.Lexicon, opts Options) (*Engine, error) {
	if lex.Empty() {
		return nil, lexicon.ErrEmptyLexicon
	}
	opts.setDefaults()

	dict := newDictionary()
	entries := make([]compiledEntry, len(lex.Entries))
	for i, e := range lex.Entries {
		ce := compiledEntry{
			entry:     e,
			termIDs:   make([]int, 0, len(e.Terms)),
			functions: make(map[string]struct{}, len(e.Functions)),
		}
		seen := make(map[int]struct{}, len(e.Terms))
		for _, term := range e.Terms {
			idx, _ := dict.add(term)
			if idx < 0 {
				continue
			}
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			ce.termIDs = append(ce.termIDs, idx)
		}
		for _, f := range e.Functions {
			ce.functions[f] = struct{}{}
		}
		entries[i] = ce
	}

	return &Engine{
		lexicon: lex,
		inferer: NewFunctionInferer(lex.FunctionCategories),
		matcher: dict.matcher(),
		terms:   dict.terms,
		entries: entries,
		opts:    opts,
	}, nil
}

// Lexicon returns the lexicon the engine was built from.
func (e *Engine) Lexicon() *lexicon.Lexicon {
	return e.lexicon
}

// Functions returns the function inferer sharing the engine's lexicon.
func (e *Engine) Functions() *FunctionInferer {
	return e.inferer
}

// Options returns the effective scoring options.
func (e *Engine) Options() Options {
	return e.opts
}

// Classify returns the ranked candidates for input. It never fails: empty or
// unmatched descriptions produce an empty slice.
func (e *Engine) Classify(input domain.ClassificationInput) []domain.ClassificationCandidate {
	return e.Evaluate(input).Candidates
}

// Evaluate is Classify plus the function category used for boosting.
func (e *Engine) Evaluate(input domain.ClassificationInput) Evaluation {
	eval := Evaluation{Candidates: []domain.ClassificationCandidate{}}

	description := lexicon.Normalize(input.Description)
	if description == "" {
		return eval
	}
	corpus := description
	if typeHint := lexicon.Normalize(input.TypeHint); typeHint != "" {
		corpus += " " + typeHint
	}

	if fn, ok := e.inferer.Resolve(input.FunctionHint); ok {
		eval.Function = &fn
	} else if fn, ok := e.inferer.inferNormalized(corpus); ok {
		eval.Function = &fn
	}

	matched := make(map[int]struct{})
	if e.matcher != nil {
		for _, hit := range matchWords(e.matcher, corpus) {
			matched[hit] = struct{}{}
		}
	}

	for i := range e.entries {
		if c, ok := e.score(i, corpus, matched, eval.Function); ok {
			eval.Candidates = append(eval.Candidates, c)
		}
	}

	sortCandidates(eval.Candidates)
	if len(eval.Candidates) > e.opts.MaxResults {
		eval.Candidates = eval.Candidates[:e.opts.MaxResults]
	}
	return eval
}

func (e *Engine) score(
	i int, corpus string, matched map[int]struct{}, fn *domain.FunctionCategory,
) (domain.ClassificationCandidate, bool) {
	ce := &e.entries[i]

	keys := make([]string, 0, len(ce.termIDs))
	for _, id := range ce.termIDs {
		if _, ok := matched[id]; ok {
			keys = append(keys, e.terms[id])
		}
	}
	padded := " " + corpus
	terms, claimed := claimTerms(padded, keys)
	if re := e.lexicon.Pattern(i); re != nil {
		if m, ok := patternMatch(re, corpus, claimed); ok && !slices.Contains(terms, m) {
			terms = append(terms, m)
		}
	}
	if len(terms) == 0 {
		return domain.ClassificationCandidate{}, false
	}

	confidence := e.opts.BaseWeight
	boosted := false
	if fn != nil {
		if _, ok := ce.functions[fn.ID]; ok {
			confidence += e.opts.FunctionBoost
			boosted = true
		}
	}
	confidence += e.opts.TermBoost * float64(len(terms)-1)

	return domain.ClassificationCandidate{
		HSCode:          ce.entry.HSCode,
		Label:           ce.entry.Label,
		Confidence:      roundConfidence(confidence),
		MatchedTerms:    terms,
		FunctionBoosted: boosted,
		Index:           i,
	}, true
}

// patternMatch returns the first non-empty pattern match in corpus that does
// not overlap a claimed term.
func patternMatch(re *regexp.Regexp, corpus string, claimed []span) (string, bool) {
	for _, loc := range re.FindAllStringIndex(corpus, -1) {
		m := strings.TrimSpace(corpus[loc[0]:loc[1]])
		if m == "" {
			continue
		}
		// +1 shifts corpus offsets onto the padded corpus.
		if !overlapsAny(span{start: loc[0] + 1, end: loc[1] + 1}, claimed) {
			return m, true
		}
	}
	return "", false
}

// sortCandidates orders by confidence, then code specificity, then lexicon order.
func sortCandidates(cs []domain.ClassificationCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Confidence != cs[j].Confidence {
			return cs[i].Confidence > cs[j].Confidence
		}
		si, sj := domain.Specificity(cs[i].HSCode), domain.Specificity(cs[j].HSCode)
		if si != sj {
			return si > sj
		}
		return cs[i].Index < cs[j].Index
	})
}

func roundConfidence(v float64) float64 {
	v = math.Min(v, maxConfidence)
	v = math.Max(v, 0)
	return math.Round(v*confidencePrecision) / confidencePrecision
}
