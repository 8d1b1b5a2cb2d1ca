package classifier

import (
	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
)

// FunctionInferer maps a description to the highest-priority function
// category with a matching term.
type FunctionInferer struct {
	categories []domain.FunctionCategory
	matcher    *ahocorasick.Matcher
	// owners[i] is the lowest category index declaring dictionary term i.
	owners []int
	// hints maps normalized category ids and labels to category indexes.
	hints map[string]int
}

// NewFunctionInferer builds a single automaton over every category term.
func NewFunctionInferer(categories []domain.FunctionCategory) *FunctionInferer {
	dict := newDictionary()
	owners := make([]int, 0)
	hints := make(map[string]int, len(categories)*2)

	for ci, c := range categories {
		for _, term := range c.Terms {
			idx, added := dict.add(term)
			if idx < 0 {
				continue
			}
			if added {
				owners = append(owners, ci)
			}
		}
		for _, key := range []string{lexicon.Normalize(c.ID), lexicon.Normalize(c.Label)} {
			if _, exists := hints[key]; key != "" && !exists {
				hints[key] = ci
			}
		}
	}

	return &FunctionInferer{
		categories: categories,
		matcher:    dict.matcher(),
		owners:     owners,
		hints:      hints,
	}
}

// Infer returns the first category, in declaration order, whose terms occur
// in the description. Empty input yields no category.
func (f *FunctionInferer) Infer(description string) (domain.FunctionCategory, bool) {
	return f.inferNormalized(lexicon.Normalize(description))
}

func (f *FunctionInferer) inferNormalized(normalized string) (domain.FunctionCategory, bool) {
	if normalized == "" || f.matcher == nil {
		return domain.FunctionCategory{}, false
	}

	best := -1
	for _, hit := range matchWords(f.matcher, normalized) {
		if hit >= len(f.owners) {
			continue
		}
		if owner := f.owners[hit]; best < 0 || owner < best {
			best = owner
		}
	}
	if best < 0 {
		return domain.FunctionCategory{}, false
	}
	return f.categories[best], true
}

// Resolve validates a caller-supplied hint against the closed category set.
// The hint may be a category id or label; comparison ignores case and accents.
func (f *FunctionInferer) Resolve(hint string) (domain.FunctionCategory, bool) {
	key := lexicon.Normalize(hint)
	if key == "" {
		return domain.FunctionCategory{}, false
	}
	idx, ok := f.hints[key]
	if !ok {
		return domain.FunctionCategory{}, false
	}
	return f.categories[idx], true
}

// Categories returns the category set in priority order.
func (f *FunctionInferer) Categories() []domain.FunctionCategory {
	out := make([]domain.FunctionCategory, len(f.categories))
	copy(out, f.categories)
	return out
}
