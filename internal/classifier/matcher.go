package classifier

import (
	"sort"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
)

// dictionary collects distinct normalized terms for an Aho-Corasick automaton.
// The automaton keeps one index per distinct string, so duplicates must be
// folded before it is built.
type dictionary struct {
	terms []string
	index map[string]int
}

func newDictionary() *dictionary {
	return &dictionary{index: make(map[string]int)}
}

// add registers term and returns its dictionary index; added is false when the
// normalized term was already present. Terms that normalize to "" return -1.
func (d *dictionary) add(term string) (idx int, added bool) {
	normalized := lexicon.Normalize(term)
	if normalized == "" {
		return -1, false
	}
	// Leading space anchors the term to the start of a word.
	key := " " + normalized
	if existing, ok := d.index[key]; ok {
		return existing, false
	}
	d.index[key] = len(d.terms)
	d.terms = append(d.terms, key)
	return len(d.terms) - 1, true
}

func (d *dictionary) matcher() *ahocorasick.Matcher {
	if len(d.terms) == 0 {
		return nil
	}
	return ahocorasick.NewStringMatcher(d.terms)
}

// matchWords runs the automaton over already-normalized text and returns the
// distinct dictionary indexes found.
func matchWords(m *ahocorasick.Matcher, normalized string) []int {
	hits := m.MatchThreadSafe([]byte(" " + normalized))
	if len(hits) < 2 {
		return hits
	}
	seen := make(map[int]struct{}, len(hits))
	out := hits[:0]
	for _, h := range hits {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// span is a half-open byte range of the space-padded corpus.
type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

func overlapsAny(s span, claimed []span) bool {
	for _, c := range claimed {
		if s.overlaps(c) {
			return true
		}
	}
	return false
}

// claimTerms keeps the matched keys that own text not already claimed by a
// longer key, so nested terms ("stampaggio a iniezione", "iniezione") count
// once. Keys are tried longest first; kept terms come back in input order
// without the leading space, along with the claimed spans.
func claimTerms(padded string, keys []string) ([]string, []span) {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(keys[order[a]]) > len(keys[order[b]])
	})

	keep := make([]bool, len(keys))
	claimed := make([]span, 0, len(keys))
	for _, k := range order {
		if s, ok := freeOccurrence(padded, keys[k], claimed); ok {
			keep[k] = true
			claimed = append(claimed, s)
		}
	}

	terms := make([]string, 0, len(keys))
	for i, key := range keys {
		if keep[i] {
			terms = append(terms, strings.TrimPrefix(key, " "))
		}
	}
	return terms, claimed
}

// freeOccurrence returns the first occurrence of key that overlaps no claimed span.
func freeOccurrence(padded, key string, claimed []span) (span, bool) {
	for from := 0; from < len(padded); {
		j := strings.Index(padded[from:], key)
		if j < 0 {
			return span{}, false
		}
		s := span{start: from + j, end: from + j + len(key)}
		if !overlapsAny(s, claimed) {
			return s, true
		}
		from = s.start + 1
	}
	return span{}, false
}
