package normalize

import "strings"

// corpStopwords are dropped before comparing business names.
var corpStopwords = map[string]bool{
	"llc": true, "inc": true, "corp": true, "co": true, "ltd": true,
	"the": true, "of": true, "and": true, "a": true, "an": true,
	"company": true, "incorporated": true, "corporation": true,
	"llp": true, "pc": true, "pllc": true, "group": true,
}

// NameTokens folds a business name and splits it into comparison tokens,
// dropping corporate suffixes and stopwords.
func NameTokens(name string) []string {
	folded := FoldName(name)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if !corpStopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

// NameSimilarity returns the Jaccard similarity of two business names'
// token sets, in [0,1].
func NameSimilarity(a, b string) float64 {
	ta, tb := NameTokens(a), NameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}

	inter := 0
	seen := make(map[string]bool, len(tb))
	for _, t := range tb {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		}
	}

	union := len(set) + len(seen) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// DomainMatchesName reports whether a domain's registrable label contains
// the significant tokens of a business name (for convention checks).
func DomainMatchesName(domain, name string) bool {
	label := domain
	if i := strings.Index(label, "."); i > 0 {
		label = label[:i]
	}
	label = strings.ToLower(label)

	tokens := NameTokens(name)
	if len(tokens) == 0 {
		return false
	}
	hits := 0
	for _, t := range tokens {
		if len(t) >= 3 && strings.Contains(label, t) {
			hits++
		}
	}
	return hits*2 >= len(tokens) // at least half the tokens present
}
