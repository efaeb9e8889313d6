// Package normalize cleans raw company rows and classifies them for routing.
// Normalize is deterministic and pure: same input, same output, no I/O.
package normalize

import (
	_ "embed"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/resolver-cli/internal/model"
)

//go:embed keywords.yaml
var keywordsYAML []byte

// keywordTable maps business types to lowercase match keywords.
var keywordTable struct {
	Franchise  []string `yaml:"franchise"`
	Healthcare []string `yaml:"healthcare"`
	Corporate  []string `yaml:"corporate"`
}

func init() {
	if err := yaml.Unmarshal(keywordsYAML, &keywordTable); err != nil {
		panic("normalize: bad keywords.yaml: " + err.Error())
	}
}

// placeholders are dropped from any field during cleaning.
var placeholders = map[string]bool{
	"unknown": true,
	"n/a":     true,
	"na":      true,
	"none":    true,
	"null":    true,
	"-":       true,
	"tbd":     true,
}

// Normalize cleans the row's fields and computes its tier and business type.
// The input is never mutated; a cleaned copy is returned.
func Normalize(in model.CompanyInput) (model.NormalizedInput, error) {
	out := model.NormalizedInput{Input: in}

	out.Input.Name = cleanField(in.Name)
	out.Input.City = cleanField(in.City)
	out.Input.State = cleanField(in.State)
	out.Input.Address = cleanField(in.Address)
	out.Input.Category = cleanField(in.Category)
	out.Input.Context = cleanField(in.Context)

	if out.Input.Name == "" {
		return out, errNameRequired
	}

	if in.Domain != "" {
		d := CleanDomain(in.Domain)
		if d == "" {
			out.Warnings = append(out.Warnings, "domain unparseable, dropped")
		}
		out.Input.Domain = d
	}

	if in.Phone != "" {
		p, ok := ToE164(in.Phone)
		if !ok {
			out.Warnings = append(out.Warnings, "phone not coercible to E.164, dropped")
			p = ""
		}
		out.Input.Phone = p
	}

	out.Tier = classifyTier(out.Input)
	out.BusinessType = classifyBusinessType(out.Input)

	return out, nil
}

var errNameRequired = &InputError{Msg: "name is required"}

// InputError marks an invalid input row.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return "normalize: " + e.Msg }

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if placeholders[strings.ToLower(s)] {
		return ""
	}
	return s
}

// CleanDomain lowercases, strips scheme, www., path, port, and query from a
// domain-like string. Returns "" when nothing host-shaped remains.
func CleanDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	s = strings.Trim(s, ".")

	if !strings.Contains(s, ".") {
		return ""
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '-' {
			return ""
		}
	}
	return s
}

// ToE164 coerces a phone string to E.164. US numbers without a country code
// get +1. Returns false when the digit count is implausible.
func ToE164(raw string) (string, bool) {
	var digits strings.Builder
	plus := strings.HasPrefix(strings.TrimSpace(raw), "+")
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case plus && len(d) >= 8 && len(d) <= 15:
		return "+" + d, true
	case len(d) == 10:
		return "+1" + d, true
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d, true
	default:
		return "", false
	}
}

// FoldName lowercases a name and strips diacritics for matching.
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func classifyTier(in model.CompanyInput) model.Tier {
	switch {
	case in.Name != "" && in.City != "" && in.Phone != "":
		return model.Tier1
	case in.Name != "" && in.City != "":
		return model.Tier2
	case in.Name != "" && (in.Category != "" || in.Context != ""):
		return model.Tier3
	default:
		return model.Tier4
	}
}

func classifyBusinessType(in model.CompanyInput) model.BusinessType {
	haystack := FoldName(in.Name + " " + in.Category + " " + in.Context)

	for _, kw := range keywordTable.Franchise {
		if strings.Contains(haystack, kw) {
			return model.BusinessFranchise
		}
	}
	for _, kw := range keywordTable.Healthcare {
		if strings.Contains(haystack, kw) {
			return model.BusinessHealthcare
		}
	}
	for _, kw := range keywordTable.Corporate {
		if strings.Contains(haystack, kw) {
			return model.BusinessCorporate
		}
	}
	return model.BusinessSMB
}
