// Package extract pulls structured contact signals out of fetched pages:
// emails, phones, person names with titles, social URLs, and schema.org
// Organization blocks.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/sells-group/resolver-cli/internal/scrape"
)

// Person is a name/title pair observed on a page.
type Person struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// Organization is a schema.org Organization or LocalBusiness block.
type Organization struct {
	Type      string `json:"@type"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
}

// Signals is everything extracted from one page, structured rather than
// free text.
type Signals struct {
	Text      string        `json:"text"`
	Emails    []string      `json:"emails,omitempty"`
	Phones    []string      `json:"phones,omitempty"`
	People    []Person      `json:"people,omitempty"`
	Socials   []string      `json:"socials,omitempty"`
	SchemaOrg *Organization `json:"schema_org,omitempty"`
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}`)

	socialRe = regexp.MustCompile(`https?://(?:www\.)?(?:[a-z]{2,3}\.)?(?:linkedin\.com/(?:in|company)/[A-Za-z0-9_%\-]+|facebook\.com/[A-Za-z0-9.\-]+|(?:twitter|x)\.com/[A-Za-z0-9_]+|instagram\.com/[A-Za-z0-9_.]+)`)

	// "Jane Smith, CEO" / "Jane Smith - Owner" / "Dr. Jane Smith, Director of Care"
	personRe = regexp.MustCompile(`(?m)((?:Dr\.\s+)?[A-Z][a-z]+(?:\s+[A-Z]\.)?\s+[A-Z][a-z]+(?:-[A-Z][a-z]+)?)\s*[,\-–—|]\s*((?:Co-)?(?:CEO|CFO|COO|CTO|President|Owner|Founder|Partner|Principal|Director|Administrator|Manager|Administrator of [A-Z][a-z]+|Director of [A-Z][a-z]+(?:\s+[A-Z][a-z]+)?|VP(?:\s+of\s+[A-Z][a-z]+)?|Vice President(?:\s+of\s+[A-Z][a-z]+)?))`)

	ldJSONRe = regexp.MustCompile(`(?is)<script[^>]+type=["']application/ld\+json["'][^>]*>(.*?)</script>`)

	imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}
)

// FromPage extracts all signals from a fetched page. HTML is preferred for
// schema.org and mailto discovery; the text body feeds the rest.
func FromPage(page *scrape.Result) Signals {
	if page == nil {
		return Signals{}
	}

	sig := Signals{Text: page.Text}
	haystack := page.Text
	if page.HTML != "" {
		haystack += "\n" + page.HTML
	}

	sig.Emails = dedupe(filterEmails(emailRe.FindAllString(haystack, -1)))
	sig.Phones = dedupe(phoneRe.FindAllString(page.Text, -1))
	sig.Socials = dedupe(socialRe.FindAllString(haystack, -1))
	sig.People = extractPeople(page.Text)

	if page.HTML != "" {
		sig.SchemaOrg = extractSchemaOrg(page.HTML, &sig)
	}

	return sig
}

func extractPeople(text string) []Person {
	matches := personRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var people []Person
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		people = append(people, Person{
			Name:  name,
			Title: strings.TrimSpace(m[2]),
		})
	}
	return people
}

// extractSchemaOrg parses ld+json blocks, returning the first Organization
// and folding any Person entries into the signals.
func extractSchemaOrg(html string, sig *Signals) *Organization {
	var org *Organization

	for _, m := range ldJSONRe.FindAllStringSubmatch(html, -1) {
		raw := strings.TrimSpace(m[1])

		// Blocks may hold a single object or an array.
		var nodes []map[string]any
		var single map[string]any
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			nodes = append(nodes, single)
		} else if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
			continue
		}

		for _, node := range nodes {
			switch nodeType(node) {
			case "Organization", "LocalBusiness", "MedicalOrganization", "Corporation":
				if org == nil {
					org = &Organization{
						Type:      nodeType(node),
						Name:      str(node["name"]),
						URL:       str(node["url"]),
						Telephone: str(node["telephone"]),
						Email:     str(node["email"]),
					}
				}
			case "Person":
				name := str(node["name"])
				if name != "" {
					sig.People = append(sig.People, Person{
						Name:  name,
						Title: str(node["jobTitle"]),
					})
				}
			}
		}
	}

	return org
}

func nodeType(node map[string]any) string {
	switch t := node["@type"].(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func filterEmails(emails []string) []string {
	var out []string
outer:
	for _, e := range emails {
		lower := strings.ToLower(e)
		for _, ext := range imageExts {
			if strings.HasSuffix(lower, ext) {
				continue outer
			}
		}
		if strings.Contains(lower, "example.com") || strings.Contains(lower, "sentry") {
			continue
		}
		out = append(out, lower)
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
