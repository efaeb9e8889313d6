// Package validate scores discovered contacts on a bounded set of signals
// and decides validity. The scorer is deterministic; every point awarded or
// deducted appears in the returned breakdown.
package validate

import (
	_ "embed"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/normalize"
)

//go:embed tables.yaml
var tablesYAML []byte

// tables holds the static email and brand classification lists.
var tables struct {
	RoleAccounts    []string `yaml:"role_accounts"`
	FreeProviders   []string `yaml:"free_providers"`
	DirectoryBrands []string `yaml:"directory_brands"`
	GenericTitles   []string `yaml:"generic_titles"`
}

var (
	roleAccounts    = map[string]bool{}
	freeProviders   = map[string]bool{}
	genericTitles   = map[string]bool{}
	directoryBrands []string
)

func init() {
	if err := yaml.Unmarshal(tablesYAML, &tables); err != nil {
		panic("validate: bad tables.yaml: " + err.Error())
	}
	for _, r := range tables.RoleAccounts {
		roleAccounts[r] = true
	}
	for _, p := range tables.FreeProviders {
		freeProviders[p] = true
	}
	for _, t := range tables.GenericTitles {
		genericTitles[t] = true
	}
	directoryBrands = tables.DirectoryBrands
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// DefaultValidThreshold is the minimum confidence for a contact to be valid
// when the caller does not supply a configured threshold.
const DefaultValidThreshold = 50

// Breakdown explains a contact's score.
type Breakdown struct {
	Name        float64 `json:"name"`
	Title       float64 `json:"title"`
	EmailSyntax float64 `json:"email_syntax"`
	Deliverable float64 `json:"deliverable"`
	DomainMatch float64 `json:"domain_match"`
	NotRole     float64 `json:"not_role"`
	LinkedIn    float64 `json:"linkedin"`
	MultiSource float64 `json:"multi_source"`
	Penalties   float64 `json:"penalties"`
	Total       float64 `json:"total"`
}

// Validate scores the contact in place against the resolved company domain
// and the company name, filling Signals, Confidence and IsValid. domain may
// be empty when resolution failed. threshold is the configured validity
// floor; zero or negative falls back to DefaultValidThreshold. It returns
// the breakdown for audit.
func Validate(c *model.Contact, companyName, domain string, threshold float64) Breakdown {
	if threshold <= 0 {
		threshold = DefaultValidThreshold
	}
	var b Breakdown

	local, emailDomain := splitEmail(c.Email)
	c.Signals.EmailSyntaxValid = c.Email != "" && emailRe.MatchString(c.Email)
	c.Signals.RoleAccount = local != "" && roleAccounts[local]
	c.Signals.PersonalDomain = emailDomain != "" && freeProviders[emailDomain]

	if norm, ok := NormalizeLinkedIn(c.LinkedInURL); ok {
		c.LinkedInURL = norm
		c.Signals.LinkedInNormalized = true
	} else {
		c.Signals.LinkedInNormalized = false
	}
	c.Signals.NameMatchesConvention = nameMatchesLocal(c.Name, local)

	if plausibleName(c.Name, companyName) {
		b.Name = 20
	}
	if c.Title != "" && !genericTitles[strings.ToLower(strings.TrimSpace(c.Title))] {
		b.Title = 15
	}
	if c.Signals.EmailSyntaxValid {
		b.EmailSyntax = 10
	}
	if c.Signals.Deliverable != nil && *c.Signals.Deliverable {
		b.Deliverable = 15
	}
	if emailDomain != "" && domain != "" && emailDomain == domain {
		b.DomainMatch = 15
	}
	if c.Email != "" && (!c.Signals.RoleAccount || c.Signals.NameMatchesConvention) {
		b.NotRole = 10
	}
	if c.Signals.LinkedInNormalized && IsPersonProfile(c.LinkedInURL) {
		b.LinkedIn = 10
	}
	if len(c.Sources) >= 2 {
		b.MultiSource = 5
	}

	if c.Signals.RoleAccount && c.Name == "" {
		b.Penalties -= 20
	}
	if c.Signals.PersonalDomain && domain != "" {
		b.Penalties -= 15
	}
	if isDirectoryBrand(c.Name) {
		b.Penalties -= 30
	}

	b.Total = b.Name + b.Title + b.EmailSyntax + b.Deliverable + b.DomainMatch +
		b.NotRole + b.LinkedIn + b.MultiSource + b.Penalties
	if b.Total < 0 {
		b.Total = 0
	}
	if b.Total > 100 {
		b.Total = 100
	}

	c.Confidence = b.Total
	c.IsValid = b.Total >= threshold && identityAnchor(c)
	return b
}

// ApplyVerification folds an email_verify result into the contact's signals.
// The caller re-validates afterward.
func ApplyVerification(c *model.Contact, v *model.EmailVerification) {
	if v == nil || c.Email == "" || !strings.EqualFold(c.Email, v.Email) {
		return
	}
	deliverable := v.Deliverable
	c.Signals.Deliverable = &deliverable
	c.Signals.EmailSyntaxValid = v.SyntaxValid
	if v.RoleAccount {
		c.Signals.RoleAccount = true
	}
	if v.FreeProvider {
		c.Signals.PersonalDomain = true
	}
}

// identityAnchor requires one of: verified email, phone with name, or
// LinkedIn with name.
func identityAnchor(c *model.Contact) bool {
	verifiedEmail := c.Signals.Deliverable != nil && *c.Signals.Deliverable
	if verifiedEmail {
		return true
	}
	if c.Name != "" && c.Phone != "" {
		return true
	}
	return c.Name != "" && c.Signals.LinkedInNormalized && IsPersonProfile(c.LinkedInURL)
}

// plausibleName wants at least two alphabetic words that do not just echo
// the company name.
func plausibleName(name, companyName string) bool {
	name = strings.TrimSpace(name)
	words := strings.Fields(name)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if !isNameRune(r) {
				return false
			}
		}
	}
	if companyName != "" && normalize.NameSimilarity(name, companyName) >= 0.8 {
		return false
	}
	return true
}

func isNameRune(r rune) bool {
	return r == '.' || r == '\'' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// nameMatchesLocal checks whether the email local part follows a convention
// derived from the person's name (jsmith, jane.smith, jane).
func nameMatchesLocal(name, local string) bool {
	if name == "" || local == "" {
		return false
	}
	words := strings.Fields(strings.ToLower(name))
	if len(words) == 0 {
		return false
	}
	local = strings.ToLower(local)
	stripped := strings.NewReplacer(".", "", "_", "", "-", "").Replace(local)

	first, last := words[0], words[len(words)-1]
	forms := []string{
		first, last,
		first + last, last + first,
		string(first[0]) + last, first + string(last[0]),
	}
	for _, f := range forms {
		if len(f) >= 3 && (stripped == f || strings.Contains(stripped, f)) {
			return true
		}
	}
	return false
}

func isDirectoryBrand(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return false
	}
	for _, brand := range directoryBrands {
		if lower == brand || strings.Contains(lower, brand) {
			return true
		}
	}
	return false
}

func splitEmail(email string) (local, domain string) {
	if email == "" {
		return "", ""
	}
	parts := strings.SplitN(strings.ToLower(email), "@", 2)
	if len(parts) != 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
