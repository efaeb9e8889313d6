package model

// ContactSignals are the boolean signals the validator scores.
type ContactSignals struct {
	EmailSyntaxValid      bool  `json:"email_syntactically_valid"`
	Deliverable           *bool `json:"deliverable,omitempty"` // nil until email_verify ran
	RoleAccount           bool  `json:"is_role_account"`
	PersonalDomain        bool  `json:"is_personal_domain"`
	LinkedInNormalized    bool  `json:"linkedin_normalized"`
	NameMatchesConvention bool  `json:"name_matches_domain_convention"`
}

// Contact is a discovered (and possibly validated) person at a company.
type Contact struct {
	Name        string         `json:"name,omitempty"`
	Title       string         `json:"title,omitempty"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	LinkedInURL string         `json:"linkedin_url,omitempty"`
	Sources     []SourceTag    `json:"sources"`
	Signals     ContactSignals `json:"signals"`
	Confidence  float64        `json:"confidence"` // 0-100
	IsValid     bool           `json:"is_valid"`
}

// HasSource reports whether the contact carries the given source tag.
func (c *Contact) HasSource(tag SourceTag) bool {
	for _, s := range c.Sources {
		if s == tag {
			return true
		}
	}
	return false
}

// AddSource appends a source tag if not already present.
func (c *Contact) AddSource(tag SourceTag) {
	if !c.HasSource(tag) {
		c.Sources = append(c.Sources, tag)
	}
}

// Identity reports whether the contact carries at least one identity-bearing
// field (name, email, phone, or LinkedIn).
func (c *Contact) Identity() bool {
	return c.Name != "" || c.Email != "" || c.Phone != "" || c.LinkedInURL != ""
}

// EmailVerification is the structured result of the email_verify adapter.
type EmailVerification struct {
	Email        string `json:"email"`
	SyntaxValid  bool   `json:"syntax"`
	MXValid      bool   `json:"mx_valid"`
	Deliverable  bool   `json:"deliverable"`
	CatchAll     bool   `json:"catch_all"`
	RoleAccount  bool   `json:"role"`
	FreeProvider bool   `json:"free_provider"`
}
