package model

import (
	"fmt"
	"strconv"
)

// CSVHeader is the output column set for batch CSV results, one row per top
// contact with a flag for additional contacts.
var CSVHeader = []string{
	"company_name", "domain", "confidence", "source", "needs_manual_review",
	"contact_name", "contact_title", "contact_email", "contact_phone",
	"linkedin_url", "is_valid", "has_more_contacts", "stages_completed",
	"error_message",
}

// CSVRow renders a resolved record as one CSV row. The top valid contact is
// used when present, otherwise the highest-confidence contact of any kind.
func CSVRow(companyName string, rec *ResolvedRecord) []string {
	top := rec.ValidContact()
	if top == nil {
		for i := range rec.Contacts {
			c := &rec.Contacts[i]
			if top == nil || c.Confidence > top.Confidence {
				top = c
			}
		}
	}

	var name, title, email, phone, linkedin, valid string
	if top != nil {
		name, title, email, phone, linkedin = top.Name, top.Title, top.Email, top.Phone, top.LinkedInURL
		valid = strconv.FormatBool(top.IsValid)
	}

	var errMsg string
	if len(rec.Errors) > 0 {
		e := rec.Errors[len(rec.Errors)-1]
		errMsg = TruncateError(fmt.Sprintf("%s: %s", e.Kind, e.Detail))
	}

	return []string{
		companyName,
		rec.Domain,
		strconv.FormatFloat(rec.DomainConfidence, 'f', 1, 64),
		string(rec.DomainSource),
		strconv.FormatBool(rec.NeedsManualReview),
		name, title, email, phone, linkedin, valid,
		strconv.FormatBool(len(rec.Contacts) > 1),
		rec.StageTagString(),
		errMsg,
	}
}
