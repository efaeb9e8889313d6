// Package model defines the shared data types for the resolution pipeline.
package model

// CompanyInput is one company row as submitted by the caller. Immutable
// after ingestion; the normalizer returns a cleaned copy, never mutates.
type CompanyInput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"domain,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Category string `json:"category,omitempty"`
	Context  string `json:"context,omitempty"`
}

// Tier classifies input completeness. Tier1 is the richest (name + city +
// phone), Tier4 the poorest (name only).
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
	Tier4 Tier = 4
)

// BusinessType drives contact-discovery stage ordering.
type BusinessType string

const (
	BusinessSMB        BusinessType = "smb"
	BusinessFranchise  BusinessType = "franchise"
	BusinessHealthcare BusinessType = "healthcare"
	BusinessCorporate  BusinessType = "corporate"
)

// NormalizedInput is the normalizer's output: the cleaned row plus its
// routing classification.
type NormalizedInput struct {
	Input        CompanyInput `json:"input"`
	Tier         Tier         `json:"tier"`
	BusinessType BusinessType `json:"business_type"`
	Warnings     []string     `json:"warnings,omitempty"`
}
