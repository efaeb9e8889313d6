package model

import (
	"strings"
	"time"
)

// ErrorKind classifies pipeline errors. Adapter errors are data on the row,
// never Go errors thrown at the orchestrator.
type ErrorKind string

const (
	ErrInputInvalid     ErrorKind = "input_invalid"
	ErrAdapterTimeout   ErrorKind = "adapter_timeout"
	ErrAdapterHTTP      ErrorKind = "adapter_http_error"
	ErrAdapterQuota     ErrorKind = "adapter_quota"
	ErrParse            ErrorKind = "parse_error"
	ErrJudgeUnavailable ErrorKind = "judge_unavailable"
	ErrNoCandidate      ErrorKind = "no_candidate"
	ErrValidationFailed ErrorKind = "validation_failed"
	ErrDeadlineExceeded ErrorKind = "deadline_exceeded"
	ErrPersistence      ErrorKind = "persistence_error"
)

// RowError is a structured, non-fatal error recorded on a row.
type RowError struct {
	Kind   ErrorKind `json:"kind"`
	Stage  SourceTag `json:"stage,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// StageEvent records one completed adapter invocation, appended in call
// completion order.
type StageEvent struct {
	Tag        SourceTag `json:"tag"`
	CostUSD    float64   `json:"cost_usd"`
	DurationMS int64     `json:"duration_ms"`
	Candidates int       `json:"candidates"`
	Pivot      bool      `json:"pivot,omitempty"`
}

// ResolvedRecord is the per-row output of the pipeline.
type ResolvedRecord struct {
	InputID           string       `json:"input_id"`
	Domain            string       `json:"domain,omitempty"`
	DomainConfidence  float64      `json:"domain_confidence"`
	DomainSource      SourceTag    `json:"domain_source,omitempty"`
	NeedsManualReview bool         `json:"needs_manual_review"`
	Contacts          []Contact    `json:"contacts"`
	Stages            []StageEvent `json:"stages_completed"`
	TotalCostUSD      float64      `json:"total_cost"`
	Errors            []RowError   `json:"errors,omitempty"`
}

// AddStage appends a stage event and accrues its cost.
func (r *ResolvedRecord) AddStage(ev StageEvent) {
	r.Stages = append(r.Stages, ev)
	r.TotalCostUSD += ev.CostUSD
}

// AddError records a structured error on the row.
func (r *ResolvedRecord) AddError(kind ErrorKind, stage SourceTag, detail string) {
	r.Errors = append(r.Errors, RowError{Kind: kind, Stage: stage, Detail: detail})
}

// HasError reports whether any recorded error has the given kind.
func (r *ResolvedRecord) HasError(kind ErrorKind) bool {
	for _, e := range r.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// StageTags returns the completed stage tags in completion order.
func (r *ResolvedRecord) StageTags() []SourceTag {
	tags := make([]SourceTag, len(r.Stages))
	for i, s := range r.Stages {
		tags[i] = s.Tag
	}
	return tags
}

// StageTagString joins completed stage tags with ";" for CSV output.
func (r *ResolvedRecord) StageTagString() string {
	var b strings.Builder
	for i, s := range r.Stages {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(string(s.Tag))
	}
	return b.String()
}

// ValidContact returns the highest-confidence valid contact, or nil.
func (r *ResolvedRecord) ValidContact() *Contact {
	var best *Contact
	for i := range r.Contacts {
		c := &r.Contacts[i]
		if !c.IsValid {
			continue
		}
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// JobStatus is the persisted lifecycle state of a row job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job is the persisted unit of work for one input row.
type Job struct {
	ID           string          `json:"id"`
	Input        CompanyInput    `json:"input"`
	Status       JobStatus       `json:"status"`
	Record       *ResolvedRecord `json:"record,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TruncateError limits error messages to the persisted cap.
func TruncateError(msg string) string {
	const maxLen = 1000
	if len(msg) <= maxLen {
		return msg
	}
	return msg[:maxLen]
}
