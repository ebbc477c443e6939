package domain

import "time"

// PolicyField is one attribute extracted from a policy document.
// Field names are not unique within an analysis; an extraction pass may
// report the same field more than once.
type PolicyField struct {
	Name         string   `json:"name"`
	Value        *string  `json:"value"`
	Confidence   *float64 `json:"confidence,omitempty"` // not clamped to [0,1]
	SourcePages  []int    `json:"source_pages"`
	CitationText *string  `json:"citation_text,omitempty"`
	ModelVersion *string  `json:"model_version,omitempty"`
}

// PolicyAnalysis is the stored result of analyzing one policy document.
// ID and CreatedAt are set once at creation and never change. UpdatedAt is
// nil until the first field update. Provider, PlanType and ExpiresAt are
// reserved for the extraction pipeline and stay nil for now.
type PolicyAnalysis struct {
	ID              string        `json:"id"`
	TenantID        *string       `json:"tenant_id"`
	Provider        *string       `json:"provider"`
	PlanType        *string       `json:"plan_type"`
	ExtractedFields []PolicyField `json:"extracted_fields"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       *time.Time    `json:"updated_at"`
	ExpiresAt       *time.Time    `json:"expires_at"`
}

// StoredPolicy wraps an analysis with the original document, when the
// caller asked to retain it. RawContent is decided exactly once at
// creation; no later operation adds or removes it.
type StoredPolicy struct {
	Analysis         PolicyAnalysis `json:"analysis"`
	RawContent       []byte         `json:"raw_content,omitempty"`
	OriginalFilename *string        `json:"original_filename,omitempty"`
}

// HasFile reports whether the original document was retained.
func (p *StoredPolicy) HasFile() bool {
	return p.RawContent != nil
}
