package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/poliscan-core/internal/core/domain"
)

// CreatePolicyRequest represents a request to analyze and store a policy document
type CreatePolicyRequest struct {
	// Content is the decoded document payload. Its validity is not checked;
	// the extraction pipeline is responsible for interpreting it.
	Content []byte

	// Filename is the original filename, informational only
	Filename *string

	// TenantID is an opaque tenant key used for list filtering
	TenantID *string

	// Retain controls whether Content is kept alongside the analysis
	Retain bool
}

// PolicyService manages policy analyses
type PolicyService interface {
	// Create analyzes a document and stores the resulting policy analysis.
	// It always succeeds for well-formed input: a new ID is assigned and the
	// document is retained iff requested.
	Create(ctx context.Context, req CreatePolicyRequest) (*domain.StoredPolicy, error)

	// Get retrieves a policy analysis by ID
	Get(ctx context.Context, id string) (*domain.StoredPolicy, error)

	// Update replaces the extracted fields of an existing analysis wholesale
	// and returns the new update timestamp
	Update(ctx context.Context, id string, fields []domain.PolicyField) (time.Time, error)

	// List retrieves all policy analyses, optionally filtered by tenant
	List(ctx context.Context, tenantID string) ([]*domain.StoredPolicy, error)

	// Delete removes a policy analysis permanently
	Delete(ctx context.Context, id string) error

	// GetFile returns the retained document and its filename. It fails with
	// ErrNotFound when the analysis does not exist or retained no document.
	GetFile(ctx context.Context, id string) ([]byte, *string, error)
}
