package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/poliscan-core/internal/core/domain"
	"github.com/custodia-labs/poliscan-core/internal/core/ports/driven"
	"github.com/custodia-labs/poliscan-core/internal/core/ports/driving"
)

// Ensure policyService implements PolicyService
var _ driving.PolicyService = (*policyService)(nil)

// policyService implements the PolicyService interface
type policyService struct {
	policyStore driven.PolicyStore
}

// NewPolicyService creates a new PolicyService
func NewPolicyService(policyStore driven.PolicyStore) driving.PolicyService {
	return &policyService{
		policyStore: policyStore,
	}
}

// Create assigns a new ID, runs the (placeholder) extraction and stores the
// analysis. The document is kept iff req.Retain is set.
func (s *policyService) Create(ctx context.Context, req driving.CreatePolicyRequest) (*domain.StoredPolicy, error) {
	analysis := domain.PolicyAnalysis{
		ID:              uuid.NewString(),
		TenantID:        req.TenantID,
		ExtractedFields: extractFields(req.Content),
		CreatedAt:       time.Now().UTC(),
	}

	policy := &domain.StoredPolicy{
		Analysis:         analysis,
		OriginalFilename: req.Filename,
	}
	if req.Retain {
		policy.RawContent = req.Content
	}

	if err := s.policyStore.Save(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// Get retrieves a policy analysis by ID
func (s *policyService) Get(ctx context.Context, id string) (*domain.StoredPolicy, error) {
	return s.policyStore.Get(ctx, id)
}

// Update replaces the extracted fields wholesale. A nil slice is stored as
// an empty list; emptying the fields is a valid update.
func (s *policyService) Update(ctx context.Context, id string, fields []domain.PolicyField) (time.Time, error) {
	if fields == nil {
		fields = []domain.PolicyField{}
	}
	updatedAt := time.Now().UTC()
	if err := s.policyStore.ReplaceFields(ctx, id, fields, updatedAt); err != nil {
		return time.Time{}, err
	}
	return updatedAt, nil
}

// List retrieves all policy analyses, optionally filtered by tenant
func (s *policyService) List(ctx context.Context, tenantID string) ([]*domain.StoredPolicy, error) {
	return s.policyStore.List(ctx, tenantID)
}

// Delete removes a policy analysis permanently
func (s *policyService) Delete(ctx context.Context, id string) error {
	return s.policyStore.Delete(ctx, id)
}

// GetFile returns the retained document for an analysis
func (s *policyService) GetFile(ctx context.Context, id string) ([]byte, *string, error) {
	policy, err := s.policyStore.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !policy.HasFile() {
		return nil, nil, domain.ErrNotFound
	}
	return policy.RawContent, policy.OriginalFilename, nil
}

// extractFields stands in for the extraction pipeline. It returns a fixed
// placeholder field regardless of content until a real extractor is wired in.
func extractFields(_ []byte) []domain.PolicyField {
	value := "This is a placeholder"
	confidence := 0.95
	citation := "Sample citation"
	return []domain.PolicyField{
		{
			Name:         "example_field",
			Value:        &value,
			Confidence:   &confidence,
			SourcePages:  []int{1},
			CitationText: &citation,
		},
	}
}
