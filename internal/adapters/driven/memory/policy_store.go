package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/poliscan-core/internal/core/domain"
	"github.com/custodia-labs/poliscan-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PolicyStore = (*PolicyStore)(nil)

// PolicyStore implements driven.PolicyStore with an in-process map. Records
// live for the lifetime of the process; there is no persistence. net/http
// serves requests on separate goroutines, so every check-then-act sequence
// runs under one mutex.
type PolicyStore struct {
	mu       sync.RWMutex
	policies map[string]*domain.StoredPolicy
	order    []string // insertion order, kept stable for List
}

// NewPolicyStore creates an empty in-memory PolicyStore
func NewPolicyStore() *PolicyStore {
	return &PolicyStore{
		policies: make(map[string]*domain.StoredPolicy),
	}
}

// Save stores a policy keyed by its analysis ID
func (s *PolicyStore) Save(_ context.Context, policy *domain.StoredPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := policy.Analysis.ID
	if _, exists := s.policies[id]; !exists {
		s.order = append(s.order, id)
	}
	cp := *policy
	s.policies[id] = &cp
	return nil
}

// Get retrieves a policy by analysis ID
func (s *PolicyStore) Get(_ context.Context, id string) (*domain.StoredPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *policy
	return &cp, nil
}

// List retrieves policies in insertion order, optionally filtered by tenant
func (s *PolicyStore) List(_ context.Context, tenantID string) ([]*domain.StoredPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.StoredPolicy, 0, len(s.order))
	for _, id := range s.order {
		policy := s.policies[id]
		if !matchesTenant(policy, tenantID) {
			continue
		}
		cp := *policy
		result = append(result, &cp)
	}
	return result, nil
}

// ReplaceFields swaps the extracted fields wholesale and records updatedAt
func (s *PolicyStore) ReplaceFields(_ context.Context, id string, fields []domain.PolicyField, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	policy, ok := s.policies[id]
	if !ok {
		return domain.ErrNotFound
	}
	policy.Analysis.ExtractedFields = fields
	policy.Analysis.UpdatedAt = &updatedAt
	return nil
}

// Delete removes a policy permanently
func (s *PolicyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.policies, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Reset clears the store. Tests use it for isolation between cases.
func (s *PolicyStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = make(map[string]*domain.StoredPolicy)
	s.order = nil
}

func matchesTenant(policy *domain.StoredPolicy, tenantID string) bool {
	if tenantID == "" {
		return true
	}
	return policy.Analysis.TenantID != nil && *policy.Analysis.TenantID == tenantID
}
