package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/poliscan-core/internal/core/domain"
)

// PolicyStore handles policy analysis persistence. The default backend is
// in-memory; Redis and PostgreSQL backends are selected via configuration.
type PolicyStore interface {
	// Save stores a policy keyed by its analysis ID
	Save(ctx context.Context, policy *domain.StoredPolicy) error

	// Get retrieves a policy by analysis ID
	Get(ctx context.Context, id string) (*domain.StoredPolicy, error)

	// List retrieves all policies in store order. A non-empty tenantID
	// restricts the result to policies whose tenant matches it exactly;
	// policies without a tenant never match a non-empty filter.
	List(ctx context.Context, tenantID string) ([]*domain.StoredPolicy, error)

	// ReplaceFields replaces the policy's extracted fields wholesale and
	// records updatedAt. Everything else on the record is untouched.
	ReplaceFields(ctx context.Context, id string, fields []domain.PolicyField, updatedAt time.Time) error

	// Delete removes a policy permanently
	Delete(ctx context.Context, id string) error
}
