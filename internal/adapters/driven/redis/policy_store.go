package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/poliscan-core/internal/core/domain"
	"github.com/custodia-labs/poliscan-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PolicyStore = (*PolicyStore)(nil)

const (
	// Key prefixes for Redis
	policyPrefix = "policy:"

	// policyOrderKey holds analysis IDs in insertion order for List
	policyOrderKey = "policy:order"
)

// PolicyStore implements driven.PolicyStore using Redis.
// Records are stored as JSON blobs without TTL; an insertion-order list
// backs List so results stay stable across calls.
type PolicyStore struct {
	client *redis.Client
}

// NewPolicyStore creates a new Redis-backed PolicyStore
func NewPolicyStore(client *redis.Client) *PolicyStore {
	return &PolicyStore{client: client}
}

// Save stores a policy keyed by its analysis ID
func (s *PolicyStore) Save(ctx context.Context, policy *domain.StoredPolicy) error {
	data, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}

	id := policy.Analysis.ID

	// First save for this ID appends to the order list
	exists, err := s.client.Exists(ctx, policyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to check policy existence: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, policyPrefix+id, data, 0)
	if exists == 0 {
		pipe.RPush(ctx, policyOrderKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// Get retrieves a policy by analysis ID
func (s *PolicyStore) Get(ctx context.Context, id string) (*domain.StoredPolicy, error) {
	data, err := s.client.Get(ctx, policyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	var policy domain.StoredPolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy: %w", err)
	}
	return &policy, nil
}

// List retrieves policies in insertion order, optionally filtered by tenant
func (s *PolicyStore) List(ctx context.Context, tenantID string) ([]*domain.StoredPolicy, error) {
	ids, err := s.client.LRange(ctx, policyOrderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list policy IDs: %w", err)
	}

	result := make([]*domain.StoredPolicy, 0, len(ids))
	for _, id := range ids {
		policy, err := s.Get(ctx, id)
		if err == domain.ErrNotFound {
			// Order entry outlived the record; skip it
			continue
		}
		if err != nil {
			return nil, err
		}
		if !matchesTenant(policy, tenantID) {
			continue
		}
		result = append(result, policy)
	}
	return result, nil
}

// ReplaceFields swaps the extracted fields wholesale and records updatedAt
func (s *PolicyStore) ReplaceFields(ctx context.Context, id string, fields []domain.PolicyField, updatedAt time.Time) error {
	policy, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	policy.Analysis.ExtractedFields = fields
	policy.Analysis.UpdatedAt = &updatedAt

	data, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}
	if err := s.client.Set(ctx, policyPrefix+id, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update policy: %w", err)
	}
	return nil
}

// Delete removes a policy permanently
func (s *PolicyStore) Delete(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, policyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	if deleted == 0 {
		return domain.ErrNotFound
	}
	if err := s.client.LRem(ctx, policyOrderKey, 1, id).Err(); err != nil {
		return fmt.Errorf("failed to remove policy from order list: %w", err)
	}
	return nil
}

func matchesTenant(policy *domain.StoredPolicy, tenantID string) bool {
	if tenantID == "" {
		return true
	}
	return policy.Analysis.TenantID != nil && *policy.Analysis.TenantID == tenantID
}
