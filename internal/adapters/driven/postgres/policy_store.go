package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/poliscan-core/internal/core/domain"
	"github.com/custodia-labs/poliscan-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PolicyStore = (*PolicyStore)(nil)

// PolicyStore implements driven.PolicyStore using PostgreSQL
type PolicyStore struct {
	db *DB
}

// NewPolicyStore creates a new PolicyStore
func NewPolicyStore(db *DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// Save creates or updates a policy
func (s *PolicyStore) Save(ctx context.Context, policy *domain.StoredPolicy) error {
	fieldsJSON, err := json.Marshal(policy.Analysis.ExtractedFields)
	if err != nil {
		return fmt.Errorf("failed to marshal extracted fields: %w", err)
	}

	query := `
		INSERT INTO policy_analyses (id, tenant_id, provider, plan_type, extracted_fields, created_at, updated_at, expires_at, raw_content, original_filename)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			provider = EXCLUDED.provider,
			plan_type = EXCLUDED.plan_type,
			extracted_fields = EXCLUDED.extracted_fields,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at
	`

	a := policy.Analysis
	_, err = s.db.ExecContext(ctx, query,
		a.ID,
		NullString(a.TenantID),
		NullString(a.Provider),
		NullString(a.PlanType),
		fieldsJSON,
		a.CreatedAt,
		NullTime(a.UpdatedAt),
		NullTime(a.ExpiresAt),
		policy.RawContent,
		NullString(policy.OriginalFilename),
	)
	return err
}

// Get retrieves a policy by analysis ID
func (s *PolicyStore) Get(ctx context.Context, id string) (*domain.StoredPolicy, error) {
	query := `
		SELECT id, tenant_id, provider, plan_type, extracted_fields, created_at, updated_at, expires_at, raw_content, original_filename
		FROM policy_analyses
		WHERE id = $1
	`

	return scanPolicy(s.db.QueryRowContext(ctx, query, id))
}

// List retrieves policies in insertion order, optionally filtered by tenant.
// Policies without a tenant never match a non-empty filter.
func (s *PolicyStore) List(ctx context.Context, tenantID string) ([]*domain.StoredPolicy, error) {
	query := `
		SELECT id, tenant_id, provider, plan_type, extracted_fields, created_at, updated_at, expires_at, raw_content, original_filename
		FROM policy_analyses
		WHERE $1 = '' OR tenant_id = $1
		ORDER BY seq
	`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := make([]*domain.StoredPolicy, 0)
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	return policies, rows.Err()
}

// ReplaceFields swaps the extracted fields wholesale and records updatedAt
func (s *PolicyStore) ReplaceFields(ctx context.Context, id string, fields []domain.PolicyField, updatedAt time.Time) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal extracted fields: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE policy_analyses SET extracted_fields = $2, updated_at = $3 WHERE id = $1`,
		id, fieldsJSON, updatedAt,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a policy permanently
func (s *PolicyStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM policy_analyses WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanPolicy
type scanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row scanner) (*domain.StoredPolicy, error) {
	var policy domain.StoredPolicy
	var fieldsJSON []byte
	var tenantID, provider, planType, filename sql.NullString
	var updatedAt, expiresAt sql.NullTime

	err := row.Scan(
		&policy.Analysis.ID,
		&tenantID,
		&provider,
		&planType,
		&fieldsJSON,
		&policy.Analysis.CreatedAt,
		&updatedAt,
		&expiresAt,
		&policy.RawContent,
		&filename,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	policy.Analysis.TenantID = StringPtr(tenantID)
	policy.Analysis.Provider = StringPtr(provider)
	policy.Analysis.PlanType = StringPtr(planType)
	policy.Analysis.UpdatedAt = TimePtr(updatedAt)
	policy.Analysis.ExpiresAt = TimePtr(expiresAt)
	policy.OriginalFilename = StringPtr(filename)

	if err := json.Unmarshal(fieldsJSON, &policy.Analysis.ExtractedFields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extracted fields: %w", err)
	}
	return &policy, nil
}
