package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/pkg/database"
	apperrors "github.com/nm-digitalhub/sumit-gateway/pkg/errors"
)

const tokenColumns = `id, owner_id, token, last_four_digits, expiry_month, expiry_year, brand,
	cardholder_name, is_default, is_active, metadata, last_used_at, created_at, updated_at`

// TokenRepository implements repository.TokenStore using PostgreSQL.
type TokenRepository struct {
	db database.DBTX
}

// NewTokenRepository creates a PostgreSQL-backed token store.
func NewTokenRepository(db database.DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

// Store inserts a new token record.
func (r *TokenRepository) Store(ctx context.Context, t *domain.TokenRecord) error {
	metadataJSON, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO payment_tokens (id, owner_id, token, last_four_digits, expiry_month, expiry_year, brand,
			cardholder_name, is_default, is_active, metadata, last_used_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.db.Exec(ctx, query,
		t.ID,
		t.OwnerID,
		t.Token,
		t.LastFourDigits,
		t.ExpiryMonth,
		t.ExpiryYear,
		t.Brand,
		t.CardholderName,
		t.IsDefault,
		t.IsActive,
		metadataJSON,
		t.LastUsedAt,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}

	return nil
}

// Get retrieves an active token by id, scoped to its owner.
func (r *TokenRepository) Get(ctx context.Context, id, ownerID string) (*domain.TokenRecord, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM payment_tokens
		WHERE id = $1 AND owner_id = $2 AND is_active = TRUE`

	row := r.db.QueryRow(ctx, query, id, ownerID)

	t, err := scanToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("token", id)
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	return t, nil
}

// ListByOwner returns all active tokens for an owner, default first.
func (r *TokenRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.TokenRecord, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM payment_tokens
		WHERE owner_id = $1 AND is_active = TRUE
		ORDER BY is_default DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.TokenRecord
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}

	return tokens, nil
}

// Delete soft-deletes a token by marking it inactive. It returns false when
// no active token matched.
func (r *TokenRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	query := `
		UPDATE payment_tokens
		SET is_active = FALSE, is_default = FALSE, updated_at = $1
		WHERE id = $2 AND owner_id = $3 AND is_active = TRUE`

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete token: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// SetDefault marks the given token as the owner's default, clearing the flag
// from any other token in the same transaction.
func (r *TokenRepository) SetDefault(ctx context.Context, id, ownerID string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin set default: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE payment_tokens
		SET is_default = FALSE, updated_at = $1
		WHERE owner_id = $2 AND is_default = TRUE`, time.Now().UTC(), ownerID); err != nil {
		return false, fmt.Errorf("clear default token: %w", err)
	}

	ct, err := tx.Exec(ctx, `
		UPDATE payment_tokens
		SET is_default = TRUE, updated_at = $1
		WHERE id = $2 AND owner_id = $3 AND is_active = TRUE`, time.Now().UTC(), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("set default token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit set default: %w", err)
	}

	return true, nil
}

// TouchLastUsed records that the token was just charged.
func (r *TokenRepository) TouchLastUsed(ctx context.Context, id string) error {
	query := `
		UPDATE payment_tokens
		SET last_used_at = $1, updated_at = $1
		WHERE id = $2`

	if _, err := r.db.Exec(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("touch token last used: %w", err)
	}

	return nil
}

func scanToken(row pgx.Row) (*domain.TokenRecord, error) {
	var t domain.TokenRecord
	var metadataJSON []byte

	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Token,
		&t.LastFourDigits,
		&t.ExpiryMonth,
		&t.ExpiryYear,
		&t.Brand,
		&t.CardholderName,
		&t.IsDefault,
		&t.IsActive,
		&metadataJSON,
		&t.LastUsedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &t, nil
}
