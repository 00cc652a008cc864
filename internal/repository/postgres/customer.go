package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/pkg/database"
	apperrors "github.com/nm-digitalhub/sumit-gateway/pkg/errors"
)

const customerColumns = `id, sumit_customer_id, name, email, phone, address, city, country, zip_code, created_at, updated_at`

// CustomerRepository implements repository.CustomerStore using PostgreSQL.
type CustomerRepository struct {
	db database.DBTX
}

// NewCustomerRepository creates a PostgreSQL-backed customer store.
func NewCustomerRepository(db database.DBTX) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Upsert inserts the customer or updates the existing row keyed by the
// gateway customer id.
func (r *CustomerRepository) Upsert(ctx context.Context, c *domain.Customer) error {
	now := time.Now().UTC()

	query := `
		INSERT INTO customers (id, sumit_customer_id, name, email, phone, address, city, country, zip_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (sumit_customer_id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    phone = EXCLUDED.phone,
		    address = EXCLUDED.address,
		    city = EXCLUDED.city,
		    country = EXCLUDED.country,
		    zip_code = EXCLUDED.zip_code,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.SumitCustomerID,
		c.Name,
		c.Email,
		c.Phone,
		c.Address,
		c.City,
		c.Country,
		c.ZipCode,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}

	return nil
}

// GetBySumitID retrieves a customer by the gateway customer id.
func (r *CustomerRepository) GetBySumitID(ctx context.Context, sumitCustomerID string) (*domain.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE sumit_customer_id = $1`

	var c domain.Customer
	err := r.db.QueryRow(ctx, query, sumitCustomerID).Scan(
		&c.ID,
		&c.SumitCustomerID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.City,
		&c.Country,
		&c.ZipCode,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer", sumitCustomerID)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return &c, nil
}

// List returns customers ordered by name with the total count.
func (r *CustomerRepository) List(ctx context.Context, offset, limit int) ([]domain.Customer, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := `
		SELECT ` + customerColumns + `
		FROM customers
		ORDER BY name
		OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(
			&c.ID,
			&c.SumitCustomerID,
			&c.Name,
			&c.Email,
			&c.Phone,
			&c.Address,
			&c.City,
			&c.Country,
			&c.ZipCode,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customers: %w", err)
	}

	return customers, total, nil
}
