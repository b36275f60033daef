package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paygate/x402-gateway/types"
)

// PostgresStore is the durable catalog used when the gateway runs with
// a database. Schema is created on demand by Migrate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a catalog to an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the catalog tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS vendors (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			pay_to     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS products (
			id          TEXT PRIMARY KEY,
			vendor_id   TEXT NOT NULL REFERENCES vendors(id),
			path        TEXT NOT NULL,
			price       TEXT NOT NULL,
			network     TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			mime_type   TEXT NOT NULL DEFAULT 'application/json',
			content     BYTEA NOT NULL DEFAULT ''::bytea,
			active      BOOLEAN NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMPTZ NOT NULL,
			UNIQUE (vendor_id, path)
		);`)
	if err != nil {
		return fmt.Errorf("catalog migrate: %w", err)
	}
	return nil
}

// FindVendor resolves a vendor by id.
func (s *PostgresStore) FindVendor(ctx context.Context, id string) (*types.Vendor, error) {
	var v types.Vendor
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, pay_to, created_at FROM vendors WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.PayTo, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find vendor: %w", err)
	}
	return &v, nil
}

// FindProduct resolves a product by (vendorID, path).
func (s *PostgresStore) FindProduct(ctx context.Context, vendorID, path string) (*types.Product, error) {
	var p types.Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, vendor_id, path, price, network, description, mime_type, content, active, created_at
		 FROM products WHERE vendor_id = $1 AND path = $2`, vendorID, path).
		Scan(&p.ID, &p.VendorID, &p.Path, &p.Price, &p.Network, &p.Description,
			&p.MimeType, &p.Content, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

// CreateVendor registers a vendor, assigning an id when none is set.
func (s *PostgresStore) CreateVendor(ctx context.Context, v *types.Vendor) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vendors (id, name, pay_to, created_at) VALUES ($1, $2, $3, $4)`,
		v.ID, v.Name, v.PayTo, v.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateVendor
	}
	if err != nil {
		return fmt.Errorf("create vendor: %w", err)
	}
	return nil
}

// CreateProduct registers a product under an existing vendor.
func (s *PostgresStore) CreateProduct(ctx context.Context, p *types.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (id, vendor_id, path, price, network, description, mime_type, content, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.VendorID, p.Path, p.Price, p.Network, p.Description,
		p.MimeType, p.Content, p.Active, p.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicatePath
	}
	if isForeignKeyViolation(err) {
		return ErrVendorNotFound
	}
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// ListProducts returns a vendor's products ordered by path.
func (s *PostgresStore) ListProducts(ctx context.Context, vendorID string) ([]*types.Product, error) {
	if _, err := s.FindVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, vendor_id, path, price, network, description, mime_type, content, active, created_at
		 FROM products WHERE vendor_id = $1 ORDER BY path`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*types.Product
	for rows.Next() {
		var p types.Product
		if err := rows.Scan(&p.ID, &p.VendorID, &p.Path, &p.Price, &p.Network, &p.Description,
			&p.MimeType, &p.Content, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
