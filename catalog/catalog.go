// Package catalog stores vendors and their priced products. The
// gateway only reads from it at request time; writes happen through
// the admin registration endpoints.
package catalog

import (
	"context"
	"errors"

	"github.com/paygate/x402-gateway/types"
)

// Sentinel errors shared by every store implementation.
var (
	ErrVendorNotFound  = errors.New("vendor not found")
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicatePath   = errors.New("product path already registered for vendor")
	ErrDuplicateVendor = errors.New("vendor already registered")
)

// Store is the catalog port the gateway depends on. Implementations
// must be safe for concurrent use; the gateway's read path runs once
// per request with no cross-request coordination.
type Store interface {
	// FindVendor resolves a vendor by id. Returns ErrVendorNotFound
	// when absent.
	FindVendor(ctx context.Context, id string) (*types.Vendor, error)

	// FindProduct resolves a product by (vendorID, path). Returns
	// ErrProductNotFound when absent.
	FindProduct(ctx context.Context, vendorID, path string) (*types.Product, error)

	// CreateVendor registers a vendor. Returns ErrDuplicateVendor when
	// the id is already taken.
	CreateVendor(ctx context.Context, v *types.Vendor) error

	// CreateProduct registers a product. Returns ErrDuplicatePath when
	// (vendorID, path) is already taken and ErrVendorNotFound when the
	// owning vendor does not exist.
	CreateProduct(ctx context.Context, p *types.Product) error

	// ListProducts returns every product owned by a vendor.
	ListProducts(ctx context.Context, vendorID string) ([]*types.Product, error)
}
