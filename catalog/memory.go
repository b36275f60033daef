package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paygate/x402-gateway/types"
)

// MemoryStore is an in-process catalog. It backs single-node
// deployments and every test that needs a catalog.
type MemoryStore struct {
	mu       sync.RWMutex
	vendors  map[string]*types.Vendor
	products map[string]map[string]*types.Product // vendorID -> path -> product
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vendors:  make(map[string]*types.Vendor),
		products: make(map[string]map[string]*types.Product),
	}
}

// FindVendor resolves a vendor by id.
func (s *MemoryStore) FindVendor(_ context.Context, id string) (*types.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vendors[id]
	if !ok {
		return nil, ErrVendorNotFound
	}
	cp := *v
	return &cp, nil
}

// FindProduct resolves a product by (vendorID, path).
func (s *MemoryStore) FindProduct(_ context.Context, vendorID, path string) (*types.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[vendorID][path]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// CreateVendor registers a vendor, assigning an id when none is set.
func (s *MemoryStore) CreateVendor(_ context.Context, v *types.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if _, ok := s.vendors[v.ID]; ok {
		return ErrDuplicateVendor
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	cp := *v
	s.vendors[v.ID] = &cp
	return nil
}

// CreateProduct registers a product under an existing vendor.
func (s *MemoryStore) CreateProduct(_ context.Context, p *types.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vendors[p.VendorID]; !ok {
		return ErrVendorNotFound
	}
	byPath := s.products[p.VendorID]
	if byPath == nil {
		byPath = make(map[string]*types.Product)
		s.products[p.VendorID] = byPath
	}
	if _, ok := byPath[p.Path]; ok {
		return ErrDuplicatePath
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	byPath[p.Path] = &cp
	return nil
}

// ListProducts returns a vendor's products ordered by path.
func (s *MemoryStore) ListProducts(_ context.Context, vendorID string) ([]*types.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.vendors[vendorID]; !ok {
		return nil, ErrVendorNotFound
	}
	out := make([]*types.Product, 0, len(s.products[vendorID]))
	for _, p := range s.products[vendorID] {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
