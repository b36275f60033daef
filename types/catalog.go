package types

import "time"

// Vendor owns priced products and receives their payouts.
type Vendor struct {
	ID string `json:"id"`

	// Name is the vendor's display name.
	Name string `json:"name" validate:"required"`

	// PayTo is the chain account payments for this vendor's products
	// are sent to. Must be a syntactically valid EVM address at
	// creation time.
	PayTo string `json:"payTo" validate:"required"`

	CreatedAt time.Time `json:"createdAt"`
}

// Product is one priced resource, addressed by (VendorID, Path).
type Product struct {
	ID       string `json:"id"`
	VendorID string `json:"vendorId" validate:"required"`

	// Path is the resource path segment, unique within the vendor.
	Path string `json:"path" validate:"required"`

	// Price is a currency-prefixed decimal string, e.g. "$0.01". It
	// must parse as a positive decimal.
	Price string `json:"price" validate:"required"`

	// Network the payment must settle on.
	Network string `json:"network" validate:"required"`

	Description string `json:"description"`

	// MimeType of the content served on successful payment.
	MimeType string `json:"mimeType"`

	// Content is the opaque payload released only on settlement.
	Content []byte `json:"-"`

	// Active products are served; inactive ones stay registered but
	// are withheld by the catalog's callers.
	Active bool `json:"active"`

	CreatedAt time.Time `json:"createdAt"`
}
