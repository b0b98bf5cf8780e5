package product

import (
	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
	pkgerrors "github.com/flojun/oceanstar-admin-page-sub000/pkg/errors"
)

// ValidateCatalog checks an admin-maintained product catalog before it is
// handed to the matching engine. A malformed catalog is a configuration
// error caught here at the boundary; the engine itself assumes a valid
// catalog and never re-validates.
func ValidateCatalog(products []models.ProductPrice) error {
	seen := make(map[string]bool, len(products))

	for i := range products {
		p := &products[i]
		if err := p.Validate(); err != nil {
			return pkgerrors.ValidationError(pkgerrors.CodeInvalidCatalog, p.Name, p.Keywords, err)
		}

		if seen[p.Name] {
			return pkgerrors.ValidationError(pkgerrors.CodeInvalidCatalog, p.Name, "duplicate product name", nil)
		}
		seen[p.Name] = true
	}

	return nil
}

// ActiveProducts returns the catalog filtered to active entries, in the
// original admin-defined order.
func ActiveProducts(products []models.ProductPrice) []models.ProductPrice {
	active := make([]models.ProductPrice, 0, len(products))
	for _, p := range products {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active
}
