// Package catalog describes the read-only menu directory.
package catalog

import "context"

// MenuItem is a dish offered on the menu. Prices are in minor currency units.
type MenuItem struct {
	ID          string
	Name        string
	UnitPrice   int64
	Available   int
	Description string
	ImageURL    string
}

// InStock reports whether at least qty portions can be served.
func (m MenuItem) InStock(qty int) bool {
	return m.Available > 0 && m.Available >= qty
}

// Repository defines read operations for the menu. The menu itself is
// managed by an external catalog service.
type Repository interface {
	List(ctx context.Context) ([]MenuItem, error)
	GetByIDs(ctx context.Context, ids []string) ([]MenuItem, error)
}
