package cart

import "github.com/shopspring/decimal"

type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Catalog is a fixed, ordered product list.
type Catalog struct {
	products []Product
	byID     map[string]Product
}

func NewCatalog(products ...Product) Catalog {
	c := Catalog{
		products: append([]Product(nil), products...),
		byID:     make(map[string]Product, len(products)),
	}
	for _, p := range products {
		c.byID[p.ID] = p
	}
	return c
}

// DefaultCatalog is the storefront's menu.
func DefaultCatalog() Catalog {
	return NewCatalog(
		Product{ID: "p1", Name: "Classic Coffee (12oz)", Price: decimal.NewFromInt(120)},
		Product{ID: "p2", Name: "Hazelnut Latte", Price: decimal.NewFromInt(150)},
		Product{ID: "p3", Name: "Blueberry Muffin", Price: decimal.NewFromInt(80)},
		Product{ID: "p4", Name: "Cold Brew (16oz)", Price: decimal.NewFromInt(140)},
	)
}

func (c Catalog) Lookup(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}
