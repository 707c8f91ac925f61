package entities

import "github.com/shopspring/decimal"

// Product is the authoritative record returned by the product service.
type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}
