package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID          uuid.UUID
	TotalAmount decimal.Decimal
	TotalItems  int
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []Item
}

// Item is a priced order line. Price is resolved by the product service at
// creation time and never changes afterwards.
type Item struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal

	// Name is filled from the product service response, it is not stored.
	Name string
}

// NewOrderItem is a client-submitted line, it never carries a price.
type NewOrderItem struct {
	ProductID int64
	Quantity  int
}
