package service

import (
	"fmt"

	"github.com/SergeyBogomolovv/orders-service/internal/entities"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// catalog is the product service answer indexed by product id.
type catalog map[int64]entities.Product

// validPrice accepts non-negative amounts in whole cents. Prices are never
// rounded here, a sub-cent price is the product service's error to fix.
func validPrice(price decimal.Decimal) bool {
	return !price.IsNegative() && price.Equal(price.Truncate(2))
}

// newCatalog fails unless every requested id has a product with a valid price.
func newCatalog(ids []int64, products []entities.Product) (catalog, error) {
	c := catalog(lo.KeyBy(products, func(p entities.Product) int64 {
		return p.ID
	}))

	var missing []int64
	for _, id := range ids {
		p, ok := c[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if !validPrice(p.Price) {
			return nil, entities.NewError(entities.ErrProductValidationFailed,
				fmt.Sprintf("product %d has invalid price %s", id, p.Price), nil)
		}
	}
	if len(missing) > 0 {
		return nil, entities.NewError(entities.ErrProductNotFound,
			fmt.Sprintf("products not found: %v", missing), nil)
	}

	return c, nil
}

// price builds an order from client items using catalog prices only. Every
// product id in items must be present in the catalog.
func (c catalog) price(items []entities.NewOrderItem) entities.Order {
	order := entities.Order{
		TotalAmount: decimal.Zero,
		Items:       make([]entities.Item, 0, len(items)),
	}

	for _, it := range items {
		price := c[it.ProductID].Price

		order.Items = append(order.Items, entities.Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     price,
		})
		order.TotalAmount = order.TotalAmount.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		order.TotalItems += it.Quantity
	}

	return order
}

// name fills item names, they are not stored with the order.
func (c catalog) name(items []entities.Item) {
	for i := range items {
		items[i].Name = c[items[i].ProductID].Name
	}
}
