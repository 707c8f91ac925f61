package handler

import (
	"time"

	"github.com/SergeyBogomolovv/orders-service/internal/entities"
)

// CreateOrderRequest is the body of a new order. Prices are never accepted
// from the client.
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

type CreateOrderItem struct {
	ProductID int64 `json:"productId" validate:"gt=0" example:"1"`
	Quantity  int   `json:"quantity" validate:"gte=1" example:"2"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING DELIVERED CANCELLED" example:"DELIVERED"`
}

// ChangeStatusCommand is the payload of a change.status.order message.
type ChangeStatusCommand struct {
	ID     string `json:"id" validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=PENDING DELIVERED CANCELLED"`
}

// ListOrdersQuery is the payload of a find.all.order message. Absent page and
// limit take the same defaults as the HTTP query.
type ListOrdersQuery struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=PENDING DELIVERED CANCELLED"`
	Page   *int   `json:"page,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// FindOrderQuery is the payload of a find.one.order message.
type FindOrderQuery struct {
	ID string `json:"id" validate:"required,uuid"`
}

// Order is an order as returned by the API. Money is a fixed two-decimal string.
type Order struct {
	ID          string    `json:"id" example:"0b6d5a5e-4a6e-4a55-9d2b-7d2c5b0c1f11"`
	TotalAmount string    `json:"totalAmount" example:"25.00"`
	TotalItems  int       `json:"totalItems" example:"3"`
	Status      string    `json:"status" example:"PENDING"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Items       []Item    `json:"items,omitempty"`
}

type Item struct {
	ProductID int64  `json:"productId" example:"1"`
	Quantity  int    `json:"quantity" example:"2"`
	Price     string `json:"price" example:"10.00"`
	Name      string `json:"name,omitempty" example:"keyboard"`
}

type OrderPage struct {
	Data     []Order  `json:"data"`
	Metadata PageMeta `json:"metadata"`
}

type PageMeta struct {
	TotalCount  int `json:"totalCount" example:"15"`
	CurrentPage int `json:"currentPage" example:"1"`
	LastPage    int `json:"lastPage" example:"2"`
}

func (r CreateOrderRequest) ToEntity() []entities.NewOrderItem {
	items := make([]entities.NewOrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, entities.NewOrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return items
}

func (q ListOrdersQuery) ToEntity() entities.OrderFilter {
	filter := entities.OrderFilter{Page: defaultPage, Limit: defaultLimit}
	if q.Status != "" {
		status := entities.Status(q.Status)
		filter.Status = &status
	}
	if q.Page != nil {
		filter.Page = *q.Page
	}
	if q.Limit != nil {
		filter.Limit = *q.Limit
	}
	return filter
}

func ItemEntityToJSON(i entities.Item) Item {
	return Item{
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		Price:     i.Price.StringFixed(2),
		Name:      i.Name,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	var items []Item
	if len(o.Items) > 0 {
		items = make([]Item, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, ItemEntityToJSON(it))
		}
	}

	return Order{
		ID:          o.ID.String(),
		TotalAmount: o.TotalAmount.StringFixed(2),
		TotalItems:  o.TotalItems,
		Status:      o.Status.String(),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Items:       items,
	}
}

func PageEntityToJSON(p entities.OrderPage) OrderPage {
	data := make([]Order, 0, len(p.Data))
	for _, o := range p.Data {
		data = append(data, OrderEntityToJSON(o))
	}

	return OrderPage{
		Data: data,
		Metadata: PageMeta{
			TotalCount:  p.Meta.TotalCount,
			CurrentPage: p.Meta.CurrentPage,
			LastPage:    p.Meta.LastPage,
		},
	}
}
