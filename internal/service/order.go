package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SergeyBogomolovv/orders-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-service/pkg/trm"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type OrderRepo interface {
	// CreateWithItems is atomic: either the order and all items are stored or nothing is.
	CreateWithItems(ctx context.Context, order entities.Order) (entities.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (entities.Order, error)
	FindPage(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.Status) (entities.Order, error)
}

type ProductValidator interface {
	Validate(ctx context.Context, ids []int64) ([]entities.Product, error)
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	products  ProductValidator
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, repo OrderRepo, products ProductValidator) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		products:  products,
	}
}

// CreateOrder prices items with data from the product service and stores the
// order. Nothing is stored if any step fails.
func (s *orderService) CreateOrder(ctx context.Context, items []entities.NewOrderItem) (entities.Order, error) {
	order, err := s.createOrder(ctx, items)
	if err != nil {
		orderCreateFailures.WithLabelValues(failureKind(err)).Inc()
		return entities.Order{}, err
	}

	ordersCreated.Inc()
	s.logger.DebugContext(ctx, "order created",
		slog.String("order_id", order.ID.String()),
		slog.String("total_amount", order.TotalAmount.StringFixed(2)),
		slog.Int("total_items", order.TotalItems),
	)
	return order, nil
}

func (s *orderService) createOrder(ctx context.Context, items []entities.NewOrderItem) (entities.Order, error) {
	if err := checkItems(items); err != nil {
		return entities.Order{}, err
	}

	ids := lo.Uniq(lo.Map(items, func(it entities.NewOrderItem, _ int) int64 {
		return it.ProductID
	}))

	products, err := s.products.Validate(ctx, ids)
	if err != nil {
		return entities.Order{}, validationError(err)
	}

	catalog, err := newCatalog(ids, products)
	if err != nil {
		return entities.Order{}, err
	}

	order := catalog.price(items)
	order.ID = uuid.New()
	order.Status = entities.DefaultStatus

	created, err := s.repo.CreateWithItems(ctx, order)
	if err != nil {
		return entities.Order{}, entities.NewError(entities.ErrPersistence, "failed to save order", err)
	}

	catalog.name(created.Items)
	return created, nil
}

// ListOrders returns one page of orders. Page and limit must be positive.
func (s *orderService) ListOrders(ctx context.Context, filter entities.OrderFilter) (entities.OrderPage, error) {
	if filter.Limit <= 0 {
		return entities.OrderPage{}, entities.NewError(entities.ErrInvalidPagination, "limit must be positive", nil)
	}
	if filter.Page <= 0 {
		return entities.OrderPage{}, entities.NewError(entities.ErrInvalidPagination, "page must be positive", nil)
	}

	orders, total, err := s.repo.FindPage(ctx, filter)
	if err != nil {
		return entities.OrderPage{}, entities.NewError(entities.ErrPersistence, "failed to list orders", err)
	}

	return entities.OrderPage{
		Data: orders,
		Meta: entities.PageMeta{
			TotalCount:  total,
			CurrentPage: filter.Page,
			LastPage:    entities.LastPage(total, filter.Limit),
		},
	}, nil
}

// GetOrder always reads from storage. Orders change status, and storage is
// the only state shared between requests and replicas.
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (entities.Order, error) {
	return s.getOrder(ctx, id)
}

// ChangeStatus sets a new status. Setting the current status again is a no-op.
// Any status may follow any other.
func (s *orderService) ChangeStatus(ctx context.Context, id uuid.UUID, status entities.Status) (entities.Order, error) {
	var (
		result  entities.Order
		changed bool
	)

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := s.getOrder(ctx, id)
		if err != nil {
			return err
		}

		if order.Status == status {
			result = order
			return nil
		}

		updated, err := s.repo.UpdateStatus(ctx, id, status)
		if errors.Is(err, entities.ErrOrderNotFound) {
			return notFound(id)
		}
		if err != nil {
			return entities.NewError(entities.ErrPersistence, "failed to update order status", err)
		}

		result, changed = updated, true
		return nil
	})
	if err != nil {
		var e *entities.Error
		if !errors.As(err, &e) {
			err = entities.NewError(entities.ErrPersistence, "failed to update order status", err)
		}
		return entities.Order{}, err
	}

	if changed {
		statusChanges.WithLabelValues(status.String()).Inc()
		s.logger.DebugContext(ctx, "order status changed", slog.String("order_id", id.String()), slog.String("status", status.String()))
	}

	return result, nil
}

// getOrder is the only place that decides whether an order exists.
func (s *orderService) getOrder(ctx context.Context, id uuid.UUID) (entities.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, entities.ErrOrderNotFound) {
		return entities.Order{}, notFound(id)
	}
	if err != nil {
		return entities.Order{}, entities.NewError(entities.ErrPersistence, "failed to get order", err)
	}
	return order, nil
}

func checkItems(items []entities.NewOrderItem) error {
	if len(items) == 0 {
		return entities.NewError(entities.ErrInvalidOrder, "order must contain at least one item", nil)
	}
	for i, it := range items {
		if it.Quantity < 1 {
			return entities.NewError(entities.ErrInvalidOrder, fmt.Sprintf("item %d: quantity must be positive", i), nil)
		}
	}
	return nil
}

func notFound(id uuid.UUID) error {
	return entities.NewError(entities.ErrOrderNotFound, fmt.Sprintf("Order with id %s not found", id), nil)
}

func validationError(err error) error {
	if errors.Is(err, entities.ErrProductNotFound) {
		return entities.NewError(entities.ErrProductNotFound, err.Error(), nil)
	}
	return entities.NewError(entities.ErrValidationUnavailable, "product service unavailable", err)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, entities.ErrValidationUnavailable):
		return "validation_unavailable"
	case errors.Is(err, entities.ErrProductValidationFailed):
		return "product_validation_failed"
	case errors.Is(err, entities.ErrInvalidOrder):
		return "invalid_order"
	default:
		return "persistence"
	}
}
