package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/SergeyBogomolovv/orders-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-service/pkg/trm"
	"github.com/google/uuid"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var ErrNoItems = errors.New("no items in order")

type postgresRepo struct {
	db        *sqlx.DB
	txManager trm.Manager
	qb        sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB, txManager trm.Manager) *postgresRepo {
	return &postgresRepo{
		db:        db,
		txManager: txManager,
		qb:        sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreateWithItems stores the order and all of its items in one transaction.
// It joins the transaction already present in ctx, if any.
func (r *postgresRepo) CreateWithItems(ctx context.Context, o entities.Order) (entities.Order, error) {
	if len(o.Items) == 0 {
		return entities.Order{}, ErrNoItems
	}

	var created entities.Order
	err := r.txManager.Do(ctx, func(ctx context.Context) error {
		query, args := r.qb.Insert("orders").
			Columns("id", "total_amount", "total_items", "status").
			Values(o.ID, o.TotalAmount, o.TotalItems, string(o.Status)).
			Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
			MustSql()

		var order Order
		if err := r.getContext(ctx, &order, query, args...); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		q := r.qb.Insert("order_items").Columns(itemColumns...)
		for _, it := range o.Items {
			q = q.Values(order.ID, it.ProductID, it.Quantity, it.Price)
		}
		query, args = q.Suffix("RETURNING " + strings.Join(itemColumns, ", ")).MustSql()

		var items []Item
		if err := r.selectContext(ctx, &items, query, args...); err != nil {
			return fmt.Errorf("failed to save items: %w", err)
		}

		created = OrderToEntity(order, items)
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	return created, nil
}

// FindByID locks the order row when called inside a transaction, so a status
// change cannot race another one on the same order.
func (r *postgresRepo) FindByID(ctx context.Context, id uuid.UUID) (entities.Order, error) {
	q := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id})
	if trm.InTx(ctx) {
		q = q.Suffix("FOR UPDATE")
	}
	query, args := q.MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.orderItems(ctx, id)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items), nil
}

// FindPage returns one page of orders, oldest first, and the number of orders
// matching the filter. Items are not loaded. Pages past the end are empty and
// skip the select.
func (r *postgresRepo) FindPage(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, int, error) {
	where := sq.And{}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": string(*filter.Status)})
	}

	query, args := r.qb.Select("COUNT(*)").
		From("orders").
		Where(where).
		MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset, ok := filter.Offset()
	if !ok || offset >= total {
		return []entities.Order{}, total, nil
	}

	query, args = r.qb.Select(orderColumns...).
		From("orders").
		Where(where).
		OrderBy("created_at", "id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(offset)).
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select orders: %w", err)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderToEntity(order, nil))
	}

	return result, total, nil
}

// UpdateStatus changes status and updated_at only.
func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.Status) (entities.Order, error) {
	query, args := r.qb.Update("orders").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to update status: %w", err)
	}

	items, err := r.orderItems(ctx, id)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items), nil
}

func (r *postgresRepo) orderItems(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	query, args := r.qb.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		MustSql()

	var items []Item
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return items, nil
}

func (r *postgresRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	if tx := trm.ExtractTx(ctx); tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *postgresRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	if tx := trm.ExtractTx(ctx); tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
