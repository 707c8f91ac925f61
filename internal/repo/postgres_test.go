package repo_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/SergeyBogomolovv/orders-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-service/internal/repo"
	"github.com/SergeyBogomolovv/orders-service/pkg/trm"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type orderRepository interface {
	CreateWithItems(ctx context.Context, o entities.Order) (entities.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (entities.Order, error)
	FindPage(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.Status) (entities.Order, error)
}

type postgresRepoSuite struct {
	suite.Suite

	container *postgres.PostgresContainer
	db        *sqlx.DB
	txManager trm.Manager
	repo      orderRepository
}

func TestPostgresRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(postgresRepoSuite))
}

func (suite *postgresRepoSuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)
	suite.container, connStr, err = startPostgres(ctx)
	suite.Require().NoError(err)

	suite.db, err = sqlx.Connect("pgx", connStr)
	suite.Require().NoError(err)

	suite.txManager = trm.NewManager(suite.db)
	suite.repo = repo.NewPostgresRepo(suite.db, suite.txManager)
}

func (suite *postgresRepoSuite) TearDownSuite() {
	if suite.db != nil {
		suite.NoError(suite.db.Close())
	}
	if suite.container != nil {
		suite.NoError(testcontainers.TerminateContainer(suite.container))
	}
}

func (suite *postgresRepoSuite) TestCreateWithItems() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		orderFunc func() entities.Order
		wantError error
	}{
		{
			name:      "valid order: ok",
			orderFunc: randomOrder,
		},
		{
			name: "same product twice: ok",
			orderFunc: func() entities.Order {
				o := randomOrder()
				o.Items = append(o.Items, o.Items[0])
				return recalc(o)
			},
		},
		{
			name: "no items: fail",
			orderFunc: func() entities.Order {
				o := randomOrder()
				o.Items = nil
				return o
			},
			wantError: repo.ErrNoItems,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			order := tt.orderFunc()

			created, err := suite.repo.CreateWithItems(ctx, order)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assertOrder(t, order, created)

			found, err := suite.repo.FindByID(ctx, order.ID)
			require.NoError(t, err)
			assertOrder(t, order, found)
		})
	}
}

func (suite *postgresRepoSuite) TestCreateWithItems_Atomic() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	order := randomOrder()
	// violates the quantity check after the order row is inserted
	order.Items = append(order.Items, entities.Item{ProductID: 1, Quantity: 0, Price: decimal.NewFromInt(1)})

	_, err := suite.repo.CreateWithItems(ctx, order)
	require.Error(t, err)

	_, err = suite.repo.FindByID(ctx, order.ID)
	require.ErrorIs(t, err, entities.ErrOrderNotFound)
	assert.Zero(t, suite.countRows("order_items"))
}

func (suite *postgresRepoSuite) TestCreateWithItems_CancelledBeforeCommit() {
	defer suite.deleteAll()

	t := suite.T()
	order := randomOrder()

	ctx, cancel := context.WithCancel(t.Context())
	err := suite.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := suite.repo.CreateWithItems(ctx, order); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = suite.repo.FindByID(t.Context(), order.ID)
	require.ErrorIs(t, err, entities.ErrOrderNotFound)
}

func (suite *postgresRepoSuite) TestFindByID_NotFound() {
	_, err := suite.repo.FindByID(suite.T().Context(), uuid.MustParse(gofakeit.UUID()))
	suite.ErrorIs(err, entities.ErrOrderNotFound)
}

func (suite *postgresRepoSuite) TestFindPage() {
	defer suite.deleteAll()

	pending := suite.insertOrders(15, entities.StatusPending)
	suite.insertOrders(4, entities.StatusDelivered)

	status := entities.StatusPending

	tests := []struct {
		name      string
		filter    entities.OrderFilter
		wantLen   int
		wantTotal int
		wantFirst *uuid.UUID
	}{
		{
			name:      "first page of pending",
			filter:    entities.OrderFilter{Status: &status, Page: 1, Limit: 10},
			wantLen:   10,
			wantTotal: 15,
			wantFirst: &pending[0],
		},
		{
			name:      "second page of pending",
			filter:    entities.OrderFilter{Status: &status, Page: 2, Limit: 10},
			wantLen:   5,
			wantTotal: 15,
			wantFirst: &pending[10],
		},
		{
			name:      "page beyond the last",
			filter:    entities.OrderFilter{Status: &status, Page: 3, Limit: 10},
			wantLen:   0,
			wantTotal: 15,
		},
		{
			name:      "offset past the int range",
			filter:    entities.OrderFilter{Status: &status, Page: math.MaxInt / 5, Limit: 10},
			wantLen:   0,
			wantTotal: 15,
		},
		{
			name:      "largest limit",
			filter:    entities.OrderFilter{Status: &status, Page: 1, Limit: math.MaxInt},
			wantLen:   15,
			wantTotal: 15,
			wantFirst: &pending[0],
		},
		{
			name:      "second page of the largest limit",
			filter:    entities.OrderFilter{Status: &status, Page: 2, Limit: math.MaxInt},
			wantLen:   0,
			wantTotal: 15,
		},
		{
			name:      "no status filter",
			filter:    entities.OrderFilter{Page: 1, Limit: 100},
			wantLen:   19,
			wantTotal: 19,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			orders, total, err := suite.repo.FindPage(t.Context(), tt.filter)
			require.NoError(t, err)

			assert.Len(t, orders, tt.wantLen)
			assert.Equal(t, tt.wantTotal, total)
			if tt.wantFirst != nil {
				assert.Equal(t, *tt.wantFirst, orders[0].ID)
			}
			for _, o := range orders {
				if tt.filter.Status != nil {
					assert.Equal(t, *tt.filter.Status, o.Status)
				}
				assert.Empty(t, o.Items)
			}
		})
	}
}

func (suite *postgresRepoSuite) TestUpdateStatus() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	order := randomOrder()
	created, err := suite.repo.CreateWithItems(ctx, order)
	require.NoError(t, err)

	updated, err := suite.repo.UpdateStatus(ctx, order.ID, entities.StatusDelivered)
	require.NoError(t, err)

	assert.Equal(t, entities.StatusDelivered, updated.Status)
	assert.True(t, created.TotalAmount.Equal(updated.TotalAmount))
	assert.Equal(t, created.TotalItems, updated.TotalItems)
	assert.Len(t, updated.Items, len(created.Items))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = suite.repo.UpdateStatus(ctx, uuid.MustParse(gofakeit.UUID()), entities.StatusCancelled)
	assert.ErrorIs(t, err, entities.ErrOrderNotFound)
}

func (suite *postgresRepoSuite) TestUpdateStatus_InTx() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	order := randomOrder()
	_, err := suite.repo.CreateWithItems(ctx, order)
	require.NoError(t, err)

	errAbort := errors.New("abort")
	err = suite.txManager.Do(ctx, func(ctx context.Context) error {
		locked, err := suite.repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, entities.StatusPending, locked.Status)

		// nested Do joins the outer transaction
		err = suite.txManager.Do(ctx, func(ctx context.Context) error {
			_, err := suite.repo.UpdateStatus(ctx, order.ID, entities.StatusCancelled)
			return err
		})
		require.NoError(t, err)
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	found, err := suite.repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPending, found.Status, "rolled back with the outer transaction")

	err = suite.txManager.Do(ctx, func(ctx context.Context) error {
		_, err := suite.repo.UpdateStatus(ctx, order.ID, entities.StatusDelivered)
		return err
	})
	require.NoError(t, err)

	found, err = suite.repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusDelivered, found.Status)
}

func (suite *postgresRepoSuite) insertOrders(n int, status entities.Status) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)

	for range n {
		o := randomOrder()
		o.Status = status
		_, err := suite.repo.CreateWithItems(suite.T().Context(), o)
		suite.Require().NoError(err)
		ids = append(ids, o.ID)
		// created_at must differ for a stable order
		time.Sleep(2 * time.Millisecond)
	}

	return ids
}

func (suite *postgresRepoSuite) countRows(table string) int {
	var n int
	suite.Require().NoError(suite.db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func (suite *postgresRepoSuite) deleteAll() {
	_, err := suite.db.Exec("TRUNCATE TABLE orders, order_items CASCADE")
	suite.NoError(err)
}

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("orders"),
		postgres.WithUsername("orders"),
		postgres.WithPassword("orders"),
		postgres.WithInitScripts(filepath.Join("..", "..", "migrations", "0001_init.sql")),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", err
	}

	return container, connStr, nil
}

func randomOrder() entities.Order {
	var items []entities.Item
	for range gofakeit.Number(1, 5) {
		items = append(items, entities.Item{
			ProductID: int64(gofakeit.Number(1, 10_000)),
			Quantity:  gofakeit.Number(1, 10),
			Price:     decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2),
		})
	}

	return recalc(entities.Order{
		ID:     uuid.New(),
		Status: entities.StatusPending,
		Items:  items,
	})
}

func recalc(o entities.Order) entities.Order {
	o.TotalAmount = decimal.Zero
	o.TotalItems = 0
	for _, it := range o.Items {
		o.TotalAmount = o.TotalAmount.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		o.TotalItems += it.Quantity
	}
	return o
}

func assertOrder(t *testing.T, expected, actual entities.Order) {
	t.Helper()

	sortItems := func(items []entities.Item) []entities.Item {
		out := append([]entities.Item(nil), items...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ProductID < out[j].ProductID
		})
		return out
	}
	expected.Items = sortItems(expected.Items)
	actual.Items = sortItems(actual.Items)

	opts := cmp.Options{
		cmpopts.IgnoreFields(entities.Order{}, "CreatedAt", "UpdatedAt"),
		cmp.Comparer(func(x, y decimal.Decimal) bool {
			return x.Equal(y)
		}),
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
}
