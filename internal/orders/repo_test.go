package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rkfood/rkfood-backend/internal/cart"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	"github.com/rkfood/rkfood-backend/pkg/logger"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_number INTEGER NOT NULL UNIQUE DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT,
  payment_status INTEGER NOT NULL DEFAULT 0,
  delivery_status TEXT NOT NULL DEFAULT 'received',
  total NUMERIC NOT NULL,
  placed_at DATETIME NOT NULL,
  completed_at DATETIME,
  canceled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  menu_item_id TEXT NOT NULL,
  item_name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  menu_item_id TEXT,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	// Stands in for the Postgres order_number sequence: rows inserted
	// without an explicit number get a generated one.
	numbering := `
CREATE TRIGGER IF NOT EXISTS orders_assign_number
AFTER INSERT ON orders
WHEN NEW.order_number = 0
BEGIN
  UPDATE orders SET order_number = 1000 + NEW.rowid WHERE id = NEW.id;
END;`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	require.NoError(t, db.Exec(numbering).Error)
	return db
}

func seedOrder(t *testing.T, repo Repository, userID uuid.UUID, number int64, status enums.OrderStatus, placedAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		OrderNumber:    number,
		Status:         status,
		DeliveryStatus: enums.DeliveryStatusReceived,
		Total:          decimal.RequireFromString("18.00"),
		PlacedAt:       placedAt,
		CreatedAt:      placedAt,
		UpdatedAt:      placedAt,
	}
	created, err := repo.CreateOrder(context.Background(), order)
	require.NoError(t, err)

	items := []models.OrderItem{
		{ID: uuid.New(), OrderID: created.ID, Name: "Bibimbap", UnitPrice: decimal.RequireFromString("9.00"), Quantity: 2, Subtotal: decimal.RequireFromString("18.00")},
	}
	require.NoError(t, repo.CreateOrderItems(context.Background(), items))
	return created
}

func TestCreateOrderAssignsOrderNumbers(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()

	// No OrderNumber set: the column must be left to the database default,
	// not written as zero.
	first, err := repo.CreateOrder(ctx, &models.Order{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Status:         enums.OrderStatusPending,
		DeliveryStatus: enums.DeliveryStatusReceived,
		Total:          decimal.RequireFromString("12.00"),
		PlacedAt:       time.Now().UTC(),
	})
	require.NoError(t, err)

	second, err := repo.CreateOrder(ctx, &models.Order{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Status:         enums.OrderStatusPending,
		DeliveryStatus: enums.DeliveryStatusReceived,
		Total:          decimal.RequireFromString("7.50"),
		PlacedAt:       time.Now().UTC(),
	})
	require.NoError(t, err, "second create must not collide on order_number")

	firstRow, err := repo.FindOrder(ctx, first.ID)
	require.NoError(t, err)
	secondRow, err := repo.FindOrder(ctx, second.ID)
	require.NoError(t, err)

	assert.NotZero(t, firstRow.OrderNumber)
	assert.NotZero(t, secondRow.OrderNumber)
	assert.NotEqual(t, firstRow.OrderNumber, secondRow.OrderNumber)
}

func TestFindOrderPreloadsItems(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	userID := uuid.New()
	created := seedOrder(t, repo, userID, 1001, enums.OrderStatusPending, time.Now().UTC())

	found, err := repo.FindOrder(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Bibimbap", found.Items[0].Name)
	assert.Equal(t, 2, found.Items[0].Quantity)
}

func TestListUserOrdersFiltersByStatus(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	userID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	seedOrder(t, repo, userID, 2001, enums.OrderStatusPending, base.Add(-2*time.Hour))
	seedOrder(t, repo, userID, 2002, enums.OrderStatusCompleted, base.Add(-time.Hour))
	seedOrder(t, repo, uuid.New(), 2003, enums.OrderStatusCompleted, base)

	completed := enums.OrderStatusCompleted
	rows, next, err := repo.ListUserOrders(context.Background(), userID, ListQuery{Limit: 10, Status: &completed})
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2002), rows[0].OrderNumber)
}

func TestListOrdersPaginatesNewestFirst(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	userID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	for i := int64(0); i < 3; i++ {
		seedOrder(t, repo, userID, 3000+i, enums.OrderStatusPending, base.Add(time.Duration(i)*time.Minute))
	}

	first, next, err := repo.ListOrders(context.Background(), ListQuery{Limit: 2})
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, first, 2)
	assert.Equal(t, int64(3002), first[0].OrderNumber)
	assert.Equal(t, int64(3001), first[1].OrderNumber)

	rest, last, err := repo.ListOrders(context.Background(), ListQuery{Limit: 2, Cursor: next})
	require.NoError(t, err)
	assert.Nil(t, last)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(3000), rest[0].OrderNumber)
}

func TestUpdateOrderAppliesColumnMap(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	created := seedOrder(t, repo, uuid.New(), 4001, enums.OrderStatusPending, time.Now().UTC())

	now := time.Now().UTC()
	err := repo.UpdateOrder(context.Background(), created.ID, map[string]any{
		"status":         enums.OrderStatusCompleted,
		"payment_method": enums.PaymentMethodCash,
		"payment_status": true,
		"completed_at":   &now,
	})
	require.NoError(t, err)

	found, err := repo.FindOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, found.Status)
	assert.True(t, found.PaymentStatus)
	require.NotNil(t, found.PaymentMethod)
	assert.Equal(t, enums.PaymentMethodCash, *found.PaymentMethod)
	require.NotNil(t, found.CompletedAt)
}

func TestDeleteOrderRemovesRow(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	created := seedOrder(t, repo, uuid.New(), 5001, enums.OrderStatusFailed, time.Now().UTC())

	require.NoError(t, repo.DeleteOrder(context.Background(), created.ID))

	_, err := repo.FindOrder(context.Background(), created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

type gormTxRunner struct {
	conn *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.conn.WithContext(ctx).Transaction(fn)
}

// sqlite has no SELECT FOR UPDATE, so the locking read is rerouted to the
// plain listing.
type noLockCartRepo struct {
	cart.Repository
}

func (r noLockCartRepo) WithTx(tx *gorm.DB) cart.Repository {
	return noLockCartRepo{r.Repository.WithTx(tx)}
}

func (r noLockCartRepo) ListLinesForUpdate(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return r.Repository.ListLines(ctx, userID)
}

type failingItemsRepo struct {
	Repository
}

func (r failingItemsRepo) WithTx(tx *gorm.DB) Repository {
	return failingItemsRepo{r.Repository.WithTx(tx)}
}

func (r failingItemsRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	return errors.New("order_items insert failed")
}

func TestCheckoutRollsBackWhenItemInsertFails(t *testing.T) {
	conn := setupOrdersTestDB(t)
	userID := uuid.New()

	line := &models.CartItem{
		ID: uuid.New(), UserID: userID, MenuItemID: uuid.New(),
		ItemName: "Dosa", UnitPrice: decimal.RequireFromString("4.75"), Quantity: 2,
	}
	require.NoError(t, conn.Create(line).Error)

	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(
		failingItemsRepo{NewRepository(conn)},
		noLockCartRepo{cart.NewRepository(conn)},
		gormTxRunner{conn},
		logg, nil, nil,
	)
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), userID)
	require.Error(t, err)

	var orderCount, lineCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, conn.Model(&models.CartItem{}).Count(&lineCount).Error)
	assert.Zero(t, orderCount, "failed checkout must leave no order behind")
	assert.EqualValues(t, 1, lineCount, "cart line must survive the rollback")
}
