package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rkfood/rkfood-backend/internal/cart"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
	"github.com/rkfood/rkfood-backend/pkg/logger"
	"github.com/rkfood/rkfood-backend/pkg/metrics"
	"github.com/rkfood/rkfood-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier receives post-commit order lifecycle events. Failures are logged
// and never roll back the order.
type Notifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
	OrderCanceled(ctx context.Context, order *models.Order)
	DeliveryUpdated(ctx context.Context, order *models.Order)
}

// Service exposes checkout, payment selection and order tracking.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	SelectPayment(ctx context.Context, userID, orderID uuid.UUID, rawMethod string) (*models.Order, error)
	UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*models.Order, error)
	GetOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, operator bool) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, status string) (*OrderPage, error)
	ListOrders(ctx context.Context, params pagination.Params, status string) (*OrderPage, error)
}

// OrderPage is a cursor page of orders.
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type service struct {
	repo     Repository
	cartRepo cart.Repository
	tx       txRunner
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
	notifier Notifier
}

// NewService builds the orders service. Metrics and notifier are optional.
func NewService(repo Repository, cartRepo cart.Repository, tx txRunner, logg *logger.Logger, m *metrics.OrderMetrics, notifier Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		cartRepo: cartRepo,
		tx:       tx,
		logg:     logg,
		metrics:  m,
		notifier: notifier,
	}, nil
}

// Checkout converts the user's cart into a pending order. The cart lines are
// locked, snapshotted into order items and cleared in one transaction.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}

	start := time.Now()
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		lines, err := cartRepo.ListLinesForUpdate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart lines")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart has no items")
		}

		total := decimal.Zero
		for _, line := range lines {
			total = total.Add(line.LineSubtotal())
		}

		created, err := repo.CreateOrder(ctx, &models.Order{
			UserID:         userID,
			Status:         enums.OrderStatusPending,
			DeliveryStatus: enums.DeliveryStatusReceived,
			Total:          total,
			PlacedAt:       time.Now().UTC(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			menuItemID := line.MenuItemID
			items = append(items, models.OrderItem{
				OrderID:    created.ID,
				MenuItemID: &menuItemID,
				Name:       line.ItemName,
				UnitPrice:  line.UnitPrice,
				Quantity:   line.Quantity,
				Subtotal:   line.LineSubtotal(),
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		if err := cartRepo.DeleteUserLines(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		created.Items = items
		order = created
		return nil
	})
	if err != nil {
		s.metrics.ObserveCheckout("error", time.Since(start))
		return nil, err
	}

	s.metrics.ObserveCheckout("ok", time.Since(start))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":      userID.String(),
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"total":        order.Total.StringFixed(2),
	})
	s.logg.Info(logCtx, "order placed")

	if s.notifier != nil {
		s.notifier.OrderConfirmed(ctx, order)
	}
	return order, nil
}

// SelectPayment applies the customer's payment choice to a pending order.
//
// Cash settles immediately. Card and online payments have no gateway behind
// them yet, so the order is canceled rather than left hanging. A method the
// system does not recognize marks the order failed with a transaction_failed
// delivery state and then purges it.
func (s *service) SelectPayment(ctx context.Context, userID, orderID uuid.UUID, rawMethod string) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	method, parseErr := enums.ParsePaymentMethod(rawMethod)

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if existing.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if existing.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already settled")
		}

		if parseErr != nil {
			// Record the failure, then remove the order so it can never
			// be retried against a half-settled row.
			updates := map[string]any{
				"status":          enums.OrderStatusFailed,
				"delivery_status": enums.DeliveryStatusTransactionFailed,
			}
			if err := repo.UpdateOrder(ctx, existing.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
			}
			if err := repo.DeleteOrder(ctx, existing.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge failed order")
			}
			s.metrics.IncSettled(enums.OrderStatusFailed.String())
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment method not supported")
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"payment_method": method,
		}
		switch method {
		case enums.PaymentMethodCash:
			updates["payment_status"] = true
			updates["status"] = enums.OrderStatusCompleted
			updates["completed_at"] = now
		default:
			// No payment gateway is wired for card or online payments.
			updates["status"] = enums.OrderStatusCanceled
			updates["canceled_at"] = now
		}
		if err := repo.UpdateOrder(ctx, existing.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply payment selection")
		}

		refreshed, err := repo.FindOrder(ctx, existing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		order = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPlaced(method.String())
	s.metrics.IncSettled(order.Status.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":        userID.String(),
		"order_id":       order.ID.String(),
		"payment_method": method.String(),
		"status":         order.Status.String(),
	})
	s.logg.Info(logCtx, "payment selection applied")

	if s.notifier != nil {
		switch order.Status {
		case enums.OrderStatusCompleted:
			s.notifier.OrderConfirmed(ctx, order)
		case enums.OrderStatusCanceled:
			s.notifier.OrderCanceled(ctx, order)
		}
	}
	return order, nil
}

// UpdateDeliveryStatus lets an operator advance the delivery pipeline.
func (s *service) UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	status, err := enums.ParseDeliveryStatus(rawStatus)
	if err != nil || !status.IsOperatorSettable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("delivery status %q not assignable", rawStatus))
	}

	var order *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if existing.Status == enums.OrderStatusFailed || existing.Status == enums.OrderStatusCanceled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not deliverable")
		}

		if err := repo.UpdateOrder(ctx, existing.ID, map[string]any{"delivery_status": status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery status")
		}
		refreshed, err := repo.FindOrder(ctx, existing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		order = refreshed
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncDeliveryTransition(status.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":        order.ID.String(),
		"delivery_status": status.String(),
	})
	s.logg.Info(logCtx, "delivery status updated")

	if s.notifier != nil {
		s.notifier.DeliveryUpdated(ctx, order)
	}
	return order, nil
}

// GetOrder loads one order. Customers only see their own; operators see any.
func (s *service) GetOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, operator bool) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !operator && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// ListUserOrders pages through the caller's order history, newest first.
func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, status string) (*OrderPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}
	query, err := buildListQuery(params, status)
	if err != nil {
		return nil, err
	}
	items, next, err := s.repo.ListUserOrders(ctx, userID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderPage(items, next), nil
}

// ListOrders pages through every order. Operator surface.
func (s *service) ListOrders(ctx context.Context, params pagination.Params, status string) (*OrderPage, error) {
	query, err := buildListQuery(params, status)
	if err != nil {
		return nil, err
	}
	items, next, err := s.repo.ListOrders(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderPage(items, next), nil
}

func buildListQuery(params pagination.Params, status string) (ListQuery, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return ListQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query := ListQuery{Limit: params.Limit, Cursor: cursor}
	if status != "" {
		parsed, err := enums.ParseOrderStatus(status)
		if err != nil {
			return ListQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = &parsed
	}
	return query, nil
}

func newOrderPage(items []models.Order, next *pagination.Cursor) *OrderPage {
	page := &OrderPage{Orders: items}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page
}
