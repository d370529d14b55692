package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderssvc "github.com/rkfood/rkfood-backend/internal/orders"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
	"github.com/rkfood/rkfood-backend/pkg/pagination"
)

type stubOrdersService struct {
	order *models.Order
	page  *orderssvc.OrderPage
	err   error

	gotMethod string
	gotStatus string
}

func (s *stubOrdersService) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) SelectPayment(ctx context.Context, userID, orderID uuid.UUID, rawMethod string) (*models.Order, error) {
	s.gotMethod = rawMethod
	return s.order, s.err
}

func (s *stubOrdersService) UpdateDeliveryStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*models.Order, error) {
	s.gotStatus = rawStatus
	return s.order, s.err
}

func (s *stubOrdersService) GetOrder(ctx context.Context, userID, orderID uuid.UUID, operator bool) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, status string) (*orderssvc.OrderPage, error) {
	s.gotStatus = status
	return s.page, s.err
}

func (s *stubOrdersService) ListOrders(ctx context.Context, params pagination.Params, status string) (*orderssvc.OrderPage, error) {
	s.gotStatus = status
	return s.page, s.err
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func sampleOrder() *models.Order {
	method := enums.PaymentMethodCash
	return &models.Order{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		OrderNumber:    1042,
		Status:         enums.OrderStatusCompleted,
		PaymentMethod:  &method,
		PaymentStatus:  true,
		DeliveryStatus: enums.DeliveryStatusReceived,
		Total:          decimal.RequireFromString("23.75"),
		Items: []models.OrderItem{{
			ID:        uuid.New(),
			Name:      "Pad Thai",
			UnitPrice: decimal.RequireFromString("23.75"),
			Quantity:  1,
			Subtotal:  decimal.RequireFromString("23.75"),
		}},
		PlacedAt: time.Now().UTC(),
	}
}

func TestCheckoutCreated(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	handler := Checkout(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/checkout", ""))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber != 1042 {
		t.Fatalf("unexpected order number: %d", envelope.Data.OrderNumber)
	}
	if envelope.Data.Total != "23.75" {
		t.Fatalf("unexpected total: %s", envelope.Data.Total)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")}
	handler := Checkout(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/checkout", ""))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestSelectPaymentPassesMethod(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	handler := SelectPayment(svc, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/payment", `{"method":"cash"}`)
	req = withURLParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotMethod != "cash" {
		t.Fatalf("expected method cash, got %q", svc.gotMethod)
	}
}

func TestSelectPaymentInvalidOrderID(t *testing.T) {
	handler := SelectPayment(&stubOrdersService{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/payment", `{"method":"cash"}`)
	req = withURLParam(req, "orderID", "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListMyOrdersForwardsStatusFilter(t *testing.T) {
	svc := &stubOrdersService{page: &orderssvc.OrderPage{Orders: []models.Order{*sampleOrder()}}}
	handler := ListMyOrders(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/orders?status=completed&limit=10", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotStatus != "completed" {
		t.Fatalf("expected status filter completed, got %q", svc.gotStatus)
	}
	var envelope struct {
		Data orderPageResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(envelope.Data.Orders))
	}
}

func TestUpdateDeliveryStatusForwardsValue(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	handler := UpdateDeliveryStatus(svc, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodPut, "/api/v1/admin/orders/"+orderID.String()+"/delivery", `{"delivery_status":"ready"}`)
	req = withURLParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotStatus != "ready" {
		t.Fatalf("expected delivery status ready, got %q", svc.gotStatus)
	}
}
