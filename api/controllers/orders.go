package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rkfood/rkfood-backend/api/responses"
	"github.com/rkfood/rkfood-backend/api/validators"
	orderssvc "github.com/rkfood/rkfood-backend/internal/orders"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
	"github.com/rkfood/rkfood-backend/pkg/logger"
)

// SelectPayment applies the caller's payment choice and settles the order.
func SelectPayment(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SelectPayment(r.Context(), userID, orderID, payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(*order))
	}
}

// GetOrder returns one of the caller's orders with its line items.
func GetOrder(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), userID, orderID, isOperator(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(*order))
	}
}

// ListMyOrders pages through the caller's order history, newest first.
func ListMyOrders(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListUserOrders(r.Context(), userID, params, r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderPageResponse(page))
	}
}

// ListOrders pages through all orders. Operator surface.
func ListOrders(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListOrders(r.Context(), params, r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderPageResponse(page))
	}
}

// UpdateDeliveryStatus moves an order through the delivery pipeline. Operator surface.
func UpdateDeliveryStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateDeliveryStatus(r.Context(), orderID, payload.DeliveryStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(*order))
	}
}

type selectPaymentRequest struct {
	Method string `json:"method" validate:"required"`
}

type updateDeliveryRequest struct {
	DeliveryStatus string `json:"delivery_status" validate:"required"`
}

type orderResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    int64               `json:"order_number"`
	Status         string              `json:"status"`
	PaymentMethod  *string             `json:"payment_method,omitempty"`
	PaymentStatus  bool                `json:"payment_status"`
	DeliveryStatus string              `json:"delivery_status"`
	Total          string              `json:"total"`
	Items          []orderItemResponse `json:"items"`
	PlacedAt       time.Time           `json:"placed_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	CanceledAt     *time.Time          `json:"canceled_at,omitempty"`
}

type orderItemResponse struct {
	ID         uuid.UUID  `json:"id"`
	MenuItemID *uuid.UUID `json:"menu_item_id,omitempty"`
	Name       string     `json:"name"`
	UnitPrice  string     `json:"unit_price"`
	Quantity   int        `json:"quantity"`
	Subtotal   string     `json:"subtotal"`
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func newOrderResponse(order models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			Quantity:   item.Quantity,
			Subtotal:   item.Subtotal.StringFixed(2),
		})
	}

	var method *string
	if order.PaymentMethod != nil {
		m := string(*order.PaymentMethod)
		method = &m
	}
	return orderResponse{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         string(order.Status),
		PaymentMethod:  method,
		PaymentStatus:  order.PaymentStatus,
		DeliveryStatus: string(order.DeliveryStatus),
		Total:          order.Total.StringFixed(2),
		Items:          items,
		PlacedAt:       order.PlacedAt,
		CompletedAt:    order.CompletedAt,
		CanceledAt:     order.CanceledAt,
	}
}

func newOrderPageResponse(page *orderssvc.OrderPage) orderPageResponse {
	orders := make([]orderResponse, 0, len(page.Orders))
	for _, order := range page.Orders {
		orders = append(orders, newOrderResponse(order))
	}
	return orderPageResponse{Orders: orders, NextCursor: page.NextCursor}
}
