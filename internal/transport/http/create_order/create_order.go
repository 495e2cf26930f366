package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/orderitem"
	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/service/services/ordersvc"
	"github.com/shoplane/order/internal/transport/http/apierror"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, p principal.Principal, model ordersvc.CreateOrderModel) (*order.Order, error)
}

type createOrderRequest struct {
	OrderItems      []orderitem.ClientItem `json:"orderItems"`
	ShippingAddress order.ShippingAddress  `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

// CreateOrder handles the order creation request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		apierror.Write(w, principal.ErrUnauthorized)

		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "failed to decode request body", http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	created, err := service.CreateOrder(r.Context(), p, ordersvc.CreateOrderModel{
		Items:           req.OrderItems,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error creating order", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		slog.Error("Error writing response for create order", "error", err)
	}
}
