package myorders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/transport/http/apierror"
)

// service is an interface for the service layer.
type service interface {
	GetMyOrders(ctx context.Context, p principal.Principal) ([]order.Order, error)
}

// MyOrders handles listing the caller's own orders.
func MyOrders(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		apierror.Write(w, principal.ErrUnauthorized)

		return
	}

	orders, err := service.GetMyOrders(r.Context(), p)
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error getting my orders", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		slog.Error("Error writing response for my orders", "error", err)
	}
}
