package getorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/transport/http/apierror"
)

// service is an interface for the service layer.
type service interface {
	GetOrderByID(ctx context.Context, p principal.Principal, id uuid.UUID) (*order.Order, error)
}

// GetOrder handles fetching a single order by id.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		apierror.Write(w, principal.ErrUnauthorized)

		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	result, err := service.GetOrderByID(r.Context(), p, id)
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error getting order", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("Error writing response for get order", "error", err)
	}
}
