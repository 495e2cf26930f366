package deliverorder

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
	DeliverOrder(ctx context.Context, p principal.Principal, id uuid.UUID) (*order.Order, error)
}

// DeliverOrder handles the admin delivery confirmation request.
func DeliverOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	delivered, err := service.DeliverOrder(r.Context(), p, id)
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error delivering order", "error", err, "order_id", id)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(delivered); err != nil {
		slog.Error("Error writing response for deliver order", "error", err)
	}
}
