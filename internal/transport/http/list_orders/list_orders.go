package listorders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/transport/http/apierror"
)

// service is an interface for the service layer.
type service interface {
	GetOrders(ctx context.Context, p principal.Principal, query order.QueryOrdersModel) ([]order.Order, error)
}

type listOrdersRequest struct {
	Limit  int `schema:"limit,omitempty"`
	Offset int `schema:"offset,omitempty"`
}

// ListOrders handles the admin listing of all orders.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		apierror.Write(w, principal.ErrUnauthorized)

		return
	}

	decoder := schema.NewDecoder()
	query := &listOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding list orders query", "error", err)

		return
	}

	orders, err := service.GetOrders(r.Context(), p, order.QueryOrdersModel{
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error getting orders", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		slog.Error("Error writing response for list orders", "error", err)
	}
}
