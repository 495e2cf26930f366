package payorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/service/services/ordersvc"
	"github.com/shoplane/order/internal/transport/http/apierror"
)

// service is an interface for the service layer.
type service interface {
	PayOrder(ctx context.Context, p principal.Principal, id uuid.UUID, model ordersvc.PaymentConfirmationModel) (*order.Order, error)
}

// payOrderRequest mirrors the provider callback payload. Everything in it
// is client-asserted; the service re-verifies with the provider.
type payOrderRequest struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Payer      struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

// PayOrder handles the payment confirmation request.
func PayOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	var req payOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "failed to decode request body", http.StatusBadRequest)
		slog.Error("Error decoding request body for pay order", "error", err)

		return
	}

	paid, err := service.PayOrder(r.Context(), p, id, ordersvc.PaymentConfirmationModel{
		TransactionID: req.ID,
		Status:        req.Status,
		UpdateTime:    req.UpdateTime,
		PayerEmail:    req.Payer.EmailAddress,
	})
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error paying order", "error", err, "order_id", id)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(paid); err != nil {
		slog.Error("Error writing response for pay order", "error", err)
	}
}
