package apierror

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/service/models/product"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Write maps a domain error to an HTTP status and writes a JSON body that
// names the failure kind. Unknown errors are not leaked to the client.
func Write(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var productNotFound *product.NotFoundError

	switch {
	case errors.Is(err, order.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.As(err, &productNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, order.ErrNoOrderItems),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrMissingTransactionID),
		errors.Is(err, order.ErrPaymentNotVerified),
		errors.Is(err, order.ErrDuplicateTransaction),
		errors.Is(err, order.ErrAmountMismatch):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, principal.ErrUnauthorized):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, principal.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if encodeErr := json.NewEncoder(w).Encode(errorResponse{Error: message}); encodeErr != nil {
		slog.Error("Error writing error response", "error", encodeErr)
	}
}
