package stripepay

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"

	"github.com/shoplane/order/internal/payment"
	"github.com/shoplane/order/internal/service/models/money"
)

// Verifier confirms transactions by retrieving the payment intent from the
// live Stripe API.
type Verifier struct{}

// NewVerifier sets the Stripe API key and returns a verifier.
func NewVerifier(apiKey string) *Verifier {
	stripe.Key = apiKey
	return &Verifier{}
}

// Verify retrieves the payment intent and reports whether it succeeded,
// with the amount Stripe charged. An unknown transaction id is reported as
// unverified rather than as an error.
func (v *Verifier) Verify(ctx context.Context, transactionID string) (payment.Verification, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(transactionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return payment.Verification{}, nil
		}

		return payment.Verification{}, fmt.Errorf("failed to retrieve stripe payment intent: %w", err)
	}

	return payment.Verification{
		Verified: pi.Status == stripe.PaymentIntentStatusSucceeded,
		Amount:   money.FromCents(pi.Amount),
	}, nil
}
