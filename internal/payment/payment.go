package payment

import (
	"context"
	"fmt"

	"github.com/shoplane/order/internal/service/models/money"
)

// Verification is the provider's answer for a transaction id: whether the
// transaction is genuine and settled, and the authoritative paid amount.
type Verification struct {
	Verified bool
	Amount   money.Amount
}

// Verifier confirms a transaction id against the live payment provider.
// Implementations must not cache: every call goes to the provider.
type Verifier interface {
	Verify(ctx context.Context, transactionID string) (Verification, error)
}

// Registry maps payment method identifiers to verifiers.
type Registry struct {
	verifiers map[string]Verifier
}

func NewRegistry() *Registry {
	return &Registry{verifiers: map[string]Verifier{}}
}

func (r *Registry) Register(method string, v Verifier) {
	r.verifiers[method] = v
}

// ForMethod returns the verifier for the given payment method identifier.
func (r *Registry) ForMethod(method string) (Verifier, error) {
	v, ok := r.verifiers[method]
	if !ok {
		return nil, fmt.Errorf("no payment verifier registered for method %q", method)
	}

	return v, nil
}
