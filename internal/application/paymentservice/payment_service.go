package paymentservice

import (
	"context"

	"github.com/moonrisegoods/nps/internal/domain"
)

// IPaymentService is the crypto checkout core: session creation, customer
// attach, and ledger reconciliation. Reconcile is safe to call repeatedly
// and concurrently for the same order; a session leaves pending at most
// once.
type IPaymentService interface {
	CreateSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error)
	AttachCustomer(ctx context.Context, orderID string, customer domain.CustomerInfo) error
	Reconcile(ctx context.Context, orderID string) (*domain.StatusResponse, error)
}
