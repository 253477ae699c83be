package sessionrepo

import (
	"context"

	"github.com/moonrisegoods/nps/internal/domain"
)

// ISessionRepository persists payment sessions. The Mark* methods are
// conditional updates keyed on status = 'pending'; they report whether the
// row actually transitioned, so concurrent reconcilers can detect a lost
// race without an in-process lock.
type ISessionRepository interface {
	Create(ctx context.Context, session *domain.PaymentSession) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentSession, error)
	UpdateCustomer(ctx context.Context, orderID string, customer domain.CustomerInfo) (bool, error)
	MarkExpired(ctx context.Context, orderID string) (bool, error)
	MarkPaid(ctx context.Context, orderID, txHash, payerAddress string) (bool, error)
}
