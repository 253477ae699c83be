package interfaces

import (
	"context"

	"github.com/moonrisegoods/nps/internal/domain"
)

// LedgerClient is the Nano node RPC surface the reconciliation engine needs:
// the unconfirmed receivable view and the confirmed account history.
type LedgerClient interface {
	Receivable(ctx context.Context, account string, count int, thresholdRaw string) ([]domain.ReceivableEntry, error)
	AccountHistory(ctx context.Context, account string, count int) ([]domain.HistoryEntry, error)
}

// PriceClient returns the current USD price of 1 XNO.
type PriceClient interface {
	USDRate(ctx context.Context) (float64, error)
}
