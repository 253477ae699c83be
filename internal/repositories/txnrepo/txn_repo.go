package txnrepo

import (
	"context"

	"github.com/moonrisegoods/nps/internal/domain"
)

// ITransactionRepository records which ledger transactions have confirmed
// which sessions. tx_hash is unique in storage, which is what makes the
// replay guard in reconciliation hold across sessions and across process
// instances.
type ITransactionRepository interface {
	Record(ctx context.Context, txn domain.LedgerTransaction) error
	GetByHash(ctx context.Context, txHash string) (*domain.LedgerTransaction, error)
}
