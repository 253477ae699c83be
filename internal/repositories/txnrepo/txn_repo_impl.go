package txnrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/moonrisegoods/nps/internal/domain"
	"github.com/moonrisegoods/nps/internal/infrastructure/database"
)

type transactionRepositoryImpl struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ITransactionRepository {
	return &transactionRepositoryImpl{
		db:     db.Db,
		logger: logger,
	}
}

func (r *transactionRepositoryImpl) Record(ctx context.Context, txn domain.LedgerTransaction) error {
	const query = `
		INSERT INTO ledger_transactions (tx_hash, order_id, amount_raw, payer_address, source_view, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		txn.TxHash,
		txn.OrderID,
		txn.AmountRaw,
		txn.PayerAddress,
		string(txn.SourceView),
		txn.MatchedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("tx_hash", txn.TxHash).Str("order_id", txn.OrderID).Msg("Failed to record ledger transaction")
		return fmt.Errorf("failed to record ledger transaction: %w", err)
	}

	return nil
}

func (r *transactionRepositoryImpl) GetByHash(ctx context.Context, txHash string) (*domain.LedgerTransaction, error) {
	const query = `
		SELECT tx_hash, order_id, amount_raw, payer_address, source_view, matched_at
		FROM ledger_transactions
		WHERE tx_hash = $1
	`

	var (
		txn    domain.LedgerTransaction
		source string
	)
	err := r.db.QueryRowContext(ctx, query, txHash).Scan(
		&txn.TxHash,
		&txn.OrderID,
		&txn.AmountRaw,
		&txn.PayerAddress,
		&source,
		&txn.MatchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("tx_hash", txHash).Msg("Failed to get ledger transaction")
		return nil, fmt.Errorf("failed to get ledger transaction: %w", err)
	}

	txn.SourceView = domain.SourceView(source)
	return &txn, nil
}
