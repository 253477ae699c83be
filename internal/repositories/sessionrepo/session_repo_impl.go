package sessionrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sqlc-dev/pqtype"

	"github.com/moonrisegoods/nps/internal/domain"
	"github.com/moonrisegoods/nps/internal/infrastructure/database"
)

type sessionRepositoryImpl struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ISessionRepository {
	return &sessionRepositoryImpl{
		db:     db.Db,
		logger: logger,
	}
}

func (r *sessionRepositoryImpl) Create(ctx context.Context, session *domain.PaymentSession) error {
	lineItems, err := json.Marshal(session.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	customer := pqtype.NullRawMessage{}
	if session.Customer != nil {
		data, err := json.Marshal(session.Customer)
		if err != nil {
			return fmt.Errorf("failed to marshal customer info: %w", err)
		}
		customer = pqtype.NullRawMessage{RawMessage: data, Valid: true}
	}

	const query = `
		INSERT INTO payment_sessions (
			order_id, status, fiat_total_cents, exchange_rate, xno_amount,
			raw_amount, receiving_address, line_items, customer,
			created_at, expires_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.ExecContext(ctx, query,
		session.OrderID,
		string(session.Status),
		session.FiatTotalCents,
		session.ExchangeRate,
		session.XNOAmount,
		session.RawAmount,
		session.ReceivingAddress,
		lineItems,
		customer,
		session.CreatedAt,
		session.ExpiresAt,
		session.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", session.OrderID).Msg("Failed to create payment session")
		return fmt.Errorf("failed to create payment session: %w", err)
	}

	return nil
}

func (r *sessionRepositoryImpl) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentSession, error) {
	const query = `
		SELECT order_id, status, fiat_total_cents, exchange_rate, xno_amount,
		       raw_amount, receiving_address, line_items, customer,
		       tx_hash, payer_address, created_at, expires_at, updated_at
		FROM payment_sessions
		WHERE order_id = $1
	`

	var (
		session   domain.PaymentSession
		status    string
		lineItems []byte
		customer  pqtype.NullRawMessage
		txHash    sql.NullString
		payer     sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&session.OrderID,
		&status,
		&session.FiatTotalCents,
		&session.ExchangeRate,
		&session.XNOAmount,
		&session.RawAmount,
		&session.ReceivingAddress,
		&lineItems,
		&customer,
		&txHash,
		&payer,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Msg("Failed to get payment session")
		return nil, fmt.Errorf("failed to get payment session: %w", err)
	}

	session.Status = domain.SessionStatus(status)
	session.TxHash = txHash.String
	session.PayerAddress = payer.String

	if len(lineItems) > 0 {
		if err := json.Unmarshal(lineItems, &session.LineItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
		}
	}
	if customer.Valid {
		var info domain.CustomerInfo
		if err := json.Unmarshal(customer.RawMessage, &info); err != nil {
			return nil, fmt.Errorf("failed to unmarshal customer info: %w", err)
		}
		session.Customer = &info
	}

	return &session, nil
}

func (r *sessionRepositoryImpl) UpdateCustomer(ctx context.Context, orderID string, customer domain.CustomerInfo) (bool, error) {
	data, err := json.Marshal(customer)
	if err != nil {
		return false, fmt.Errorf("failed to marshal customer info: %w", err)
	}

	const query = `
		UPDATE payment_sessions
		SET customer = $2, updated_at = now()
		WHERE order_id = $1 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, orderID, data)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Msg("Failed to update customer info")
		return false, fmt.Errorf("failed to update customer info: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows == 1, nil
}

func (r *sessionRepositoryImpl) MarkExpired(ctx context.Context, orderID string) (bool, error) {
	const query = `
		UPDATE payment_sessions
		SET status = 'expired', updated_at = now()
		WHERE order_id = $1 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Msg("Failed to expire payment session")
		return false, fmt.Errorf("failed to expire payment session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows == 1, nil
}

func (r *sessionRepositoryImpl) MarkPaid(ctx context.Context, orderID, txHash, payerAddress string) (bool, error) {
	const query = `
		UPDATE payment_sessions
		SET status = 'paid', tx_hash = $2, payer_address = $3, updated_at = now()
		WHERE order_id = $1 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, orderID, txHash, payerAddress)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID).Str("tx_hash", txHash).Msg("Failed to mark payment session paid")
		return false, fmt.Errorf("failed to mark payment session paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows == 1, nil
}
