package paymentservice

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moonrisegoods/nps/internal/domain"
	"github.com/moonrisegoods/nps/internal/domain/interfaces"
	"github.com/moonrisegoods/nps/internal/repositories/catalogrepo"
	"github.com/moonrisegoods/nps/internal/repositories/sessionrepo"
	"github.com/moonrisegoods/nps/internal/repositories/txnrepo"
	"github.com/moonrisegoods/nps/internal/server/websocket"
	"github.com/moonrisegoods/nps/pkg/config"
	"github.com/moonrisegoods/nps/pkg/nanoamount"
)

type paymentService struct {
	sessionRepo sessionrepo.ISessionRepository
	txnRepo     txnrepo.ITransactionRepository
	catalogRepo catalogrepo.ICatalogRepository
	ledger      interfaces.LedgerClient
	price       interfaces.PriceClient
	nanoCfg     config.NanoConfig
	paymentCfg  config.PaymentConfig
	encoder     *nanoamount.Encoder
	logger      zerolog.Logger
	wsHub       *websocket.WsHub
}

func New(
	sessionRepo sessionrepo.ISessionRepository,
	txnRepo txnrepo.ITransactionRepository,
	catalogRepo catalogrepo.ICatalogRepository,
	ledger interfaces.LedgerClient,
	price interfaces.PriceClient,
	nanoCfg config.NanoConfig,
	paymentCfg config.PaymentConfig,
	encoder *nanoamount.Encoder,
	logger zerolog.Logger,
	wsHub *websocket.WsHub,
) IPaymentService {
	return &paymentService{
		sessionRepo: sessionRepo,
		txnRepo:     txnRepo,
		catalogRepo: catalogRepo,
		ledger:      ledger,
		price:       price,
		nanoCfg:     nanoCfg,
		paymentCfg:  paymentCfg,
		encoder:     encoder,
		logger:      logger,
		wsHub:       wsHub,
	}
}

func (s *paymentService) CreateSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	if s.nanoCfg.ReceivingAddress == "" {
		return nil, domain.ErrNotConfigured
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrNoItems
	}

	items := make([]domain.LineItem, len(req.Items))
	var totalCents int64
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
		}

		priceCents, ok, err := s.catalogRepo.VariantPriceCents(ctx, item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("resolving variant price: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: unknown variant %s", domain.ErrValidation, item.VariantID)
		}

		item.UnitPriceCents = priceCents
		items[i] = item
		totalCents += priceCents * int64(item.Quantity)
	}

	if req.DiscountCode != "" {
		percentOff, ok, err := s.catalogRepo.DiscountPercent(ctx, req.DiscountCode)
		if err != nil {
			return nil, fmt.Errorf("resolving discount code: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: unknown discount code", domain.ErrValidation)
		}
		totalCents -= totalCents * int64(percentOff) / 100
	}

	if totalCents <= 0 {
		return nil, domain.ErrInvalidTotal
	}

	rate, err := s.usdRate(ctx)
	if err != nil {
		return nil, err
	}

	amount, err := s.encoder.Encode(totalCents, rate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTotal, err)
	}

	now := time.Now().UTC()
	session := &domain.PaymentSession{
		OrderID:          uuid.NewString(),
		Status:           domain.SessionStatusPending,
		FiatTotalCents:   totalCents,
		ExchangeRate:     rate,
		XNOAmount:        amount.XNO,
		RawAmount:        amount.Raw.String(),
		ReceivingAddress: s.nanoCfg.ReceivingAddress,
		LineItems:        items,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.paymentCfg.SessionTTL()),
		UpdatedAt:        now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("persisting payment session: %w", err)
	}

	s.logger.Info().
		Str("order_id", session.OrderID).
		Str("usd_total", nanoamount.FormatUSD(totalCents)).
		Float64("xno_amount", amount.XNO).
		Float64("xno_price", rate).
		Time("expires_at", session.ExpiresAt).
		Msg("Payment session created")

	return &domain.CheckoutResponse{
		OrderID:     session.OrderID,
		NanoAddress: session.ReceivingAddress,
		XNOAmount:   session.XNOAmount,
		XNORaw:      session.RawAmount,
		USDTotal:    nanoamount.CentsToDollars(totalCents),
		XNOPrice:    rate,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

func (s *paymentService) usdRate(ctx context.Context) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.nanoCfg.Timeout)
	defer cancel()

	rate, err := s.price.USDRate(callCtx)
	if err != nil {
		if errors.Is(err, domain.ErrPriceUnavailable) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("%w: non-positive rate %v", domain.ErrPriceUnavailable, rate)
	}
	return rate, nil
}

func (s *paymentService) AttachCustomer(ctx context.Context, orderID string, customer domain.CustomerInfo) error {
	if strings.TrimSpace(customer.Name) == "" || strings.TrimSpace(customer.Email) == "" {
		return fmt.Errorf("%w: name and email are required", domain.ErrValidation)
	}

	session, err := s.sessionRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading payment session: %w", err)
	}
	if session == nil {
		return domain.ErrSessionNotFound
	}
	if session.Status != domain.SessionStatusPending {
		return fmt.Errorf("%w: status is %s", domain.ErrSessionNotPending, session.Status)
	}

	updated, err := s.sessionRepo.UpdateCustomer(ctx, orderID, customer)
	if err != nil {
		return fmt.Errorf("updating customer info: %w", err)
	}
	if !updated {
		// Lost a race with a transition out of pending.
		return fmt.Errorf("%w: session resolved concurrently", domain.ErrSessionNotPending)
	}

	s.logger.Info().Str("order_id", orderID).Msg("Customer info attached")
	return nil
}

// Reconcile checks one session against the ledger and applies at most one
// state transition. Terminal sessions return immediately without any ledger
// traffic; expiry is evaluated before the ledger is consulted; ledger
// transport failures degrade to "no match this attempt", never to an error
// the payer sees.
func (s *paymentService) Reconcile(ctx context.Context, orderID string) (*domain.StatusResponse, error) {
	session, err := s.sessionRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading payment session: %w", err)
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}

	if session.Status.Terminal() {
		return statusFromSession(session), nil
	}

	if session.ExpiredAt(time.Now().UTC()) {
		return s.expire(ctx, session)
	}

	expected, err := nanoamount.ParseRaw(session.RawAmount)
	if err != nil {
		return nil, fmt.Errorf("parsing stored raw amount: %w", err)
	}

	// Unconfirmed view first: a payment usually shows up as receivable
	// before the merchant wallet pockets it.
	if resp, matched, err := s.matchReceivable(ctx, session, expected); err != nil {
		return nil, err
	} else if matched {
		return resp, nil
	}

	// Confirmed history second: covers wallets that auto-pocket incoming
	// blocks before we ever see them as receivable.
	if resp, matched, err := s.matchHistory(ctx, session, expected); err != nil {
		return nil, err
	} else if matched {
		return resp, nil
	}

	return statusFromSession(session), nil
}

func (s *paymentService) expire(ctx context.Context, session *domain.PaymentSession) (*domain.StatusResponse, error) {
	expired, err := s.sessionRepo.MarkExpired(ctx, session.OrderID)
	if err != nil {
		return nil, fmt.Errorf("expiring payment session: %w", err)
	}
	if !expired {
		// A concurrent reconciler resolved the session first.
		fresh, err := s.sessionRepo.GetByOrderID(ctx, session.OrderID)
		if err != nil {
			return nil, fmt.Errorf("reloading payment session: %w", err)
		}
		if fresh == nil {
			return nil, domain.ErrSessionNotFound
		}
		return statusFromSession(fresh), nil
	}

	session.Status = domain.SessionStatusExpired
	resp := statusFromSession(session)
	s.wsHub.BroadcastSessionStatus(*resp)

	s.logger.Info().
		Str("order_id", session.OrderID).
		Time("expired_at", session.ExpiresAt).
		Msg("Payment session expired")
	return resp, nil
}

func (s *paymentService) matchReceivable(ctx context.Context, session *domain.PaymentSession, expected *big.Int) (*domain.StatusResponse, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.nanoCfg.Timeout)
	defer cancel()

	entries, err := s.ledger.Receivable(callCtx, session.ReceivingAddress, s.nanoCfg.ReceivableCount, s.nanoCfg.ReceivableThresholdRaw)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("order_id", session.OrderID).
			Msg("Receivable lookup failed, treating as no match this attempt")
		return nil, false, nil
	}

	for _, entry := range entries {
		raw, err := nanoamount.ParseRaw(entry.AmountRaw)
		if err != nil {
			s.logger.Warn().Err(err).Str("block_hash", entry.Hash).Msg("Skipping receivable block with unparsable amount")
			continue
		}
		if !nanoamount.WithinTolerance(raw, expected) {
			continue
		}
		resp, confirmed, err := s.confirm(ctx, session, entry.Hash, entry.Source, entry.AmountRaw, domain.SourceReceivable)
		if err != nil {
			return nil, false, err
		}
		if confirmed {
			return resp, true, nil
		}
		// Replay guard rejected this block; the honest payment may still be
		// later in the batch.
	}

	return nil, false, nil
}

func (s *paymentService) matchHistory(ctx context.Context, session *domain.PaymentSession, expected *big.Int) (*domain.StatusResponse, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.nanoCfg.Timeout)
	defer cancel()

	entries, err := s.ledger.AccountHistory(callCtx, session.ReceivingAddress, s.nanoCfg.HistoryCount)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("order_id", session.OrderID).
			Msg("History lookup failed, treating as no match this attempt")
		return nil, false, nil
	}

	type candidate struct {
		entry domain.HistoryEntry
		ts    int64
	}
	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != "receive" {
			continue
		}
		ts, err := strconv.ParseInt(entry.LocalTimestamp, 10, 64)
		if err != nil {
			s.logger.Warn().Err(err).Str("block_hash", entry.Hash).Msg("Skipping history entry with unparsable timestamp")
			continue
		}
		// Anything confirmed before the order existed cannot be its payment,
		// no matter how well the amount happens to line up.
		if ts < session.CreatedAt.Unix() {
			continue
		}
		candidates = append(candidates, candidate{entry: entry, ts: ts})
	}

	// Oldest first, so rematching is deterministic when several entries fall
	// inside the tolerance window.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].ts != candidates[j].ts {
			return candidates[i].ts < candidates[j].ts
		}
		return candidates[i].entry.Hash < candidates[j].entry.Hash
	})

	for _, c := range candidates {
		entry := c.entry
		raw, err := nanoamount.ParseRaw(entry.AmountRaw)
		if err != nil {
			s.logger.Warn().Err(err).Str("block_hash", entry.Hash).Msg("Skipping history entry with unparsable amount")
			continue
		}
		if !nanoamount.WithinTolerance(raw, expected) {
			continue
		}
		resp, confirmed, err := s.confirm(ctx, session, entry.Hash, entry.Account, entry.AmountRaw, domain.SourceHistory)
		if err != nil {
			return nil, false, err
		}
		if confirmed {
			return resp, true, nil
		}
	}

	return nil, false, nil
}

func (s *paymentService) confirm(ctx context.Context, session *domain.PaymentSession, txHash, payer, amountRaw string, view domain.SourceView) (*domain.StatusResponse, bool, error) {
	existing, err := s.txnRepo.GetByHash(ctx, txHash)
	if err != nil {
		s.logger.Error().Err(err).Str("tx_hash", txHash).Msg("Replay check failed, skipping candidate this attempt")
		return nil, false, nil
	}
	if existing != nil && existing.OrderID != session.OrderID {
		s.logger.Warn().
			Str("tx_hash", txHash).
			Str("order_id", session.OrderID).
			Str("confirmed_order_id", existing.OrderID).
			Msg("Transaction already confirmed another order, skipping")
		return nil, false, nil
	}

	paid, err := s.sessionRepo.MarkPaid(ctx, session.OrderID, txHash, payer)
	if err != nil {
		return nil, false, fmt.Errorf("marking payment session paid: %w", err)
	}
	if !paid {
		// A concurrent reconciler won the transition; surface its result.
		fresh, err := s.sessionRepo.GetByOrderID(ctx, session.OrderID)
		if err != nil {
			return nil, false, fmt.Errorf("reloading payment session: %w", err)
		}
		if fresh == nil {
			return nil, false, domain.ErrSessionNotFound
		}
		return statusFromSession(fresh), true, nil
	}

	if existing == nil {
		record := domain.LedgerTransaction{
			TxHash:       txHash,
			OrderID:      session.OrderID,
			AmountRaw:    amountRaw,
			PayerAddress: payer,
			SourceView:   view,
			MatchedAt:    time.Now().UTC(),
		}
		if err := s.txnRepo.Record(ctx, record); err != nil {
			// The paid transition is already durable; the audit row is not
			// worth failing the confirmation over.
			s.logger.Error().Err(err).Str("tx_hash", txHash).Msg("Failed to record confirmation proof")
		}
	}

	session.Status = domain.SessionStatusPaid
	session.TxHash = txHash
	session.PayerAddress = payer
	resp := statusFromSession(session)
	s.wsHub.BroadcastSessionStatus(*resp)

	s.logger.Info().
		Str("order_id", session.OrderID).
		Str("tx_hash", txHash).
		Str("payer_address", payer).
		Str("source_view", string(view)).
		Msg("Payment confirmed")
	return resp, true, nil
}

func statusFromSession(session *domain.PaymentSession) *domain.StatusResponse {
	return &domain.StatusResponse{
		Status:      session.Status,
		OrderID:     session.OrderID,
		NanoAddress: session.ReceivingAddress,
		XNOAmount:   session.XNOAmount,
		XNORaw:      session.RawAmount,
		USDTotal:    nanoamount.CentsToDollars(session.FiatTotalCents),
		XNOPrice:    session.ExchangeRate,
		ExpiresAt:   session.ExpiresAt,
		LineItems:   session.LineItems,
		Customer:    session.Customer,
		BlockHash:   session.TxHash,
	}
}
