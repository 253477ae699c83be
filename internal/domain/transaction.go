package domain

import "time"

type SourceView string

const (
	SourceReceivable SourceView = "receivable"
	SourceHistory    SourceView = "history"
)

// LedgerTransaction records a ledger entry that confirmed a payment session.
// The hash is unique across all sessions, so a transaction that has already
// confirmed one order can never be replayed against another.
type LedgerTransaction struct {
	TxHash       string
	OrderID      string
	AmountRaw    string
	PayerAddress string
	SourceView   SourceView
	MatchedAt    time.Time
}
