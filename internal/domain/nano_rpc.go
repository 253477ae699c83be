package domain

// Wire types for the Nano node RPC. Amounts are raw base-unit integers
// serialized as decimal strings; the node returns the literal string "" in
// place of an empty blocks map or history array, which the RPC client
// normalizes away before these types reach anyone else.

// ReceivableEntry is one unpocketed send block addressed to the merchant
// account.
type ReceivableEntry struct {
	Hash      string
	AmountRaw string
	Source    string
}

// HistoryEntry is one confirmed entry from account_history.
type HistoryEntry struct {
	Type           string `json:"type"`
	Account        string `json:"account"`
	AmountRaw      string `json:"amount"`
	Hash           string `json:"hash"`
	LocalTimestamp string `json:"local_timestamp"`
}
