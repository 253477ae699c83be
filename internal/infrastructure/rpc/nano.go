package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/moonrisegoods/nps/internal/domain"
	"github.com/moonrisegoods/nps/pkg/config"
)

// NanoClient talks to a Nano node over its JSON RPC. Every call is a POST of
// {"action": ...} to the node URL; failures carry the node's error string.
type NanoClient struct {
	nodeURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewNanoClient(cfg *config.NanoConfig, logger zerolog.Logger) *NanoClient {
	return &NanoClient{
		nodeURL: cfg.NodeURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.With().Str("component", "nano_rpc").Logger(),
	}
}

type receivableBlock struct {
	Amount string `json:"amount"`
	Source string `json:"source"`
}

// Receivable lists unpocketed send blocks addressed to the account, above
// the raw threshold, sorted by the node in descending amount order.
func (c *NanoClient) Receivable(ctx context.Context, account string, count int, thresholdRaw string) ([]domain.ReceivableEntry, error) {
	request := map[string]any{
		"action":                 "receivable",
		"account":                account,
		"count":                  count,
		"source":                 "true",
		"sorting":                "true",
		"include_only_confirmed": "true",
	}
	if thresholdRaw != "" {
		request["threshold"] = thresholdRaw
	}

	body, err := c.call(ctx, request)
	if err != nil {
		return nil, err
	}

	var response struct {
		Blocks json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse receivable response: %w", err)
	}

	blocks := map[string]receivableBlock{}
	// The node returns "blocks": "" when nothing is receivable.
	if len(response.Blocks) > 0 && !bytes.Equal(response.Blocks, []byte(`""`)) {
		if err := json.Unmarshal(response.Blocks, &blocks); err != nil {
			return nil, fmt.Errorf("failed to parse receivable blocks: %w", err)
		}
	}

	entries := make([]domain.ReceivableEntry, 0, len(blocks))
	for hash, block := range blocks {
		entries = append(entries, domain.ReceivableEntry{
			Hash:      hash,
			AmountRaw: block.Amount,
			Source:    block.Source,
		})
	}

	// The node sorts by amount but the JSON object loses that order; restore
	// it so matching is deterministic across calls. Raw amounts are plain
	// decimal integers, so longer strings are larger.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].AmountRaw, entries[j].AmountRaw
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		if a != b {
			return a > b
		}
		return entries[i].Hash < entries[j].Hash
	})

	c.logger.Debug().
		Str("account", account).
		Int("entry_count", len(entries)).
		Msg("Fetched receivable blocks")
	return entries, nil
}

// AccountHistory lists the most recent confirmed entries on the account,
// newest first as the node returns them.
func (c *NanoClient) AccountHistory(ctx context.Context, account string, count int) ([]domain.HistoryEntry, error) {
	request := map[string]any{
		"action":  "account_history",
		"account": account,
		"count":   count,
	}

	body, err := c.call(ctx, request)
	if err != nil {
		return nil, err
	}

	var response struct {
		History json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse account_history response: %w", err)
	}

	var history []domain.HistoryEntry
	// Accounts with no confirmed blocks come back as "history": "".
	if len(response.History) > 0 && !bytes.Equal(response.History, []byte(`""`)) {
		if err := json.Unmarshal(response.History, &history); err != nil {
			return nil, fmt.Errorf("failed to parse history entries: %w", err)
		}
	}

	c.logger.Debug().
		Str("account", account).
		Int("entry_count", len(history)).
		Msg("Fetched account history")
	return history, nil
}

func (c *NanoClient) call(ctx context.Context, request map[string]any) ([]byte, error) {
	bodyBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.nodeURL, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("node request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(body)).
			Str("action", fmt.Sprint(request["action"])).
			Msg("Nano RPC request failed")
		return nil, fmt.Errorf("node request failed with status: %s", resp.Status)
	}

	// Node-level errors come back as 200 with an error field.
	var rpcErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcErr); err == nil && rpcErr.Error != "" {
		return nil, fmt.Errorf("node returned error: %s", rpcErr.Error)
	}

	return body, nil
}
