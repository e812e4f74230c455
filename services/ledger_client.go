// game-room-system/services/ledger_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Transaction reasons understood by the wallet service.
const (
	TxReasonMatchEntry    = "match_entry"
	TxReasonGameWinReward = "game_win_reward"
)

// LedgerClient is the boundary to the wallet service. Each call is
// atomic on the wallet side; an error means the operation was NOT
// applied. Calls must never run inside a Room Store transaction — the
// allocator debits before opening one, the settlement engine credits
// after committing one.
type LedgerClient interface {
	Debit(ctx context.Context, userID string, amount float64, currency, reason string) (newBalance float64, err error)
	Credit(ctx context.Context, userID string, amount float64, currency, reason string) (newBalance float64, err error)
}

type WalletServiceClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewWalletServiceClient(baseURL, token string) *WalletServiceClient {
	return &WalletServiceClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type walletTxRequest struct {
	UserID      string  `json:"user_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Operation   string  `json:"operation"` // debit | credit
	Reason      string  `json:"reason"`
	ReferenceID string  `json:"reference_id"`
}

type walletTxResponse struct {
	OK         bool    `json:"ok"`
	NewBalance float64 `json:"new_balance"`
	Error      string  `json:"error,omitempty"`
}

func (c *WalletServiceClient) Debit(ctx context.Context, userID string, amount float64, currency, reason string) (float64, error) {
	return c.transact(ctx, userID, amount, currency, "debit", reason)
}

func (c *WalletServiceClient) Credit(ctx context.Context, userID string, amount float64, currency, reason string) (float64, error) {
	return c.transact(ctx, userID, amount, currency, "credit", reason)
}

// transact calls POST /wallet/transactions on the wallet service.
func (c *WalletServiceClient) transact(ctx context.Context, userID string, amount float64, currency, operation, reason string) (float64, error) {
	url := fmt.Sprintf("%s/wallet/transactions", c.BaseURL)

	reqBody := walletTxRequest{
		UserID:      userID,
		Amount:      amount,
		Currency:    currency,
		Operation:   operation,
		Reason:      reason,
		ReferenceID: uuid.NewString(),
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Printf("WalletService %s for user %s failed: %v", operation, userID, err)
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusPaymentRequired:
		return 0, ErrInsufficientFunds
	case resp.StatusCode == http.StatusForbidden:
		return 0, ErrUserBlocked
	case resp.StatusCode >= 500:
		log.Printf("WalletService returned %d: %s", resp.StatusCode, string(body))
		return 0, fmt.Errorf("%w: status %d", ErrLedgerUnavailable, resp.StatusCode)
	default:
		return 0, fmt.Errorf("wallet %s rejected: status %d: %s", operation, resp.StatusCode, string(body))
	}

	var out walletTxResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to decode wallet response: %w", err)
	}
	if !out.OK {
		return 0, fmt.Errorf("wallet %s not applied: %s", operation, out.Error)
	}
	return out.NewBalance, nil
}
