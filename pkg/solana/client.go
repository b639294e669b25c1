package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
)

const (
	// CommitmentProcessed acknowledges the transaction reached a leader.
	CommitmentProcessed = "processed"
	// CommitmentConfirmed is the level purchases are confirmed at.
	CommitmentConfirmed = "confirmed"
	// CommitmentFinalized waits for supermajority finality.
	CommitmentFinalized = "finalized"

	responseBodyReadLimit int64 = 1024
)

var (
	errRPCURLRequired = errors.New("ledger rpc url is required")

	// ErrConfirmTimeout signals the signature never reached the requested
	// commitment before the deadline.
	ErrConfirmTimeout = errors.New("transaction confirmation timed out")

	// ErrTransactionFailed signals the ledger reported an execution error
	// for the transaction. Distinct from transport failures of the poll
	// itself; callers decide retryability on this distinction.
	ErrTransactionFailed = errors.New("transaction failed on chain")
)

// Client speaks JSON-RPC to a Solana node.
type Client struct {
	httpClient *http.Client
	rpcURL     string
	commitment string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCommitment overrides the default confirmation commitment level.
func WithCommitment(commitment string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(commitment)
		if trimmed != "" {
			c.commitment = trimmed
		}
	}
}

// NewClient builds a ledger client for the given RPC endpoint.
func NewClient(rpcURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(rpcURL)
	if trimmed == "" {
		return nil, errRPCURLRequired
	}

	client := &Client{
		rpcURL:     trimmed,
		commitment: CommitmentConfirmed,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return client, nil
}

// Commitment returns the configured confirmation level.
func (c *Client) Commitment() string {
	return c.commitment
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "ledger client not configured")
	}

	payload, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal rpc request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build rpc request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", method))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), fmt.Sprintf("%s request failed", method))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", method))
	}
	if rpcResp.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, rpcResp.Error, fmt.Sprintf("%s returned an error", method))
	}

	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("unmarshal %s result", method))
		}
	}
	return nil
}

// Ping verifies the node answers RPC requests.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetLatestBlockhash(ctx)
	return err
}

// GetLatestBlockhash fetches the blockhash new transactions must reference.
func (c *Client) GetLatestBlockhash(ctx context.Context) (string, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	params := []any{map[string]any{"commitment": c.commitment}}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return "", err
	}
	if result.Value.Blockhash == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "node returned an empty blockhash")
	}
	return result.Value.Blockhash, nil
}

// AccountInfo holds the subset of getAccountInfo the marketplace needs.
type AccountInfo struct {
	Lamports uint64 `json:"lamports"`
	Owner    string `json:"owner"`
}

// GetAccountInfo returns the account's info, or nil when the account does
// not exist on the ledger yet.
func (c *Client) GetAccountInfo(ctx context.Context, account PublicKey) (*AccountInfo, error) {
	var result struct {
		Value *AccountInfo `json:"value"`
	}
	params := []any{account.String(), map[string]any{"commitment": c.commitment, "encoding": "base64"}}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// GetBalance returns the lamport balance of the given account.
func (c *Client) GetBalance(ctx context.Context, account PublicKey) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	params := []any{account.String(), map[string]any{"commitment": c.commitment}}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// SendTransaction submits a base64-encoded signed transaction and returns
// its signature.
func (c *Client) SendTransaction(ctx context.Context, signedTx string) (string, error) {
	if strings.TrimSpace(signedTx) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "signed transaction is required")
	}
	var signature string
	params := []any{signedTx, map[string]any{"encoding": "base64"}}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// SignatureStatus is the per-signature confirmation state returned by the node.
type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	ConfirmationStatus string          `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}

// Failed reports whether the transaction was recorded with an error.
func (s *SignatureStatus) Failed() bool {
	return s != nil && len(s.Err) > 0 && string(s.Err) != "null"
}

// GetSignatureStatuses looks up the confirmation state of the given signatures.
// Entries are nil when the node has no record of the signature.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...string) ([]*SignatureStatus, error) {
	if len(signatures) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one signature is required")
	}
	var result struct {
		Value []*SignatureStatus `json:"value"`
	}
	params := []any{signatures, map[string]any{"searchTransactionHistory": true}}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// ConfirmSignature polls until the signature reaches the configured
// commitment, the transaction fails, or the timeout elapses.
func (c *Client) ConfirmSignature(ctx context.Context, signature string, poll, timeout time.Duration) error {
	if strings.TrimSpace(signature) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "signature is required")
	}
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		statuses, err := c.GetSignatureStatuses(ctx, signature)
		if err != nil {
			return err
		}
		if len(statuses) > 0 && statuses[0] != nil {
			status := statuses[0]
			if status.Failed() {
				return fmt.Errorf("%w: %s: %s", ErrTransactionFailed, signature, string(status.Err))
			}
			if commitmentReached(status.ConfirmationStatus, c.commitment) {
				return nil
			}
		}

		if timeout > 0 && time.Now().After(deadline) {
			return ErrConfirmTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func commitmentReached(got, want string) bool {
	rank := map[string]int{
		CommitmentProcessed: 1,
		CommitmentConfirmed: 2,
		CommitmentFinalized: 3,
	}
	gotRank, ok := rank[got]
	if !ok {
		return false
	}
	wantRank, ok := rank[want]
	if !ok {
		wantRank = rank[CommitmentConfirmed]
	}
	return gotRank >= wantRank
}
