package chainrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"lmx_presale/internal/model"
	"lmx_presale/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

var (
	ErrTxNotFound       = errors.New("transaction not found on chain")
	ErrUnsupportedChain = errors.New("unsupported chain")
)

// VerifiedTransfer is the oracle's answer: who signed the transaction and
// how much native currency it moved.
type VerifiedTransfer struct {
	Sender string
	Amount decimal.Decimal
}

type Verifier interface {
	VerifyTransfer(ctx context.Context, chain model.Chain, txReference string) (*VerifiedTransfer, error)
}

type Config struct {
	EVMEndpoint    string `json:"evmEndpoint"`
	SolanaEndpoint string `json:"solanaEndpoint"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// Client verifies transactions against public JSON-RPC endpoints. Every
// call is bounded by the configured timeout.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) VerifyTransfer(ctx context.Context, chain model.Chain, txReference string) (*VerifiedTransfer, error) {
	start := time.Now()
	var (
		transfer *VerifiedTransfer
		err      error
	)

	switch chain {
	case model.ChainEVM:
		transfer, err = c.verifyEVM(ctx, txReference)
	case model.ChainSolana:
		transfer, err = c.verifySolana(ctx, txReference)
	default:
		return nil, ErrUnsupportedChain
	}

	metrics.ChainRPCLatency.WithLabelValues(string(chain)).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ChainRPCCallsTotal.WithLabelValues(string(chain), result).Inc()

	return transfer, err
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, endpoint, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpc call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc call returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return ErrTxNotFound
	}

	return json.Unmarshal(rpcResp.Result, result)
}

type evmTransaction struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

func (c *Client) verifyEVM(ctx context.Context, txHash string) (*VerifiedTransfer, error) {
	var tx evmTransaction
	err := c.call(ctx, c.cfg.EVMEndpoint, "eth_getTransactionByHash", []any{txHash}, &tx)
	if err != nil {
		return nil, err
	}

	wei, ok := new(big.Int).SetString(strings.TrimPrefix(tx.Value, "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("malformed transaction value %q", tx.Value)
	}

	return &VerifiedTransfer{
		Sender: tx.From,
		Amount: decimal.NewFromBigInt(wei, -18),
	}, nil
}

type solanaTransaction struct {
	Meta struct {
		PreBalances  []int64 `json:"preBalances"`
		PostBalances []int64 `json:"postBalances"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys []string `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

func (c *Client) verifySolana(ctx context.Context, signature string) (*VerifiedTransfer, error) {
	params := []any{
		signature,
		map[string]any{"encoding": "json", "commitment": "finalized"},
	}

	var tx solanaTransaction
	err := c.call(ctx, c.cfg.SolanaEndpoint, "getTransaction", params, &tx)
	if err != nil {
		return nil, err
	}

	if len(tx.Transaction.Message.AccountKeys) == 0 {
		return nil, fmt.Errorf("transaction has no account keys")
	}
	if len(tx.Meta.PreBalances) == 0 || len(tx.Meta.PostBalances) == 0 {
		return nil, fmt.Errorf("transaction has no balance metadata")
	}

	// The fee payer's balance delta covers the transfer plus fees; good
	// enough for an amount-moved check on the signer's side.
	lamports := tx.Meta.PreBalances[0] - tx.Meta.PostBalances[0]
	if lamports < 0 {
		lamports = 0
	}

	return &VerifiedTransfer{
		Sender: tx.Transaction.Message.AccountKeys[0],
		Amount: decimal.New(lamports, -9),
	}, nil
}
