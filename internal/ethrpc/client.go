// Package ethrpc is a minimal Ethereum JSON-RPC client over HTTP.
package ethrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/toolbridge/toolbridge/internal/schema"
)

// DefaultEndpoint is a public mainnet node.
const DefaultEndpoint = "https://ethereum.publicnode.com"

const maxErrorBody = 4096

var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Client calls one Ethereum node.
type Client struct {
	endpoint   string
	httpClient *http.Client
	nextID     atomic.Int64
}

// New returns a client for endpoint. A zero timeout means 30 seconds.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{endpoint: endpoint, httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) Endpoint() string { return c.endpoint }

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("ethereum node error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Call invokes method and returns the raw result. A non-200 answer becomes
// an *schema.UpstreamTransportError carrying the body.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	data, err := json.Marshal(request{JSONRPC: "2.0", Method: method, Params: params, ID: c.nextID.Add(1)})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &schema.UpstreamTransportError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	return out.Result, nil
}

// BlockNumber returns the number of the most recent block.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	raw, err := c.Call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	n, err := decodeQuantity(raw)
	if err != nil {
		return 0, fmt.Errorf("parse block number: %w", err)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("block number %s overflows uint64", n)
	}
	return n.Uint64(), nil
}

// BalanceWei returns the balance of address at the latest block.
func (c *Client) BalanceWei(ctx context.Context, address string) (*big.Int, error) {
	raw, err := c.Call(ctx, "eth_getBalance", address, "latest")
	if err != nil {
		return nil, err
	}
	wei, err := decodeQuantity(raw)
	if err != nil {
		return nil, fmt.Errorf("parse balance %s: %w", raw, err)
	}
	return wei, nil
}

// Balance returns the balance of address in ether.
func (c *Client) Balance(ctx context.Context, address string) (float64, error) {
	wei, err := c.BalanceWei(ctx, address)
	if err != nil {
		return 0, err
	}
	return WeiToEther(wei), nil
}

// TransactionByHash returns the transaction object, or JSON null when the
// node does not know the hash.
func (c *Client) TransactionByHash(ctx context.Context, hash string) (json.RawMessage, error) {
	return c.Call(ctx, "eth_getTransactionByHash", hash)
}

// ParseQuantity decodes a 0x-prefixed hex quantity.
func ParseQuantity(s string) (*big.Int, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok {
		digits, ok = strings.CutPrefix(s, "0X")
	}
	if !ok || digits == "" || strings.ContainsAny(digits[:1], "+-") {
		return nil, fmt.Errorf("quantity %q is not 0x-prefixed hex", s)
	}
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("quantity %q is not valid hex", s)
	}
	return n, nil
}

// WeiToEther converts wei to ether.
func WeiToEther(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEther).Float64()
	return f
}

func decodeQuantity(raw json.RawMessage) (*big.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("result %s is not a string", raw)
	}
	return ParseQuantity(s)
}
