package ethrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/toolbridge/toolbridge/internal/schema"
)

type nodeCall struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// fakeNode answers every request with the given status and body and
// records the decoded calls.
func fakeNode(t *testing.T, status int, body string) (*Client, *[]nodeCall) {
	t.Helper()
	var calls []nodeCall
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		data, _ := io.ReadAll(r.Body)
		var c nodeCall
		if err := json.Unmarshal(data, &c); err != nil {
			t.Errorf("request is not JSON: %v", err)
		}
		calls = append(calls, c)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return New(ts.URL, 0), &calls
}

func TestBlockNumber(t *testing.T) {
	c, calls := fakeNode(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":"0x1312d00"}`)

	n, err := c.BlockNumber(context.Background())
	if err != nil {
		t.Fatalf("BlockNumber() failed: %v", err)
	}
	if n != 20000000 {
		t.Errorf("BlockNumber() = %d, want 20000000", n)
	}
	want := []nodeCall{{Method: "eth_blockNumber", Params: []any{}}}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("calls = %+v, want %+v", *calls, want)
	}
}

func TestBalance(t *testing.T) {
	// 1.5 ether
	c, calls := fakeNode(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":"0x14d1120d7b160000"}`)

	eth, err := c.Balance(context.Background(), "0x8C8D7C46219D9205f056f28fee5950aD564d7465")
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if eth != 1.5 {
		t.Errorf("Balance() = %v, want 1.5", eth)
	}
	want := []nodeCall{{Method: "eth_getBalance", Params: []any{"0x8C8D7C46219D9205f056f28fee5950aD564d7465", "latest"}}}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("calls = %+v, want %+v", *calls, want)
	}
}

func TestTransactionByHash(t *testing.T) {
	c, _ := fakeNode(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"hash":"0xd542","blockNumber":"0x10"}}`)

	tx, err := c.TransactionByHash(context.Background(), "0xd542")
	if err != nil {
		t.Fatalf("TransactionByHash() failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(tx, &got); err != nil {
		t.Fatalf("result is not an object: %s", tx)
	}
	if got["hash"] != "0xd542" {
		t.Errorf("hash = %q", got["hash"])
	}
}

func TestCall_Non200(t *testing.T) {
	c, _ := fakeNode(t, http.StatusTooManyRequests, `{"message":"rate limited"}`)

	_, err := c.BlockNumber(context.Background())
	var upstream *schema.UpstreamTransportError
	if !errors.As(err, &upstream) {
		t.Fatalf("BlockNumber() error = %v, want UpstreamTransportError", err)
	}
	if upstream.StatusCode != http.StatusTooManyRequests || upstream.Body != `{"message":"rate limited"}` {
		t.Errorf("UpstreamTransportError = %+v", upstream)
	}
	if schema.KindOf(err) != schema.KindUpstreamTransport {
		t.Errorf("KindOf() = %q", schema.KindOf(err))
	}
}

func TestCall_NodeError(t *testing.T) {
	c, _ := fakeNode(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid argument 0: hex string has length 3"}}`)

	_, err := c.Balance(context.Background(), "0x1")
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32602 {
		t.Errorf("Balance() error = %v, want RPCError -32602", err)
	}
}

func TestBalance_BadResult(t *testing.T) {
	for _, body := range []string{
		`{"result":"zz"}`,
		`{"result":12}`,
		`{"result":"0x"}`,
		`{"result":null}`,
	} {
		c, _ := fakeNode(t, http.StatusOK, body)
		if _, err := c.Balance(context.Background(), "0x1"); err == nil {
			t.Errorf("Balance() with %s: expected error", body)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"0x0", 0, false},
		{"0xff", 255, false},
		{"0XFF", 255, false},
		{"ff", 0, true},
		{"0x", 0, true},
		{"0x-1", 0, true},
		{"0xg", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseQuantity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQuantity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got.Int64() != tt.want {
			t.Errorf("ParseQuantity(%q) = %s, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWeiToEther(t *testing.T) {
	wei, _ := new(big.Int).SetString("2500000000000000000", 10)
	if got := WeiToEther(wei); got != 2.5 {
		t.Errorf("WeiToEther() = %v, want 2.5", got)
	}
	if got := WeiToEther(big.NewInt(0)); got != 0 {
		t.Errorf("WeiToEther(0) = %v, want 0", got)
	}
}
