package ethtools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/toolbridge/toolbridge/internal/ethrpc"
	"github.com/toolbridge/toolbridge/internal/schema"
)

type fakeNode struct {
	block    uint64
	balances map[string]float64
	err      error
}

func (n *fakeNode) BlockNumber(context.Context) (uint64, error) { return n.block, n.err }

func (n *fakeNode) Balance(_ context.Context, address string) (float64, error) {
	return n.balances[address], n.err
}

func (n *fakeNode) TransactionByHash(_ context.Context, hash string) (json.RawMessage, error) {
	return json.RawMessage(`{"hash":"` + hash + `"}`), n.err
}

func TestRegistry_Descriptors(t *testing.T) {
	reg, err := Registry(&fakeNode{})
	if err != nil {
		t.Fatalf("Registry() failed: %v", err)
	}

	var names []string
	for _, d := range reg.List() {
		names = append(names, d.Name)
	}
	want := []string{LatestBlockNumber, AccountBalance, Balance, TransactionByHash}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}

	block, _ := reg.Lookup(LatestBlockNumber)
	if block.Parameters.Len() != 0 || len(block.Parameters.Required) != 0 {
		t.Errorf("%s parameters = %v", LatestBlockNumber, block.Parameters.Names())
	}
	tx, _ := reg.Lookup(TransactionByHash)
	if !reflect.DeepEqual(tx.Parameters.Required, []string{"tx_hash"}) {
		t.Errorf("%s required = %v", TransactionByHash, tx.Parameters.Required)
	}
	account, _ := reg.Lookup(AccountBalance)
	if p, _ := account.Parameters.Property("account"); p.Type != "string" || p.Description == "" {
		t.Errorf("account property = %+v", p)
	}
}

func TestTools_Invoke(t *testing.T) {
	node := &fakeNode{block: 42, balances: map[string]float64{"0xabc": 1.25}}
	reg, err := Registry(node)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		tool string
		args map[string]any
		want any
	}{
		{LatestBlockNumber, map[string]any{}, uint64(42)},
		{AccountBalance, map[string]any{"account": "0xabc"}, 1.25},
		{Balance, map[string]any{"address": "0xabc"}, 1.25},
		{TransactionByHash, map[string]any{"tx_hash": "0xd5"}, json.RawMessage(`{"hash":"0xd5"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			h, err := reg.Resolve(tt.tool)
			if err != nil {
				t.Fatal(err)
			}
			got, err := h.Invoke(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Invoke() failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Invoke() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTools_NodeErrorPassesThrough(t *testing.T) {
	cause := &schema.UpstreamTransportError{Endpoint: "node", StatusCode: 503, Body: "down"}
	reg, err := Registry(&fakeNode{err: cause})
	if err != nil {
		t.Fatal(err)
	}
	h, _ := reg.Resolve(LatestBlockNumber)
	if _, err := h.Invoke(context.Background(), nil); !errors.Is(err, cause) {
		t.Errorf("Invoke() error = %v, want %v", err, cause)
	}
}

func TestTools_AgainstRPCNode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var req struct {
			Method string `json:"method"`
		}
		_ = json.Unmarshal(data, &req)
		if req.Method != "eth_getBalance" {
			t.Errorf("method = %q", req.Method)
		}
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":"0xde0b6b3a7640000"}`)
	}))
	defer ts.Close()

	reg, err := Registry(ethrpc.New(ts.URL, 0))
	if err != nil {
		t.Fatal(err)
	}
	h, _ := reg.Resolve(Balance)
	got, err := h.Invoke(context.Background(), map[string]any{"address": "0x8C8D7C46219D9205f056f28fee5950aD564d7465"})
	if err != nil {
		t.Fatalf("Invoke() failed: %v", err)
	}
	res := schema.InvocationResult{Value: got}
	if res.Text() != "1" {
		t.Errorf("Text() = %q, want 1", res.Text())
	}
}
