// Package ethtools exposes Ethereum node queries as tools.
package ethtools

import (
	"context"
	"encoding/json"

	"github.com/toolbridge/toolbridge/internal/tools"
)

// Node is the subset of *ethrpc.Client the tools call.
type Node interface {
	BlockNumber(ctx context.Context) (uint64, error)
	Balance(ctx context.Context, address string) (float64, error)
	TransactionByHash(ctx context.Context, hash string) (json.RawMessage, error)
}

type noArgs struct{}

type accountArgs struct {
	Account string `json:"account" jsonschema_description:"The Ethereum account to get the balance of, which starts with 0x and is 42 characters long."`
}

type addressArgs struct {
	Address string `json:"address" jsonschema_description:"The address to get the balance of"`
}

type txHashArgs struct {
	TxHash string `json:"tx_hash" jsonschema_description:"The hash of the transaction"`
}

// Tool names.
const (
	LatestBlockNumber = "get_latest_block_number"
	AccountBalance    = "get_eth_account_balance"
	Balance           = "get_balance"
	TransactionByHash = "get_transaction_by_hash"
)

// Register adds every Ethereum tool to b.
func Register(b *tools.RegistryBuilder, node Node) *tools.RegistryBuilder {
	add := func(t tools.Tool, err error) {
		if err != nil {
			b.WithError(err)
			return
		}
		b.WithTool(t)
	}

	add(tools.NewTool(LatestBlockNumber,
		"Get the latest block number on the Ethereum blockchain.",
		func(ctx context.Context, _ noArgs) (uint64, error) {
			return node.BlockNumber(ctx)
		}))

	add(tools.NewTool(AccountBalance,
		"Get the balance of an Ethereum account.",
		func(ctx context.Context, a accountArgs) (float64, error) {
			return node.Balance(ctx, a.Account)
		}))

	add(tools.NewTool(Balance,
		"Get the balance of an address on a network.",
		func(ctx context.Context, a addressArgs) (float64, error) {
			return node.Balance(ctx, a.Address)
		}))

	add(tools.NewTool(TransactionByHash,
		"Get a transaction by hash.",
		func(ctx context.Context, a txHashArgs) (json.RawMessage, error) {
			return node.TransactionByHash(ctx, a.TxHash)
		}))

	return b
}

// Registry builds a registry holding only the Ethereum tools.
func Registry(node Node) (*tools.Registry, error) {
	return Register(tools.NewRegistryBuilder(), node).Build()
}
