package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps an Ethereum RPC client
type Client struct {
	*ethclient.Client
	URL string
}

// ConnectResult holds the result of an RPC connection attempt
type ConnectResult struct {
	Client *Client
	Error  error
}

// Connect attempts to connect to an Ethereum RPC endpoint
func Connect(url string) ConnectResult {
	return ConnectWithTimeout(url, 8*time.Second)
}

// ConnectWithTimeout attempts to connect with a custom timeout
func ConnectWithTimeout(url string, timeout time.Duration) ConnectResult {
	if url == "" {
		return ConnectResult{Error: errors.New("no RPC URL configured (set ETH_RPC_URL)")}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return ConnectResult{Client: nil, Error: err}
	}

	return ConnectResult{
		Client: &Client{
			Client: client,
			URL:    url,
		},
		Error: nil,
	}
}

// AccountBalance holds the ether balance of one account
type AccountBalance struct {
	Address    common.Address
	Wei        *big.Int
	LoadedAt   time.Time
	ErrMessage string
}

// LoadBalances fetches the ether balance of each address
func LoadBalances(client *Client, addrs []common.Address) []AccountBalance {
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	out := make([]AccountBalance, 0, len(addrs))
	for _, addr := range addrs {
		b := AccountBalance{Address: addr, Wei: big.NewInt(0), LoadedAt: time.Now()}
		if client == nil || client.Client == nil {
			b.ErrMessage = "No RPC client (set ETH_RPC_URL)."
			out = append(out, b)
			continue
		}
		wei, err := client.BalanceAt(ctx, addr, nil)
		if err != nil {
			b.ErrMessage = "Failed to load ETH balance."
		} else {
			b.Wei = wei
		}
		out = append(out, b)
	}
	return out
}

// ReceiptReader is the part of ethclient needed to watch for inclusion
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ErrReceiptTimeout is returned when the wait context ends before inclusion
var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

// WaitForReceipt polls until the transaction is included or ctx ends.
// A reverted transaction is returned with its receipt; callers check Status.
func WaitForReceipt(ctx context.Context, client ReceiptReader, txHash common.Hash, interval time.Duration) (*types.Receipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// ethereum.NotFound means not mined yet; other errors are polled through until the deadline
		receipt, err := client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrReceiptTimeout, txHash.Hex())
		case <-ticker.C:
		}
	}
}
