package rpc

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestConnect(t *testing.T) {
	// Get RPC URL from environment
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETH_RPC_URL not set, skipping connection test")
	}

	t.Run("successful connection", func(t *testing.T) {
		result := Connect(rpcURL)
		if result.Error != nil {
			t.Fatalf("Failed to connect to RPC: %v", result.Error)
		}
		if result.Client == nil {
			t.Fatal("Client is nil despite no error")
		}
		if result.Client.URL != rpcURL {
			t.Errorf("Expected URL %s, got %s", rpcURL, result.Client.URL)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		chainID, err := result.Client.ChainID(ctx)
		if err != nil {
			t.Errorf("Failed to get chain ID: %v", err)
		} else {
			t.Logf("Connected to chain ID: %s", chainID.String())
		}
	})

	t.Run("balances", func(t *testing.T) {
		result := Connect(rpcURL)
		if result.Error != nil {
			t.Fatalf("Failed to connect: %v", result.Error)
		}
		addr := common.HexToAddress("0x87204075Cb6392d20F9C9621536FbA857E38c5Af")
		balances := LoadBalances(result.Client, []common.Address{addr})
		if len(balances) != 1 {
			t.Fatalf("Expected 1 balance, got %d", len(balances))
		}
		if balances[0].ErrMessage != "" {
			t.Logf("Got error message (may be due to rate limiting): %s", balances[0].ErrMessage)
		}
	})
}

func TestConnectWithoutURL(t *testing.T) {
	result := Connect("")
	if result.Error == nil {
		t.Fatal("Expected error for empty URL")
	}
	if !strings.Contains(result.Error.Error(), "ETH_RPC_URL") {
		t.Errorf("Expected hint about ETH_RPC_URL, got: %v", result.Error)
	}
}

func TestLoadBalancesNilClient(t *testing.T) {
	addr := common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
	balances := LoadBalances(nil, []common.Address{addr})

	if len(balances) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(balances))
	}
	if !strings.Contains(balances[0].ErrMessage, "No RPC client") {
		t.Errorf("Expected 'No RPC client' error, got: %s", balances[0].ErrMessage)
	}
	if balances[0].Wei == nil || balances[0].Wei.Sign() != 0 {
		t.Errorf("Expected zero balance, got %v", balances[0].Wei)
	}
}

type pollingReader struct {
	calls   atomic.Int32
	readyAt int32
	status  uint64
}

func (p *pollingReader) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	n := p.calls.Add(1)
	if n < p.readyAt {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: hash, Status: p.status}, nil
}

func TestWaitForReceipt(t *testing.T) {
	hash := common.HexToHash("0x01")

	t.Run("mined after polling", func(t *testing.T) {
		r := &pollingReader{readyAt: 3, status: types.ReceiptStatusSuccessful}
		receipt, err := WaitForReceipt(context.Background(), r, hash, time.Millisecond)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			t.Errorf("Expected successful receipt, got status %d", receipt.Status)
		}
		if got := r.calls.Load(); got != 3 {
			t.Errorf("Expected 3 polls, got %d", got)
		}
	})

	t.Run("reverted receipt is returned", func(t *testing.T) {
		r := &pollingReader{readyAt: 1, status: types.ReceiptStatusFailed}
		receipt, err := WaitForReceipt(context.Background(), r, hash, time.Millisecond)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if receipt.Status != types.ReceiptStatusFailed {
			t.Errorf("Expected failed receipt, got status %d", receipt.Status)
		}
	})

	t.Run("deadline", func(t *testing.T) {
		r := &pollingReader{readyAt: 1 << 30}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := WaitForReceipt(ctx, r, hash, time.Millisecond)
		if !errors.Is(err, ErrReceiptTimeout) {
			t.Fatalf("Expected ErrReceiptTimeout, got %v", err)
		}
	})
}

func TestGenerateQRCode(t *testing.T) {
	if GenerateQRCode("") != "" {
		t.Error("Expected empty QR for empty data")
	}
	qr := GenerateQRCode("https://sepolia.etherscan.io/address/0x87204075Cb6392d20F9C9621536FbA857E38c5Af")
	if strings.Count(qr, "\n") < 10 {
		t.Errorf("QR code looks too small:\n%s", qr)
	}
}
