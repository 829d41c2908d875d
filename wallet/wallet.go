// Package wallet supplies accounts, the connected network and transaction
// signers, and notifies subscribers when either changes.
package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

var (
	// ErrUnavailable means there is no usable provider (no keys or no RPC)
	ErrUnavailable = errors.New("wallet provider unavailable")
	// ErrUserRejected means the user declined the account access request
	ErrUserRejected = errors.New("user rejected the request")
	// ErrUnknownAccount means the provider holds no key for the account
	ErrUnknownAccount = errors.New("unknown account")
)

// Network identifies the chain the provider is connected to
type Network struct {
	ChainID *big.Int
	Name    string
}

// EventKind distinguishes provider notifications
type EventKind int

const (
	// AccountsChanged carries the new account list; empty means disconnected
	AccountsChanged EventKind = iota
	// ChainChanged carries the new chain id
	ChainChanged
)

func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	}
	return "unknown"
}

// Event is a provider notification
type Event struct {
	Kind     EventKind
	Accounts []common.Address
	ChainID  *big.Int
}

// Provider is the wallet surface the campaign controller consumes
type Provider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	Network(ctx context.Context) (Network, error)
	Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
	SubscribeEvents(ch chan<- Event) event.Subscription
}

// Approver decides whether the listed accounts may be exposed to the client.
// Returning ErrUserRejected declines the request.
type Approver func(ctx context.Context, accounts []common.Address) error

// AutoApprove approves every request
func AutoApprove(context.Context, []common.Address) error { return nil }

// Deny declines every request
func Deny(context.Context, []common.Address) error { return ErrUserRejected }

// NetworkName returns a display name for well-known chain ids
func NetworkName(chainID *big.Int) string {
	if chainID == nil {
		return "unknown"
	}
	switch chainID.Uint64() {
	case 1:
		return "mainnet"
	case 11155111:
		return "sepolia"
	case 17000:
		return "holesky"
	case 560048:
		return "hoodi"
	case 1337, 31337:
		return "dev"
	}
	return "chain " + chainID.String()
}
