package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
)

// ChainReader reports the chain id of the connected node
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Local is a Provider backed by private keys held in process.
// The active account is always reported first.
type Local struct {
	mu        sync.Mutex
	chain     ChainReader
	keys      []*ecdsa.PrivateKey
	addrs     []common.Address
	active    int
	connected bool
	approve   Approver
	lastChain *big.Int

	feed  event.Feed
	scope event.SubscriptionScope
}

// Option configures a Local provider
type Option func(*Local)

// WithApprover sets the account access prompt
func WithApprover(a Approver) Option {
	return func(l *Local) { l.approve = a }
}

// NewLocal creates a provider for keys, reading the network from chain
func NewLocal(chain ChainReader, keys []*ecdsa.PrivateKey, opts ...Option) *Local {
	l := &Local{
		chain:   chain,
		keys:    keys,
		approve: AutoApprove,
	}
	for _, k := range keys {
		l.addrs = append(l.addrs, crypto.PubkeyToAddress(k.PublicKey))
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadKeys parses hex-encoded secp256k1 private keys
func LoadKeys(hexKeys []string) ([]*ecdsa.PrivateKey, error) {
	var keys []*ecdsa.PrivateKey
	for i, h := range hexKeys {
		h = strings.TrimPrefix(strings.TrimSpace(h), "0x")
		if h == "" {
			continue
		}
		k, err := crypto.HexToECDSA(h)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key #%d: %w", i+1, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// LoadKeystore decrypts a go-ethereum keystore v3 file
func LoadKeystore(path, passphrase string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore %s: %w", path, err)
	}
	key, err := keystore.DecryptKey(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore %s: %w", path, err)
	}
	return key.PrivateKey, nil
}

// SetApprover replaces the account access prompt
func (l *Local) SetApprover(a Approver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.approve = a
}

// SetChain points the provider at a different node.
// A different chain id is reported by the next Watch tick.
func (l *Local) SetChain(chain ChainReader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chain = chain
}

// Accounts returns every account the provider can sign for, in key order
func (l *Local) Accounts() []common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]common.Address(nil), l.addrs...)
}

// Active returns the currently selected account
func (l *Local) Active() (common.Address, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.addrs) == 0 {
		return common.Address{}, false
	}
	return l.addrs[l.active], true
}

// RequestAccounts asks the approver for access and returns the accounts
func (l *Local) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	l.mu.Lock()
	if l.chain == nil || len(l.keys) == 0 {
		l.mu.Unlock()
		return nil, ErrUnavailable
	}
	accounts := l.orderedLocked()
	approve := l.approve
	l.mu.Unlock()

	if approve != nil {
		if err := approve(ctx, accounts); err != nil {
			if errors.Is(err, ErrUserRejected) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrUserRejected, err)
		}
	}

	l.mu.Lock()
	l.connected = true
	l.mu.Unlock()
	return accounts, nil
}

// Network reads the chain id from the node
func (l *Local) Network(ctx context.Context) (Network, error) {
	l.mu.Lock()
	chain := l.chain
	l.mu.Unlock()
	if chain == nil {
		return Network{}, ErrUnavailable
	}

	id, err := chain.ChainID(ctx)
	if err != nil {
		return Network{}, fmt.Errorf("failed to get chain ID: %w", err)
	}

	l.mu.Lock()
	l.lastChain = id
	l.mu.Unlock()
	return Network{ChainID: id, Name: NetworkName(id)}, nil
}

// Transactor returns signing options for account on chainID
func (l *Local) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	l.mu.Lock()
	var key *ecdsa.PrivateKey
	for i, a := range l.addrs {
		if a == account {
			key = l.keys[i]
			break
		}
	}
	l.mu.Unlock()
	if key == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// SubscribeEvents delivers AccountsChanged and ChainChanged notifications to ch
func (l *Local) SubscribeEvents(ch chan<- Event) event.Subscription {
	return l.scope.Track(l.feed.Subscribe(ch))
}

// SelectAccount makes account the active one and notifies subscribers
func (l *Local) SelectAccount(account common.Address) error {
	l.mu.Lock()
	idx := -1
	for i, a := range l.addrs {
		if a == account {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}
	l.active = idx
	connected := l.connected
	accounts := l.orderedLocked()
	l.mu.Unlock()

	if connected {
		l.feed.Send(Event{Kind: AccountsChanged, Accounts: accounts})
	}
	return nil
}

// Disconnect revokes account access; subscribers see an empty account list
func (l *Local) Disconnect() {
	l.mu.Lock()
	was := l.connected
	l.connected = false
	l.mu.Unlock()

	if was {
		l.feed.Send(Event{Kind: AccountsChanged})
	}
}

// Watch polls the node's chain id and emits ChainChanged when it moves.
// It returns when ctx is cancelled.
func (l *Local) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.checkChain(ctx)
		}
	}
}

func (l *Local) checkChain(ctx context.Context) {
	l.mu.Lock()
	chain := l.chain
	l.mu.Unlock()
	if chain == nil {
		return
	}

	id, err := chain.ChainID(ctx)
	if err != nil {
		return
	}

	l.mu.Lock()
	prev := l.lastChain
	l.lastChain = id
	l.mu.Unlock()

	if prev != nil && prev.Cmp(id) != 0 {
		l.feed.Send(Event{Kind: ChainChanged, ChainID: id})
	}
}

// Close ends every subscription
func (l *Local) Close() {
	l.scope.Close()
}

func (l *Local) orderedLocked() []common.Address {
	if len(l.addrs) == 0 {
		return nil
	}
	out := make([]common.Address, 0, len(l.addrs))
	out = append(out, l.addrs[l.active])
	for i, a := range l.addrs {
		if i != l.active {
			out = append(out, a)
		}
	}
	return out
}
