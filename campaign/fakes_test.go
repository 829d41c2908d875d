package campaign

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"crowdfund-tui/helpers"
	"crowdfund-tui/wallet"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/require"
)

var (
	sepolia      = big.NewInt(11155111)
	alice        = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob          = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	campaignAddr = common.HexToAddress("0x87204075Cb6392d20F9C9621536FbA857E38c5Af")
)

func ether(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := helpers.ParseEther(s)
	require.NoError(t, err)
	return v
}

type fakeProvider struct {
	mu          sync.Mutex
	accounts    []common.Address
	chainID     *big.Int
	requestErr  error
	networkErr  error
	requests    atomic.Int32
	transactors atomic.Int32
	feed        event.Feed
}

func newFakeProvider(accounts ...common.Address) *fakeProvider {
	return &fakeProvider{accounts: accounts, chainID: new(big.Int).Set(sepolia)}
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.requests.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return append([]common.Address(nil), p.accounts...), nil
}

func (p *fakeProvider) Network(ctx context.Context) (wallet.Network, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.networkErr != nil {
		return wallet.Network{}, p.networkErr
	}
	return wallet.Network{ChainID: new(big.Int).Set(p.chainID), Name: wallet.NetworkName(p.chainID)}, nil
}

func (p *fakeProvider) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	p.transactors.Add(1)
	return &bind.TransactOpts{From: account}, nil
}

func (p *fakeProvider) SubscribeEvents(ch chan<- wallet.Event) event.Subscription {
	return p.feed.Subscribe(ch)
}

func (p *fakeProvider) setChain(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chainID = big.NewInt(id)
}

func (p *fakeProvider) emit(ev wallet.Event) {
	p.feed.Send(ev)
}

// fakeCampaign keeps campaign state in memory and applies a request when its
// receipt is fetched
type fakeCampaign struct {
	mu       sync.Mutex
	goal     *big.Int
	raised   *big.Int
	locked   bool
	mine     map[common.Address]*big.Int
	has      map[common.Address]bool
	readErr  error
	sendErr  error
	status   uint64
	hold     chan struct{}
	queued   map[common.Hash]func()
	reads    atomic.Int32
	sends    atomic.Int32
	lastFrom common.Address
}

func newFakeCampaign(t *testing.T) *fakeCampaign {
	return &fakeCampaign{
		goal:   ether(t, "10"),
		raised: ether(t, "3"),
		mine:   map[common.Address]*big.Int{},
		has:    map[common.Address]bool{},
		status: types.ReceiptStatusSuccessful,
		queued: map[common.Hash]func(){},
	}
}

func (f *fakeCampaign) Address() common.Address { return campaignAddr }

func (f *fakeCampaign) read() error {
	f.reads.Add(1)
	return f.readErr
}

func (f *fakeCampaign) Goal(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(f.goal), nil
}

func (f *fakeCampaign) AmountRaised(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(f.raised), nil
}

func (f *fakeCampaign) Locked(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked, f.read()
}

func (f *fakeCampaign) AmountContributed(ctx context.Context, account common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.read(); err != nil {
		return nil, err
	}
	if v, ok := f.mine[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (f *fakeCampaign) HasContributed(ctx context.Context, account common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.has[account], f.read()
}

func (f *fakeCampaign) send(opts *bind.TransactOpts, apply func()) (*types.Transaction, error) {
	n := f.sends.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFrom = opts.From
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	to := campaignAddr
	tx := types.NewTx(&types.LegacyTx{Nonce: uint64(n), To: &to, Value: new(big.Int), Gas: 60000, GasPrice: big.NewInt(1)})
	f.queued[tx.Hash()] = apply
	return tx, nil
}

func (f *fakeCampaign) Contribute(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	from := opts.From
	return f.send(opts, func() {
		f.mine[from] = new(big.Int).Add(f.contribution(from), amount)
		f.has[from] = true
		f.raised = new(big.Int).Add(f.raised, amount)
	})
}

func (f *fakeCampaign) Refund(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	from := opts.From
	return f.send(opts, func() {
		f.mine[from] = new(big.Int).Sub(f.contribution(from), amount)
		f.raised = new(big.Int).Sub(f.raised, amount)
	})
}

func (f *fakeCampaign) contribution(a common.Address) *big.Int {
	if v, ok := f.mine[a]; ok {
		return v
	}
	return new(big.Int)
}

func (f *fakeCampaign) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	f.mu.Lock()
	hold := f.hold
	f.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	apply, ok := f.queued[tx.Hash()]
	if !ok {
		return nil, errors.New("unknown transaction")
	}
	delete(f.queued, tx.Hash())
	if f.status == types.ReceiptStatusSuccessful {
		apply()
	}
	return &types.Receipt{TxHash: tx.Hash(), Status: f.status, BlockNumber: big.NewInt(42)}, nil
}

func (f *fakeCampaign) set(fn func(f *fakeCampaign)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}
