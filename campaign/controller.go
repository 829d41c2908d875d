// Package campaign drives interaction with a single crowdfunding campaign:
// wallet binding, state reads, request validation and the transaction
// lifecycle, projected into an event log and a status line.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"crowdfund-tui/contract"
	"crowdfund-tui/helpers"
	"crowdfund-tui/wallet"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// DefaultSettlementTimeout bounds how long a submitted transaction is awaited
const DefaultSettlementTimeout = 5 * time.Minute

// Contract is the campaign contract surface the controller drives
type Contract interface {
	Reader
	Address() common.Address
	Contribute(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	Refund(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Handle is a contract bound to a signer for the connected identity
type Handle struct {
	Contract Contract
	Signer   *bind.TransactOpts
	Identity Identity
}

// Controller owns all campaign interaction state. It is safe for concurrent
// use; network calls never run under its lock.
type Controller struct {
	provider      wallet.Provider
	contract      Contract
	requiredChain *big.Int
	timeout       time.Duration
	logger        *log.Logger
	observer      chan<- struct{}
	now           func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu         sync.Mutex
	identity   Identity
	signer     *bind.TransactOpts
	generation uint64
	snapshot   Snapshot
	phases     map[Kind]Phase
	pending    map[Kind]*PendingRequest
	events     EventLog
	status     Status
	connecting bool
	refreshing bool
	sub        event.Subscription
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the transition logger
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSettlementTimeout bounds the wait for a receipt
func WithSettlementTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver receives a signal after every state change.
// Signals are dropped when ch is full.
func WithObserver(ch chan<- struct{}) Option {
	return func(c *Controller) { c.observer = ch }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller for the campaign behind cf that only accepts
// requiredChain
func New(provider wallet.Provider, cf Contract, requiredChain *big.Int, opts ...Option) *Controller {
	c := &Controller{
		provider:      provider,
		contract:      cf,
		requiredChain: requiredChain,
		timeout:       DefaultSettlementTimeout,
		logger:        log.New(io.Discard),
		now:           time.Now,
		snapshot:      EmptySnapshot(),
		phases:        map[Kind]Phase{Contribute: PhaseIdle, Refund: PhaseIdle},
		pending:       map[Kind]*PendingRequest{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Identity:   c.identity.clone(),
		Snapshot:   c.snapshot.clone(),
		Phases:     make(map[Kind]Phase, len(c.phases)),
		Pending:    make(map[Kind]PendingRequest, len(c.pending)),
		Events:     c.events.Records(),
		Status:     c.status,
		Connecting: c.connecting,
		Refreshing: c.refreshing,
	}
	for k, p := range c.phases {
		s.Phases[k] = p
	}
	for k, p := range c.pending {
		cp := *p
		cp.Amount = copyInt(p.Amount)
		s.Pending[k] = cp
	}
	return s
}

// Address returns the campaign contract address
func (c *Controller) Address() common.Address {
	return c.contract.Address()
}

// Connect asks the wallet for access, checks the network and binds the first
// account as signer. Account and chain notifications are followed from then on.
func (c *Controller) Connect(ctx context.Context) (Identity, *Handle, error) {
	c.mu.Lock()
	c.connecting = true
	c.mu.Unlock()
	c.notify()

	id, signer, err := c.handshake(ctx)

	c.mu.Lock()
	c.connecting = false
	if err != nil {
		c.setStatusLocked(Describe(err))
		c.mu.Unlock()
		c.logger.Error("connect failed", "err", err)
		c.notify()
		return Identity{}, nil, err
	}
	c.identity = id
	c.signer = signer
	c.generation++
	c.snapshot = EmptySnapshot()
	c.setStatusLocked("Wallet connected successfully!")
	c.subscribeLocked()
	c.mu.Unlock()

	c.logger.Info("wallet connected", "account", id.Account.Hex(), "network", id.Network)
	c.notify()

	// read failures are already in the status line
	_ = c.Refresh(ctx)

	return id.clone(), &Handle{Contract: c.contract, Signer: signer, Identity: id.clone()}, nil
}

func (c *Controller) handshake(ctx context.Context) (Identity, *bind.TransactOpts, error) {
	if c.provider == nil {
		return Identity{}, nil, ErrProviderUnavailable
	}

	accounts, err := c.provider.RequestAccounts(ctx)
	switch {
	case errors.Is(err, wallet.ErrUnavailable):
		return Identity{}, nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	case errors.Is(err, wallet.ErrUserRejected):
		return Identity{}, nil, fmt.Errorf("%w: %w", ErrUserRejected, err)
	case err != nil:
		return Identity{}, nil, fmt.Errorf("failed to request accounts: %w", err)
	case len(accounts) == 0:
		return Identity{}, nil, fmt.Errorf("%w: no accounts authorized", ErrUserRejected)
	}

	network, err := c.provider.Network(ctx)
	if err != nil {
		return Identity{}, nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if network.ChainID == nil || network.ChainID.Cmp(c.requiredChain) != 0 {
		return Identity{}, nil, fmt.Errorf("%w: connected to %s, need chain %s",
			ErrNetworkMismatch, network.Name, c.requiredChain)
	}

	signer, err := c.provider.Transactor(ctx, accounts[0], network.ChainID)
	if err != nil {
		return Identity{}, nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	return Identity{
		Account: accounts[0],
		Bound:   true,
		ChainID: new(big.Int).Set(network.ChainID),
		Network: network.Name,
	}, signer, nil
}

// Refresh re-reads the campaign state. On failure the previous snapshot is
// kept and the status reports the error.
func (c *Controller) Refresh(ctx context.Context) error {
	err := c.refresh(ctx)
	if err != nil {
		c.mu.Lock()
		c.setStatusLocked(Describe(err))
		c.mu.Unlock()
		c.notify()
	}
	return err
}

func (c *Controller) refresh(ctx context.Context) error {
	c.mu.Lock()
	id := c.identity.clone()
	gen := c.generation
	c.refreshing = true
	c.mu.Unlock()
	c.notify()

	snap, err := ReadSnapshot(ctx, c.contract, id)

	c.mu.Lock()
	c.refreshing = false
	switch {
	case err != nil:
		c.mu.Unlock()
		c.logger.Error("snapshot read failed", "err", err)
		c.notify()
		return err
	case gen != c.generation:
		// identity changed while reading; the next refresh covers the new one
		c.mu.Unlock()
		c.logger.Debug("discarding stale snapshot", "account", id.Account.Hex())
		c.notify()
		return nil
	}
	if c.snapshot.Locked {
		snap.Locked = true
	}
	snap.LoadedAt = c.now()
	c.snapshot = snap
	c.mu.Unlock()

	c.logger.Debug("snapshot updated",
		"goal", helpers.FormatETH(snap.Goal),
		"raised", helpers.FormatETH(snap.AmountRaised),
		"locked", snap.Locked,
		"mine", helpers.FormatETH(snap.MyContribution))
	c.notify()
	return nil
}

// Submit validates input and sends a request of kind. It returns once the
// network has accepted the transaction; use Await for settlement.
func (c *Controller) Submit(ctx context.Context, kind Kind, input string) (*types.Transaction, error) {
	c.mu.Lock()
	id := c.identity.clone()
	if id.Bound && c.phases[kind].Busy() {
		err := reject(ErrRequestInFlight, "A "+kind.noun()+" is already in progress")
		c.setStatusLocked(Describe(err))
		c.mu.Unlock()
		c.logger.Warn("request rejected", "kind", kind, "err", err)
		c.notify()
		return nil, err
	}
	if id.Bound && (id.ChainID == nil || id.ChainID.Cmp(c.requiredChain) != 0) {
		c.setStatusLocked(Describe(ErrNetworkMismatch))
		c.mu.Unlock()
		c.notify()
		return nil, ErrNetworkMismatch
	}
	snap := c.snapshot.clone()
	if id.Bound && !snap.Loaded() {
		err := reject(ErrReadFailed, "Campaign data is not loaded for this account yet. Refresh and try again")
		c.setStatusLocked(Describe(err))
		c.mu.Unlock()
		c.logger.Warn("request rejected", "kind", kind, "err", err)
		c.notify()
		return nil, err
	}
	c.phases[kind] = PhaseValidating
	signer := c.signer
	c.mu.Unlock()

	amount, err := Validate(kind, input, snap, id)
	if err != nil {
		c.mu.Lock()
		c.phases[kind] = PhaseIdle
		c.setStatusLocked(Describe(err))
		c.mu.Unlock()
		c.logger.Warn("request rejected", "kind", kind, "input", input, "err", err)
		c.notify()
		return nil, err
	}

	c.mu.Lock()
	c.phases[kind] = PhaseSubmitting
	c.pending[kind] = &PendingRequest{
		Kind:        kind,
		Input:       input,
		Amount:      new(big.Int).Set(amount),
		SubmittedAt: c.now(),
	}
	c.setStatusLocked(kind.processing())
	c.mu.Unlock()
	c.logger.Info("submitting", "kind", kind, "amount", helpers.FormatETH(amount))
	c.notify()

	opts := *signer
	opts.Context = ctx
	var tx *types.Transaction
	if kind == Refund {
		tx, err = c.contract.Refund(&opts, amount)
	} else {
		tx, err = c.contract.Contribute(&opts, amount)
	}

	if err != nil {
		reason := contract.RevertReason(err)
		c.mu.Lock()
		c.phases[kind] = PhaseIdle
		delete(c.pending, kind)
		c.setStatusLocked("Error: " + reason)
		c.mu.Unlock()
		c.logger.Error("submission rejected", "kind", kind, "reason", reason)
		c.notify()
		return nil, fmt.Errorf("%w: %s", ErrSubmissionRejected, reason)
	}

	c.mu.Lock()
	c.phases[kind] = PhaseAwaitingSettlement
	if p := c.pending[kind]; p != nil {
		p.TxHash = tx.Hash()
	}
	c.setStatusLocked("Transaction pending... " + tx.Hash().Hex())
	c.mu.Unlock()
	c.logger.Info("transaction pending", "kind", kind, "tx", tx.Hash().Hex())
	c.notify()
	return tx, nil
}

// Await waits for tx, a pending request of kind, to settle, records the
// outcome and refreshes the snapshot
func (c *Controller) Await(ctx context.Context, kind Kind, tx *types.Transaction) (*types.Receipt, error) {
	c.mu.Lock()
	p := c.pending[kind]
	if p == nil || p.TxHash != tx.Hash() {
		c.mu.Unlock()
		return nil, fmt.Errorf("no pending %s for %s", kind, tx.Hash().Hex())
	}
	amount := new(big.Int).Set(p.Amount)
	c.mu.Unlock()

	wctx, cancel := context.WithTimeout(ctx, c.timeout)
	receipt, err := c.contract.WaitMined(wctx, tx)
	cancel()

	var result error
	c.mu.Lock()
	switch {
	case err != nil:
		result = fmt.Errorf("%w: %w", ErrSettlementFailed, err)
		c.setStatusLocked("Error: Transaction not confirmed - TX: " + tx.Hash().Hex())
	case receipt.Status != types.ReceiptStatusSuccessful:
		result = fmt.Errorf("%w: %s reverted", ErrSettlementFailed, tx.Hash().Hex())
		c.setStatusLocked("Error: Transaction reverted - TX: " + tx.Hash().Hex())
	default:
		c.events.Append(EventRecord{
			Text:   fmt.Sprintf("%s %s ETH - TX: %s", kind.past(), helpers.FormatEther(amount), tx.Hash().Hex()),
			At:     c.now(),
			TxHash: tx.Hash(),
		})
		c.setStatusLocked(kind.success())
	}
	delete(c.pending, kind)
	c.phases[kind] = PhaseSettled
	c.mu.Unlock()

	if result != nil {
		c.logger.Error("settlement failed", "kind", kind, "tx", tx.Hash().Hex(), "err", result)
	} else {
		c.logger.Info("settled", "kind", kind, "tx", tx.Hash().Hex(), "block", receipt.BlockNumber)
	}
	c.notify()

	// the settlement status stays; a failed read is only logged here
	_ = c.refresh(ctx)

	return receipt, result
}

// Contribute submits a contribution and waits for it to settle
func (c *Controller) Contribute(ctx context.Context, input string) (*types.Receipt, error) {
	return c.do(ctx, Contribute, input)
}

// Refund submits a refund and waits for it to settle
func (c *Controller) Refund(ctx context.Context, input string) (*types.Receipt, error) {
	return c.do(ctx, Refund, input)
}

func (c *Controller) do(ctx context.Context, kind Kind, input string) (*types.Receipt, error) {
	tx, err := c.Submit(ctx, kind, input)
	if err != nil {
		return nil, err
	}
	return c.Await(ctx, kind, tx)
}

// Close stops following wallet notifications and resets the session.
// In-flight waits are cancelled only through their own contexts.
func (c *Controller) Close() {
	c.once.Do(func() {
		c.cancel()
		c.mu.Lock()
		sub := c.sub
		c.sub = nil
		c.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		c.wg.Wait()

		c.mu.Lock()
		c.identity = Identity{}
		c.signer = nil
		c.generation++
		c.snapshot = EmptySnapshot()
		c.mu.Unlock()
	})
}

func (c *Controller) subscribeLocked() {
	if c.sub != nil || c.ctx.Err() != nil {
		return
	}
	ch := make(chan wallet.Event, 8)
	c.sub = c.provider.SubscribeEvents(ch)
	c.wg.Add(1)
	go c.watch(c.sub, ch)
}

func (c *Controller) watch(sub event.Subscription, ch <-chan wallet.Event) {
	defer c.wg.Done()
	for {
		select {
		case ev := <-ch:
			c.handle(ev)
		case err := <-sub.Err():
			if err != nil {
				c.logger.Error("wallet subscription ended", "err", err)
			}
			return
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Controller) handle(ev wallet.Event) {
	c.logger.Debug("wallet event", "kind", ev.Kind, "accounts", len(ev.Accounts), "chain", ev.ChainID)

	switch ev.Kind {
	case wallet.AccountsChanged:
		if len(ev.Accounts) == 0 {
			c.unbind("Wallet disconnected")
			return
		}
		c.rebind(ev.Accounts[0])
	case wallet.ChainChanged:
		c.invalidate()
		if _, _, err := c.Connect(c.ctx); err != nil {
			c.logger.Warn("reconnect after chain change failed", "err", err)
		}
	}
}

func (c *Controller) rebind(account common.Address) {
	c.mu.Lock()
	chainID := c.identity.ChainID
	network := c.identity.Network
	c.mu.Unlock()
	if chainID == nil {
		return
	}

	signer, err := c.provider.Transactor(c.ctx, account, chainID)
	if err != nil {
		c.mu.Lock()
		c.setStatusLocked(Describe(err))
		c.mu.Unlock()
		c.logger.Error("rebind failed", "account", account.Hex(), "err", err)
		c.notify()
		return
	}

	c.mu.Lock()
	c.identity = Identity{Account: account, Bound: true, ChainID: chainID, Network: network}
	c.signer = signer
	c.generation++
	c.snapshot = c.snapshot.withoutIdentity()
	c.setStatusLocked("Switched to account " + helpers.ShortenAddr(account.Hex()))
	c.mu.Unlock()
	c.logger.Info("account changed", "account", account.Hex())
	c.notify()

	_ = c.Refresh(c.ctx)
}

func (c *Controller) unbind(status string) {
	c.mu.Lock()
	c.identity = Identity{ChainID: c.identity.ChainID, Network: c.identity.Network}
	c.signer = nil
	c.generation++
	c.snapshot = EmptySnapshot()
	c.setStatusLocked(status)
	c.mu.Unlock()
	c.logger.Info("wallet unbound")
	c.notify()
}

func (c *Controller) invalidate() {
	c.mu.Lock()
	c.identity = Identity{}
	c.signer = nil
	c.generation++
	c.snapshot = EmptySnapshot()
	c.setStatusLocked("Network changed, reconnecting...")
	c.mu.Unlock()
	c.logger.Warn("chain changed, cached state invalidated")
	c.notify()
}

func (c *Controller) setStatusLocked(text string) {
	c.status = Status{Text: text, At: c.now()}
}

func (c *Controller) notify() {
	if c.observer == nil {
		return
	}
	select {
	case c.observer <- struct{}{}:
	default:
	}
}
