package campaign

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Kind is the type of state-changing request
type Kind int

const (
	Contribute Kind = iota
	Refund
)

// Kinds lists every request kind
var Kinds = []Kind{Contribute, Refund}

func (k Kind) String() string {
	if k == Refund {
		return "refund"
	}
	return "contribute"
}

func (k Kind) noun() string {
	if k == Refund {
		return "refund"
	}
	return "contribution"
}

func (k Kind) past() string {
	if k == Refund {
		return "Refunded"
	}
	return "Contributed"
}

func (k Kind) processing() string {
	if k == Refund {
		return "Processing refund..."
	}
	return "Processing transaction..."
}

func (k Kind) success() string {
	if k == Refund {
		return "Refund successful! 💰"
	}
	return "Contribution successful! 🎉"
}

// Phase is where a request kind is in its lifecycle
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseAwaitingSettlement
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseAwaitingSettlement:
		return "awaiting settlement"
	case PhaseSettled:
		return "settled"
	}
	return "idle"
}

// Busy reports whether a request is between validation and settlement
func (p Phase) Busy() bool {
	return p != PhaseIdle && p != PhaseSettled
}

// Identity is the bound account and the chain it was bound on.
// Network data survives an account disconnect so a later accountsChanged can rebind.
type Identity struct {
	Account common.Address
	Bound   bool
	ChainID *big.Int
	Network string
}

func (id Identity) clone() Identity {
	if id.ChainID != nil {
		id.ChainID = new(big.Int).Set(id.ChainID)
	}
	return id
}

// Snapshot is the last known-good campaign state
type Snapshot struct {
	Goal           *big.Int
	AmountRaised   *big.Int
	Locked         bool
	MyContribution *big.Int
	HasContributed bool
	LoadedAt       time.Time
}

// EmptySnapshot is the state shown before the first successful read
func EmptySnapshot() Snapshot {
	return Snapshot{
		Goal:           new(big.Int),
		AmountRaised:   new(big.Int),
		MyContribution: new(big.Int),
	}
}

// Loaded reports whether the snapshot was read from the chain for the
// current binding. Binding changes clear LoadedAt until the next read.
func (s Snapshot) Loaded() bool {
	return !s.LoadedAt.IsZero()
}

func (s Snapshot) clone() Snapshot {
	s.Goal = copyInt(s.Goal)
	s.AmountRaised = copyInt(s.AmountRaised)
	s.MyContribution = copyInt(s.MyContribution)
	return s
}

func (s Snapshot) withoutIdentity() Snapshot {
	s = s.clone()
	s.MyContribution = new(big.Int)
	s.HasContributed = false
	s.LoadedAt = time.Time{}
	return s
}

// PendingRequest lives between submission and settlement
type PendingRequest struct {
	Kind        Kind
	Input       string
	Amount      *big.Int
	SubmittedAt time.Time
	TxHash      common.Hash
}

// State is a read-only copy of the controller state
type State struct {
	Identity   Identity
	Snapshot   Snapshot
	Phases     map[Kind]Phase
	Pending    map[Kind]PendingRequest
	Events     []EventRecord
	Status     Status
	Connecting bool
	Refreshing bool
}

// Connected reports whether an account is bound
func (s State) Connected() bool {
	return s.Identity.Bound
}

// InFlight reports whether a request of kind k is outstanding
func (s State) InFlight(k Kind) bool {
	return s.Phases[k].Busy()
}

// LastTx returns the hash of the most recently submitted transaction
func (s State) LastTx() (common.Hash, bool) {
	var (
		last common.Hash
		at   time.Time
	)
	for _, p := range s.Pending {
		if p.TxHash != (common.Hash{}) && p.SubmittedAt.After(at) {
			last, at = p.TxHash, p.SubmittedAt
		}
	}
	if last != (common.Hash{}) {
		return last, true
	}
	for i := len(s.Events) - 1; i >= 0; i-- {
		if s.Events[i].TxHash != (common.Hash{}) {
			return s.Events[i].TxHash, true
		}
	}
	return common.Hash{}, false
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
