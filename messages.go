package main

import (
	"crowdfund-tui/campaign"
	"crowdfund-tui/rpc"

	"github.com/ethereum/go-ethereum/core/types"
)

// -------------------- TEA MESSAGES --------------------
// Results of async commands. Messages carrying a session are dropped when
// that session is no longer current (the RPC endpoint was switched).

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}

// rpcConnectedMsg contains result of RPC connection attempt
type rpcConnectedMsg struct {
	url    string
	client *rpc.Client
	err    error
}

// walletConnectedMsg contains the outcome of the wallet handshake
type walletConnectedMsg struct {
	s   *session
	id  campaign.Identity
	err error
}

// refreshedMsg signals a finished campaign snapshot read
type refreshedMsg struct {
	s   *session
	err error
}

// submittedMsg contains the outcome of broadcasting a request
type submittedMsg struct {
	s    *session
	kind campaign.Kind
	tx   *types.Transaction
	err  error
}

// settledMsg contains the outcome of waiting for a receipt
type settledMsg struct {
	s       *session
	kind    campaign.Kind
	receipt *types.Receipt
	err     error
}

// stateChangedMsg signals that the controller state moved
type stateChangedMsg struct {
	s *session
}

// balancesLoadedMsg contains ether balances of the signing accounts
type balancesLoadedMsg struct {
	balances []rpc.AccountBalance
}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct {
	what string
}

// clipboardClearMsg clears the copy feedback once it has been shown long enough
type clipboardClearMsg struct{}
