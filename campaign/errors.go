package campaign

import (
	"errors"
	"strings"
)

var (
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	ErrUserRejected        = errors.New("user rejected the request")
	ErrNetworkMismatch     = errors.New("wrong network")
	ErrNotConnected        = errors.New("wallet not connected")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAlreadyContributed  = errors.New("already contributed")
	ErrExceedsContribution = errors.New("refund exceeds contribution")
	ErrCampaignLocked      = errors.New("campaign locked")
	ErrRequestInFlight     = errors.New("request already in flight")
	ErrSubmissionRejected  = errors.New("transaction rejected")
	ErrSettlementFailed    = errors.New("transaction failed")
	ErrReadFailed          = errors.New("failed to read campaign state")
)

// Rejection is a request refused before any network call.
// Message is the text shown to the user.
type Rejection struct {
	Reason  error
	Message string
}

func (r *Rejection) Error() string { return r.Message }
func (r *Rejection) Unwrap() error { return r.Reason }

func reject(reason error, msg string) error {
	return &Rejection{Reason: reason, Message: "Error: " + msg}
}

// Describe renders err as a status line
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var rj *Rejection
	switch {
	case errors.As(err, &rj):
		return rj.Message
	case errors.Is(err, ErrProviderUnavailable):
		return "Error: No wallet available. Set CROWDFUND_PRIVATE_KEYS or CROWDFUND_KEYSTORE."
	case errors.Is(err, ErrUserRejected):
		return "Error: Wallet access request was rejected"
	case errors.Is(err, ErrNetworkMismatch):
		return "Error: Please switch to Sepolia testnet!"
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "Error") {
		return msg
	}
	return "Error: " + msg
}
