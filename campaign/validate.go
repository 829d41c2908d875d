package campaign

import (
	"errors"
	"math/big"
	"strings"

	"crowdfund-tui/helpers"
)

// ValidateContribute checks a contribution before anything is sent and returns
// the amount in wei
func ValidateContribute(input string, snap Snapshot, id Identity) (*big.Int, error) {
	if !id.Bound {
		return nil, reject(ErrNotConnected, "Please connect your wallet first")
	}
	amount, err := parseAmount(Contribute, input)
	if err != nil {
		return nil, err
	}
	if snap.HasContributed {
		return nil, reject(ErrAlreadyContributed, "You have already contributed to this campaign")
	}
	if snap.Locked {
		return nil, reject(ErrCampaignLocked, "Campaign goal reached, contributions are closed")
	}
	return amount, nil
}

// ValidateRefund checks a refund before anything is sent and returns the
// amount in wei. Refunding exactly the full contribution is allowed.
func ValidateRefund(input string, snap Snapshot, id Identity) (*big.Int, error) {
	if !id.Bound {
		return nil, reject(ErrNotConnected, "Please connect your wallet first")
	}
	amount, err := parseAmount(Refund, input)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(copyInt(snap.MyContribution)) > 0 {
		return nil, reject(ErrExceedsContribution, "Refund amount exceeds your contribution")
	}
	if snap.Locked {
		return nil, reject(ErrCampaignLocked, "Campaign goal reached, refunds are closed")
	}
	return amount, nil
}

// Validate dispatches on kind
func Validate(kind Kind, input string, snap Snapshot, id Identity) (*big.Int, error) {
	if kind == Refund {
		return ValidateRefund(input, snap, id)
	}
	return ValidateContribute(input, snap, id)
}

func parseAmount(kind Kind, input string) (*big.Int, error) {
	what := strings.ToUpper(kind.noun()[:1]) + kind.noun()[1:]

	amount, err := helpers.ParseEther(input)
	switch {
	case errors.Is(err, helpers.ErrEmptyAmount):
		return nil, reject(ErrInvalidAmount, "Please enter a "+kind.noun()+" amount")
	case errors.Is(err, helpers.ErrTooPrecise):
		return nil, reject(ErrInvalidAmount, what+" amount has more than 18 decimal places")
	case err != nil:
		return nil, reject(ErrInvalidAmount, what+" amount is not a valid number")
	case amount.Sign() <= 0:
		return nil, reject(ErrInvalidAmount, what+" amount must be greater than 0")
	}
	return amount, nil
}
