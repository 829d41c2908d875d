package helpers

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of decimals between wei and ether
const EtherDecimals = 18

var (
	// ErrEmptyAmount is returned for a blank amount input
	ErrEmptyAmount = errors.New("amount is empty")
	// ErrNotANumber is returned when the input is not a decimal number
	ErrNotANumber = errors.New("amount is not a number")
	// ErrTooPrecise is returned when the input has more than 18 fractional digits
	ErrTooPrecise = errors.New("amount has more than 18 decimal places")
)

// ParseEther converts a human decimal ether amount ("0.1") into wei.
// The conversion is exact; inputs that cannot be represented in wei are rejected.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyAmount
	}
	// decimal accepts exponents ("1e3"); amounts typed by a user never need them
	if strings.ContainsAny(s, "eE") {
		return nil, ErrNotANumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, ErrNotANumber
	}
	wei := d.Shift(EtherDecimals)
	if !wei.IsInteger() {
		return nil, ErrTooPrecise
	}
	return wei.BigInt(), nil
}

// FormatEther converts wei into its shortest exact decimal ether form ("0.1")
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals).String()
}

// FormatETH formats wei as an ether amount with unit
func FormatETH(wei *big.Int) string {
	return FormatEther(wei) + " ETH"
}

// Progress renders raised/goal as a percentage with two decimals.
// Display only; never feed this back into validation.
func Progress(raised, goal *big.Int) string {
	if goal == nil || goal.Sign() <= 0 || raised == nil {
		return "0.00%"
	}
	pct := new(big.Float).Quo(new(big.Float).SetInt(raised), new(big.Float).SetInt(goal))
	pct.Mul(pct, big.NewFloat(100))
	return pct.Text('f', 2) + "%"
}
