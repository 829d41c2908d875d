// Package contract binds the deployed crowdfunding campaign.
package contract

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"crowdfund-tui/rpc"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

//go:embed abi.json
var crowdfundABI string

// ParsedABI returns the parsed campaign interface description
func ParsedABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(crowdfundABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse crowdfund ABI: %w", err)
	}
	return parsed, nil
}

// Backend is what the binding needs from an RPC connection
type Backend interface {
	bind.ContractBackend
	rpc.ReceiptReader
}

// Crowdfund provides methods to interact with the campaign contract
type Crowdfund struct {
	address      common.Address
	abi          abi.ABI
	backend      Backend
	bound        *bind.BoundContract
	pollInterval time.Duration
}

// New creates a binding for the campaign deployed at address
func New(address common.Address, backend Backend) (*Crowdfund, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}
	return &Crowdfund{
		address:      address,
		abi:          parsed,
		backend:      backend,
		bound:        bind.NewBoundContract(address, parsed, backend, backend, backend),
		pollInterval: 2 * time.Second,
	}, nil
}

// Address returns the contract address
func (c *Crowdfund) Address() common.Address {
	return c.address
}

// Goal returns the campaign goal in wei
func (c *Crowdfund) Goal(ctx context.Context) (*big.Int, error) {
	return c.callUint(ctx, "goal")
}

// AmountRaised returns the total raised so far in wei
func (c *Crowdfund) AmountRaised(ctx context.Context) (*big.Int, error) {
	return c.callUint(ctx, "amountRaised")
}

// Locked reports whether the goal has been reached on-chain
func (c *Crowdfund) Locked(ctx context.Context) (bool, error) {
	return c.callBool(ctx, "locked")
}

// AmountContributed returns what account has contributed in wei
func (c *Crowdfund) AmountContributed(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.callUint(ctx, "amountContributed", account)
}

// HasContributed reports whether account has ever contributed
func (c *Crowdfund) HasContributed(ctx context.Context, account common.Address) (bool, error) {
	return c.callBool(ctx, "hasContributed", account)
}

// Contribute submits contribute(amount) signed by opts
func (c *Crowdfund) Contribute(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return c.bound.Transact(opts, "contribute", amount)
}

// Refund submits refund(amount) signed by opts
func (c *Crowdfund) Refund(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return c.bound.Transact(opts, "refund", amount)
}

// WaitMined blocks until tx is included or ctx ends
func (c *Crowdfund) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return rpc.WaitForReceipt(ctx, c.backend, tx.Hash(), c.pollInterval)
}

func (c *Crowdfund) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	out, err := c.abi.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s returned %d values", method, len(out))
	}
	return out, nil
}

func (c *Crowdfund) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want uint256", method, out[0])
	}
	return v, nil
}

func (c *Crowdfund) callBool(ctx context.Context, method string, args ...interface{}) (bool, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	v, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s returned %T, want bool", method, out[0])
	}
	return v, nil
}

// RevertReason extracts the human reason from a failed call or submission.
// Solidity Error(string) payloads carried by the RPC error are decoded;
// otherwise the error text is returned as is.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}
	var de gethrpc.DataError
	if errors.As(err, &de) {
		if hexData, ok := de.ErrorData().(string); ok {
			if reason, uerr := abi.UnpackRevert(common.FromHex(hexData)); uerr == nil {
				return reason
			}
		}
	}
	return err.Error()
}
