package contract

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers eth_call from canned ABI-encoded values.
// Only CallContract and TransactionReceipt are implemented.
type fakeBackend struct {
	bind.ContractBackend
	t       *testing.T
	abi     abi.ABI
	values  map[string]interface{}
	lastArg []byte
	callErr error
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	for name, m := range f.abi.Methods {
		if bytes.Equal(msg.Data[:4], m.ID) {
			f.lastArg = msg.Data[4:]
			out, err := m.Outputs.Pack(f.values[name])
			require.NoError(f.t, err)
			return out, nil
		}
	}
	f.t.Fatalf("unexpected selector %x", msg.Data[:4])
	return nil, nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{TxHash: hash, Status: types.ReceiptStatusSuccessful}, nil
}

func newFake(t *testing.T) (*Crowdfund, *fakeBackend) {
	t.Helper()
	parsed, err := ParsedABI()
	require.NoError(t, err)

	goal, _ := new(big.Int).SetString("10000000000000000000", 10)
	raised, _ := new(big.Int).SetString("3000000000000000000", 10)
	fb := &fakeBackend{
		t:   t,
		abi: parsed,
		values: map[string]interface{}{
			"goal":              goal,
			"amountRaised":      raised,
			"locked":            false,
			"amountContributed": big.NewInt(500),
			"hasContributed":    true,
		},
	}
	cf, err := New(common.HexToAddress("0x87204075Cb6392d20F9C9621536FbA857E38c5Af"), fb)
	require.NoError(t, err)
	return cf, fb
}

func TestParsedABIHasCampaignSurface(t *testing.T) {
	parsed, err := ParsedABI()
	require.NoError(t, err)

	for _, name := range []string{"goal", "amountRaised", "locked", "amountContributed", "hasContributed", "contribute", "refund"} {
		_, ok := parsed.Methods[name]
		assert.True(t, ok, "missing method %s", name)
	}
	assert.False(t, parsed.Methods["contribute"].IsConstant())
	assert.True(t, parsed.Methods["goal"].IsConstant())
}

func TestReads(t *testing.T) {
	cf, fb := newFake(t)
	ctx := context.Background()

	goal, err := cf.Goal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000000", goal.String())

	raised, err := cf.AmountRaised(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3000000000000000000", raised.String())

	locked, err := cf.Locked(ctx)
	require.NoError(t, err)
	assert.False(t, locked)

	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	mine, err := cf.AmountContributed(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, int64(500), mine.Int64())
	assert.Equal(t, common.LeftPadBytes(account.Bytes(), 32), fb.lastArg)

	has, err := cf.HasContributed(ctx, account)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestReadError(t *testing.T) {
	cf, fb := newFake(t)
	fb.callErr = errors.New("connection refused")

	_, err := cf.Goal(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call goal")
	assert.ErrorIs(t, err, fb.callErr)
}

func TestWaitMined(t *testing.T) {
	cf, _ := newFake(t)
	tx := types.NewTx(&types.LegacyTx{Nonce: 1})

	receipt, err := cf.WaitMined(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), receipt.TxHash)
}

type dataErr struct {
	msg  string
	data interface{}
}

func (e dataErr) Error() string          { return e.msg }
func (e dataErr) ErrorData() interface{} { return e.data }

func TestRevertReason(t *testing.T) {
	stringTy, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	encoded, err := abi.Arguments{{Type: stringTy}}.Pack("Already contributed")
	require.NoError(t, err)
	payload := append(crypto.Keccak256([]byte("Error(string)"))[:4], encoded...)

	assert.Equal(t, "", RevertReason(nil))
	assert.Equal(t, "Already contributed", RevertReason(dataErr{msg: "execution reverted", data: hexutil.Encode(payload)}))
	assert.Equal(t, "execution reverted", RevertReason(dataErr{msg: "execution reverted", data: "0x1234"}))
	assert.Equal(t, "insufficient funds", RevertReason(errors.New("insufficient funds")))
}
