package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	testPrivHex = "289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"
	testAddrHex = "0x970E8128AB834E8EAC17Ab8E3812F010678CF791"
)

type fakeChain struct {
	id  atomic.Int64
	err error
}

func newFakeChain(id int64) *fakeChain {
	c := &fakeChain{}
	c.id.Store(id)
	return c
}

func (c *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	if c.err != nil {
		return nil, c.err
	}
	return big.NewInt(c.id.Load()), nil
}

func genKeys(t *testing.T, n int) []*ecdsa.PrivateKey {
	t.Helper()
	keys := make([]*ecdsa.PrivateKey, n)
	for i := range keys {
		k, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys[i] = k
	}
	return keys
}

func TestLoadKeys(t *testing.T) {
	keys, err := LoadKeys([]string{" 0x" + testPrivHex, ""})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, common.HexToAddress(testAddrHex), crypto.PubkeyToAddress(keys[0].PublicKey))

	_, err = LoadKeys([]string{"zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private key #1")
}

func TestLoadKeystore(t *testing.T) {
	priv, err := crypto.HexToECDSA(testPrivHex)
	require.NoError(t, err)

	blob, err := keystore.EncryptKey(&keystore.Key{
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}, "hunter2", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0600))

	got, err := LoadKeystore(path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddrHex), crypto.PubkeyToAddress(got.PublicKey))

	_, err = LoadKeystore(path, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decrypt keystore")

	_, err = LoadKeystore(filepath.Join(t.TempDir(), "missing.json"), "")
	require.Error(t, err)
}

func TestRequestAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("no keys", func(t *testing.T) {
		l := NewLocal(newFakeChain(11155111), nil)
		_, err := l.RequestAccounts(ctx)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("no node", func(t *testing.T) {
		l := NewLocal(nil, genKeys(t, 1))
		_, err := l.RequestAccounts(ctx)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("rejected", func(t *testing.T) {
		l := NewLocal(newFakeChain(11155111), genKeys(t, 1), WithApprover(func(context.Context, []common.Address) error {
			return errors.New("declined in prompt")
		}))
		_, err := l.RequestAccounts(ctx)
		assert.ErrorIs(t, err, ErrUserRejected)
	})

	t.Run("active account first", func(t *testing.T) {
		keys := genKeys(t, 3)
		l := NewLocal(newFakeChain(11155111), keys)
		all := l.Accounts()
		require.NoError(t, l.SelectAccount(all[2]))

		accounts, err := l.RequestAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{all[2], all[0], all[1]}, accounts)

		active, ok := l.Active()
		assert.True(t, ok)
		assert.Equal(t, all[2], active)
	})
}

func TestNetwork(t *testing.T) {
	l := NewLocal(newFakeChain(11155111), genKeys(t, 1))
	n, err := l.Network(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), n.ChainID.Int64())
	assert.Equal(t, "sepolia", n.Name)

	broken := &fakeChain{err: errors.New("dial tcp: refused")}
	l.SetChain(broken)
	_, err = l.Network(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get chain ID")
}

func TestTransactor(t *testing.T) {
	keys := genKeys(t, 2)
	l := NewLocal(newFakeChain(11155111), keys)
	account := l.Accounts()[1]

	opts, err := l.Transactor(context.Background(), account, big.NewInt(11155111))
	require.NoError(t, err)
	assert.Equal(t, account, opts.From)
	assert.NotNil(t, opts.Signer)

	_, err = l.Transactor(context.Background(), common.HexToAddress("0x01"), big.NewInt(11155111))
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestAccountEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewLocal(newFakeChain(11155111), genKeys(t, 2))
	defer l.Close()
	all := l.Accounts()

	ch := make(chan Event, 4)
	sub := l.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	// not connected yet, nothing to announce
	require.NoError(t, l.SelectAccount(all[1]))
	assert.Len(t, ch, 0)

	_, err := l.RequestAccounts(context.Background())
	require.NoError(t, err)

	require.NoError(t, l.SelectAccount(all[0]))
	ev := <-ch
	assert.Equal(t, AccountsChanged, ev.Kind)
	assert.Equal(t, all[0], ev.Accounts[0])

	assert.ErrorIs(t, l.SelectAccount(common.HexToAddress("0x02")), ErrUnknownAccount)

	l.Disconnect()
	ev = <-ch
	assert.Equal(t, AccountsChanged, ev.Kind)
	assert.Empty(t, ev.Accounts)

	// second disconnect is silent
	l.Disconnect()
	assert.Len(t, ch, 0)
}

func TestWatchChainChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	chain := newFakeChain(11155111)
	l := NewLocal(chain, genKeys(t, 1))
	defer l.Close()

	_, err := l.Network(context.Background())
	require.NoError(t, err)

	ch := make(chan Event, 1)
	sub := l.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Watch(ctx, time.Millisecond)
	}()

	chain.id.Store(1)

	select {
	case ev := <-ch:
		assert.Equal(t, ChainChanged, ev.Kind)
		assert.Equal(t, int64(1), ev.ChainID.Int64())
	case <-time.After(2 * time.Second):
		t.Fatal("no chainChanged event")
	}

	cancel()
	<-done
}

func TestNetworkName(t *testing.T) {
	assert.Equal(t, "mainnet", NetworkName(big.NewInt(1)))
	assert.Equal(t, "sepolia", NetworkName(big.NewInt(11155111)))
	assert.Equal(t, "chain 42", NetworkName(big.NewInt(42)))
	assert.Equal(t, "unknown", NetworkName(nil))
	assert.Equal(t, "chainChanged", ChainChanged.String())
}
