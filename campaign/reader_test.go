package campaign

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSnapshot(t *testing.T) {
	f := newFakeCampaign(t)
	f.mine[alice] = ether(t, "0.25")
	f.has[alice] = true

	t.Run("bound identity", func(t *testing.T) {
		snap, err := ReadSnapshot(context.Background(), f, Identity{Account: alice, Bound: true})
		require.NoError(t, err)
		assert.Equal(t, "10000000000000000000", snap.Goal.String())
		assert.Equal(t, "3000000000000000000", snap.AmountRaised.String())
		assert.Equal(t, "250000000000000000", snap.MyContribution.String())
		assert.True(t, snap.HasContributed)
		assert.True(t, snap.Loaded())
	})

	t.Run("unbound identity skips scoped reads", func(t *testing.T) {
		before := f.reads.Load()
		snap, err := ReadSnapshot(context.Background(), f, Identity{Account: alice})
		require.NoError(t, err)
		assert.Equal(t, int32(3), f.reads.Load()-before)
		assert.Equal(t, int64(0), snap.MyContribution.Int64())
		assert.False(t, snap.HasContributed)
	})

	t.Run("any failure fails the snapshot", func(t *testing.T) {
		f.set(func(f *fakeCampaign) { f.readErr = errors.New("timeout") })
		snap, err := ReadSnapshot(context.Background(), f, Identity{Account: alice, Bound: true})
		require.ErrorIs(t, err, ErrReadFailed)
		assert.Contains(t, err.Error(), "timeout")
		assert.False(t, snap.Loaded())
	})
}
