package campaign

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// Reader is the read half of the campaign contract
type Reader interface {
	Goal(ctx context.Context) (*big.Int, error)
	AmountRaised(ctx context.Context) (*big.Int, error)
	Locked(ctx context.Context) (bool, error)
	AmountContributed(ctx context.Context, account common.Address) (*big.Int, error)
	HasContributed(ctx context.Context, account common.Address) (bool, error)
}

// ReadSnapshot pulls the campaign state in parallel and assembles it.
// Identity-scoped fields are only read for a bound identity.
// Any failed read fails the whole snapshot.
func ReadSnapshot(ctx context.Context, r Reader, id Identity) (Snapshot, error) {
	snap := EmptySnapshot()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := r.Goal(gctx)
		snap.Goal = v
		return err
	})
	g.Go(func() error {
		v, err := r.AmountRaised(gctx)
		snap.AmountRaised = v
		return err
	})
	g.Go(func() error {
		v, err := r.Locked(gctx)
		snap.Locked = v
		return err
	})
	if id.Bound {
		g.Go(func() error {
			v, err := r.AmountContributed(gctx, id.Account)
			snap.MyContribution = v
			return err
		})
		g.Go(func() error {
			v, err := r.HasContributed(gctx, id.Account)
			snap.HasContributed = v
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	snap.LoadedAt = time.Now()
	return snap.clone(), nil
}
