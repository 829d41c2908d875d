package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"crowdfund-tui/campaign"
	"crowdfund-tui/config"
	"crowdfund-tui/contract"
	"crowdfund-tui/helpers"
	"crowdfund-tui/rpc"
	"crowdfund-tui/wallet"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// session ties one RPC connection to the campaign binding and its controller
type session struct {
	client  *rpc.Client
	cf      *contract.Crowdfund
	ctrl    *campaign.Controller
	ctx     context.Context
	stop    context.CancelFunc
	changes chan struct{}
	done    chan struct{}
	once    sync.Once
}

// loadKeys gathers signing keys from the environment and the configured keystore
func loadKeys(cfg config.Config, env config.Env) ([]*ecdsa.PrivateKey, error) {
	keys, err := wallet.LoadKeys(env.PrivateKeys)
	if err != nil {
		return nil, err
	}
	if cfg.Keystore != "" {
		k, err := wallet.LoadKeystore(cfg.Keystore, env.KeystorePassword)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// newSession binds the campaign at cfg.Contract through client and points the
// wallet at the same node. client may be nil when the RPC is unreachable.
func newSession(client *rpc.Client, cfg config.Config, env config.Env, w *wallet.Local, logger *log.Logger, opts ...campaign.Option) (*session, error) {
	if !helpers.IsValidEthAddress(cfg.Contract) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.Contract)
	}
	if client == nil {
		return nil, fmt.Errorf("no RPC connection")
	}

	cf, err := contract.New(common.HexToAddress(cfg.Contract), client)
	if err != nil {
		return nil, err
	}

	w.SetChain(client)

	changes := make(chan struct{}, 1)
	opts = append([]campaign.Option{
		campaign.WithLogger(logger),
		campaign.WithSettlementTimeout(env.SettlementTimeout),
		campaign.WithObserver(changes),
	}, opts...)
	ctrl := campaign.New(w, cf, new(big.Int).SetUint64(config.RequiredChainID), opts...)

	ctx, stop := context.WithCancel(context.Background())
	if env.ChainPoll > 0 {
		go w.Watch(ctx, env.ChainPoll)
	}

	return &session{
		client:  client,
		cf:      cf,
		ctrl:    ctrl,
		ctx:     ctx,
		stop:    stop,
		changes: changes,
		done:    make(chan struct{}),
	}, nil
}

// close cancels in-flight waits, stops the watchers and releases the client
func (s *session) close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.stop()
		s.ctrl.Close()
		close(s.done)
		s.client.Close()
	})
}
