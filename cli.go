package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"crowdfund-tui/campaign"
	"crowdfund-tui/config"
	"crowdfund-tui/helpers"
	"crowdfund-tui/rpc"
	"crowdfund-tui/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

// appConfig is the merged file and environment configuration.
// file is kept so saves never write environment overrides.
type appConfig struct {
	cfg  config.Config
	file config.Config
	env  config.Env
	path string
}

type rootFlags struct {
	configPath string
	rpcURL     string
	contract   string
	verbose    bool
}

type txFlags struct {
	yes     bool
	account string
}

// loadAppConfig layers file config, environment and flags, in that order
func loadAppConfig(f rootFlags) (appConfig, error) {
	env, err := config.ParseEnv()
	if err != nil {
		return appConfig{}, err
	}

	path := f.configPath
	if path == "" {
		path = env.ConfigPath
	}
	if path == "" {
		path = config.DefaultPath()
	}

	if f.rpcURL != "" {
		env.RPCURL = f.rpcURL
	}
	if f.contract != "" {
		env.Contract = f.contract
	}
	if env.Contract != "" && !helpers.IsValidEthAddress(env.Contract) {
		return appConfig{}, fmt.Errorf("invalid contract address %q", env.Contract)
	}

	file := config.LoadOrCreate(path)
	return appConfig{cfg: file.Apply(env), file: file, env: env, path: path}, nil
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "crowdfund-tui",
		Short:         "Contribute to and get refunds from a crowdfunding campaign on Sepolia",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.crowdfund-config.json)")
	root.PersistentFlags().StringVar(&flags.rpcURL, "rpc", "", "Ethereum RPC endpoint (overrides ETH_RPC_URL)")
	root.PersistentFlags().StringVar(&flags.contract, "contract", "", "campaign contract address")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging for headless commands")

	root.AddCommand(
		newStatusCmd(&flags),
		newAccountsCmd(&flags),
		newTxCmd(&flags, campaign.Contribute),
		newTxCmd(&flags, campaign.Refund),
	)
	return root
}

func runTUI(flags rootFlags) error {
	app, err := loadAppConfig(flags)
	if err != nil {
		return err
	}

	keys, keyErr := loadKeys(app.cfg, app.env)
	w := wallet.NewLocal(nil, keys)
	defer w.Close()

	m := newModel(app, w)
	if keyErr != nil {
		m.addLog("error", keyErr.Error())
	}

	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	m.shutdown()
	return err
}

func headlessLogger(verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
}

// openHeadless connects to the active endpoint and binds the campaign
func openHeadless(flags rootFlags, approve wallet.Approver) (*session, *wallet.Local, error) {
	app, err := loadAppConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	keys, err := loadKeys(app.cfg, app.env)
	if err != nil {
		return nil, nil, err
	}

	res := rpc.Connect(app.cfg.ActiveRPC())
	if res.Error != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", app.cfg.ActiveRPC(), res.Error)
	}

	// no chain polling: a headless run is a single request
	app.env.ChainPoll = 0
	w := wallet.NewLocal(nil, keys, wallet.WithApprover(approve))
	s, err := newSession(res.Client, app.cfg, app.env, w, headlessLogger(flags.verbose))
	if err != nil {
		res.Client.Close()
		w.Close()
		return nil, nil, err
	}
	return s, w, nil
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the campaign state and, with a wallet, your contribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, w, err := openHeadless(*flags, wallet.AutoApprove)
			if err != nil {
				return err
			}
			defer w.Close()
			defer s.close()

			if len(w.Accounts()) > 0 {
				if _, _, err := s.ctrl.Connect(ctx); err != nil {
					return errors.New(campaign.Describe(err))
				}
			} else if err := s.ctrl.Refresh(ctx); err != nil {
				return errors.New(campaign.Describe(err))
			}

			printStatus(cmd.OutOrStdout(), s.ctrl.Address(), s.ctrl.State())
			return nil
		},
	}
}

func printStatus(out io.Writer, contract common.Address, st campaign.State) {
	snap := st.Snapshot
	state := "In Progress"
	if snap.Locked {
		state = "Goal Reached!"
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Contract\t%s\n", contract.Hex())
	fmt.Fprintf(tw, "Goal\t%s\n", helpers.FormatETH(snap.Goal))
	fmt.Fprintf(tw, "Raised\t%s\n", helpers.FormatETH(snap.AmountRaised))
	fmt.Fprintf(tw, "Progress\t%s\n", helpers.Progress(snap.AmountRaised, snap.Goal))
	fmt.Fprintf(tw, "State\t%s\n", state)
	if st.Connected() {
		fmt.Fprintf(tw, "Account\t%s (%s)\n", st.Identity.Account.Hex(), st.Identity.Network)
		fmt.Fprintf(tw, "Contributed\t%s\n", helpers.FormatETH(snap.MyContribution))
	}
	tw.Flush()
}

func newAccountsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List signing accounts and their Sepolia balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, w, err := openHeadless(*flags, wallet.AutoApprove)
			if err != nil {
				return err
			}
			defer w.Close()
			defer s.close()

			addrs := w.Accounts()
			if len(addrs) == 0 {
				return errors.New(campaign.Describe(campaign.ErrProviderUnavailable))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, b := range rpc.LoadBalances(s.client, addrs) {
				bal := helpers.FormatETH(b.Wei)
				if b.ErrMessage != "" {
					bal = b.ErrMessage
				}
				fmt.Fprintf(tw, "%s\t%s\n", b.Address.Hex(), bal)
			}
			return tw.Flush()
		},
	}
}

func newTxCmd(flags *rootFlags, kind campaign.Kind) *cobra.Command {
	var tf txFlags

	cmd := &cobra.Command{
		Use:   kind.String() + " AMOUNT",
		Short: fmt.Sprintf("Send a %s in ETH and wait for it to settle", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var approve wallet.Approver = wallet.AutoApprove
			if !tf.yes {
				approve = promptApprover(cmd.InOrStdin(), cmd.ErrOrStderr())
			}

			s, w, err := openHeadless(*flags, approve)
			if err != nil {
				return err
			}
			defer w.Close()
			defer s.close()

			if tf.account != "" {
				if !helpers.IsValidEthAddress(tf.account) {
					return fmt.Errorf("invalid account %q", tf.account)
				}
				if err := w.SelectAccount(common.HexToAddress(tf.account)); err != nil {
					return err
				}
			}

			if _, _, err := s.ctrl.Connect(ctx); err != nil {
				return errors.New(campaign.Describe(err))
			}

			tx, err := s.ctrl.Submit(ctx, kind, args[0])
			if err != nil {
				return errors.New(s.ctrl.State().Status.Text)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), s.ctrl.State().Status.Text)

			if _, err := s.ctrl.Await(ctx, kind, tx); err != nil {
				return errors.New(s.ctrl.State().Status.Text)
			}

			st := s.ctrl.State()
			fmt.Fprintln(cmd.OutOrStdout(), st.Status.Text)
			if n := len(st.Events); n > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), st.Events[n-1].Text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&tf.yes, "yes", "y", false, "approve wallet access without asking")
	cmd.Flags().StringVar(&tf.account, "account", "", "account to sign with (default: first key)")
	return cmd
}

// promptApprover asks on in/out before exposing accounts
func promptApprover(in io.Reader, out io.Writer) wallet.Approver {
	return func(ctx context.Context, accounts []common.Address) error {
		fmt.Fprintf(out, "Allow the campaign client to use %d account(s)?\n", len(accounts))
		for _, a := range accounts {
			fmt.Fprintf(out, "  %s\n", a.Hex())
		}
		fmt.Fprint(out, "[y/N] ")

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %w", wallet.ErrUserRejected, err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return nil
		}
		return wallet.ErrUserRejected
	}
}
