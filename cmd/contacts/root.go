package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/vesting-console/internal/adapter"
	"github.com/vesting-console/internal/config"
	"github.com/vesting-console/internal/logging"
	"github.com/vesting-console/internal/service"
)

// app carries what every subcommand needs once the root pre-run has resolved
// configuration and the wallet.
type app struct {
	out io.Writer
	ui  *terminalUI

	wallet    string
	apiURL    string
	logLevel  string
	reconcile bool

	cfg    *config.Config
	logger *logging.Logger
	store  *service.ContactStore
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, ui: newTerminalUI(out)}

	rootCmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the contacts saved by a wallet",
		Long: `contacts talks to the contacts API the console uses and lets you list,
add, update, remove and search the contacts a wallet has saved.

The wallet is taken from --wallet, falling back to WALLET_ADDRESS. The API
location comes from --api-url or CONTACTS_API_URL.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVarP(&a.wallet, "wallet", "w", "", "owner wallet address. Defaults to WALLET_ADDRESS.")
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "contacts API base URL. Defaults to CONTACTS_API_URL.")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level written to stderr: debug, info, warn or error.")
	rootCmd.PersistentFlags().BoolVar(&a.reconcile, "reconcile", false, "reload the list from the API after every change.")

	rootCmd.AddCommand(
		a.listCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.removeCmd(),
		a.searchCmd(),
		a.countCmd(),
		a.balanceCmd(),
	)
	return rootCmd
}

// setup loads configuration and connects the contact store to the wallet
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.ContactsAPI.BaseURL = strings.TrimRight(a.apiURL, "/")
	}
	if a.wallet == "" {
		a.wallet = cfg.Wallet.Address
	}
	if a.wallet != "" && !common.IsHexAddress(a.wallet) {
		return fmt.Errorf("%q is not a wallet address", a.wallet)
	}
	a.cfg = cfg

	a.logger = logging.NewLoggerTo(os.Stderr, logging.ParseLogLevel(a.logLevel), logging.FormatText).
		WithComponent("contacts_cli")

	if cmd.Name() == "balance" {
		return nil
	}
	if cfg.ContactsAPI.BaseURL == "" {
		return fmt.Errorf("no contacts API configured: pass --api-url or set CONTACTS_API_URL")
	}

	client, err := adapter.NewContactsClient(&adapter.ContactsClientConfig{
		BaseURL:           cfg.ContactsAPI.BaseURL,
		Timeout:           cfg.ContactsAPI.Timeout,
		RequestsPerSecond: cfg.ContactsAPI.RequestsPerSecond,
		BreakerFailures:   cfg.ContactsAPI.BreakerFailures,
		BreakerCooldown:   cfg.ContactsAPI.BreakerCooldown,
		Logger:            a.logger,
	})
	if err != nil {
		return err
	}

	a.store = service.NewContactStore(client, a.ui, &service.ContactStoreConfig{
		ReconcileAfterMutation: a.reconcile || cfg.Store.ReconcileAfterMutation,
		Logger:                 a.logger,
	})
	if a.wallet == "" {
		return nil
	}
	return a.store.SetWallet(cmd.Context(), a.wallet)
}

// requireWallet fails commands that only make sense for a connected wallet
func (a *app) requireWallet() error {
	if a.wallet == "" {
		return fmt.Errorf("no wallet: pass --wallet or set WALLET_ADDRESS")
	}
	return nil
}
