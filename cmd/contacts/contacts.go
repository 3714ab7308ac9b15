package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/vesting-console/internal/models"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the wallet's contacts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWallet(); err != nil {
				return err
			}
			a.printContacts(a.store.Contacts())
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var (
		input    models.WorkerInput
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a new contact for the wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWallet(); err != nil {
				return err
			}
			if !common.IsHexAddress(input.WalletAddress) {
				return fmt.Errorf("%q is not a wallet address", input.WalletAddress)
			}
			if inactive {
				active := false
				input.IsActive = &active
			}

			created, err := a.store.CreateContact(cmd.Context(), &input)
			if err != nil {
				return err
			}
			a.printContacts([]models.Worker{*created})
			return nil
		},
	}

	cmd.Flags().StringVarP(&input.FullName, "name", "n", "", "contact's full name.")
	cmd.Flags().StringVarP(&input.WalletAddress, "address", "a", "", "contact's wallet address.")
	cmd.Flags().StringVarP(&input.Email, "email", "e", "", "contact's email.")
	cmd.Flags().StringVarP(&input.Label, "label", "l", "", "free-form label, e.g. a role.")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "save the contact as inactive.")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var (
		name, address, email, label string
		active                      bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a saved contact",
		Long:  "Only the flags you pass are sent; everything else is left as it is.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			patch := &models.WorkerPatch{}
			if flags.Changed("name") {
				patch.FullName = &name
			}
			if flags.Changed("address") {
				if !common.IsHexAddress(address) {
					return fmt.Errorf("%q is not a wallet address", address)
				}
				patch.WalletAddress = &address
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("label") {
				patch.Label = &label
			}
			if flags.Changed("active") {
				patch.IsActive = &active
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			updated, err := a.store.UpdateContact(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			a.printContacts([]models.Worker{*updated})
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new full name.")
	cmd.Flags().StringVarP(&address, "address", "a", "", "new wallet address.")
	cmd.Flags().StringVarP(&email, "email", "e", "", "new email.")
	cmd.Flags().StringVarP(&label, "label", "l", "", "new label.")
	cmd.Flags().BoolVar(&active, "active", true, "whether the contact is active.")
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete saved contacts",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, id := range args {
				if err := a.store.DeleteContact(cmd.Context(), id); err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d deletes failed", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the wallet's contacts by name, address, email or label",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWallet(); err != nil {
				return err
			}
			if err := a.store.SearchContacts(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}
			a.printContacts(a.store.Contacts())
			return nil
		},
	}
}

func (a *app) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count the wallet's active contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWallet(); err != nil {
				return err
			}
			n, err := a.store.CountActive(cmd.Context())
			if err != nil {
				return err
			}
			a.ui.Table(nil, [][]string{{"wallet", a.wallet}, {"active contacts", strconv.Itoa(n)}})
			return nil
		},
	}
}

func (a *app) printContacts(contacts []models.Worker) {
	if len(contacts) == 0 {
		a.ui.Muted("No contacts saved for " + a.wallet)
		return
	}

	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		status := "active"
		if !c.IsActive {
			status = mutedStyle.Render("inactive")
		}
		rows = append(rows, []string{c.ID, c.DisplayName(), c.WalletAddress, c.Email, c.Label, status})
	}
	a.ui.Table([]string{"ID", "NAME", "ADDRESS", "EMAIL", "LABEL", "STATUS"}, rows)
}
