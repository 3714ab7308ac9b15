package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/vesting-console/internal/adapter"
	"github.com/vesting-console/internal/recipients"
)

const nativeDecimals = 18

func (a *app) balanceCmd() *cobra.Command {
	var (
		endpoints []string
		tokens    []string
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the wallet's native and token balances",
		Long: `Reads balances from the default chain's RPC endpoints, or from the
endpoints passed with --rpc. Tokens default to PAYROLL_TOKEN_ADDRESS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWallet(); err != nil {
				return err
			}

			if len(endpoints) == 0 {
				chain, ok := a.cfg.DefaultChain()
				if !ok || chain.RPCPrimary == "" {
					return fmt.Errorf("no RPC endpoint for chain %q: pass --rpc or set %s_RPC_PRIMARY", a.cfg.Chains.Default, a.cfg.Chains.Default)
				}
				endpoints = []string{chain.RPCPrimary, chain.RPCSecondary}
			}
			if len(tokens) == 0 && a.cfg.Token.Address != "" {
				tokens = []string{a.cfg.Token.Address}
			}

			reader, err := adapter.DialChainReader(cmd.Context(), endpoints, a.logger)
			if err != nil {
				return err
			}
			account := common.HexToAddress(a.wallet)

			native, err := reader.NativeBalance(cmd.Context(), account)
			if err != nil {
				return err
			}
			rows := [][]string{{"native", "", recipients.FormatAmount(native, nativeDecimals)}}

			for _, token := range tokens {
				if !common.IsHexAddress(token) {
					return fmt.Errorf("%q is not a token address", token)
				}
				balance, err := reader.TokenBalance(cmd.Context(), common.HexToAddress(token), account)
				if err != nil {
					a.logger.WithError(err).WithField("token", token).Warn("Token balance unavailable")
					rows = append(rows, []string{token, "", failureStyle.Render("unavailable")})
					continue
				}
				rows = append(rows, []string{
					balance.Token.Hex(),
					balance.Symbol,
					recipients.FormatAmount(balance.Balance, int32(balance.Decimals)),
				})
			}

			a.ui.Table([]string{"ASSET", "SYMBOL", "BALANCE"}, rows)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&endpoints, "rpc", nil, "RPC endpoints to read from, tried in order.")
	cmd.Flags().StringSliceVarP(&tokens, "token", "t", nil, "ERC-20 token addresses to read.")
	return cmd
}
