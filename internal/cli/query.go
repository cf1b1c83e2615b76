package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/types"
)

func balanceCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show the settled and nominal balance of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				now := g.now()
				bal, err := s.ledger.BalanceOf(ctx, addr, now)
				if err != nil {
					return err
				}
				nominal, err := s.ledger.BalanceOfWithFee(ctx, addr)
				if err != nil {
					return err
				}
				owed, err := s.ledger.CalculateFee(ctx, addr, now)
				if err != nil {
					return err
				}
				acct, err := s.ledger.Account(ctx, addr)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "balance:   %s\n", formatAmount(ctx, s, bal))
				fmt.Fprintf(out, "nominal:   %s\n", formatAmount(ctx, s, nominal))
				fmt.Fprintf(out, "fee owed:  %s\n", formatAmount(ctx, s, owed))
				fmt.Fprintf(out, "last paid: %d\n", acct.FeeLastPaid)
				fmt.Fprintf(out, "exempt:    %t\n", acct.Exempt)
				return nil
			})
		},
	}
}

func allowanceCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "allowance <owner> <spender>",
		Short: "Show how much spender may move on behalf of owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			spender, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				amount, err := s.ledger.Allowance(ctx, owner, spender)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatAmount(ctx, s, amount))
				return nil
			})
		},
	}
}

func infoCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the token configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session) error {
				tok, err := s.ledger.Token(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "name\t%s\n", tok.Name)
				fmt.Fprintf(w, "symbol\t%s\n", tok.Symbol)
				fmt.Fprintf(w, "decimals\t%d\n", tok.Decimals)
				fmt.Fprintf(w, "total supply\t%s\n", types.FormatUnits(tok.TotalSupply, tok.Decimals))
				fmt.Fprintf(w, "fee rate\t%s\n", types.FormatRate(tok.FeeRate, tok.Decimals))
				fmt.Fprintf(w, "max fee\t%s\n", types.FormatRate(tok.MaxFee, tok.Decimals))
				fmt.Fprintf(w, "last fee change\t%d\n", tok.LastFeeChange)
				fmt.Fprintf(w, "fee change delay\t%ds\n", tok.FeeChangeMinDelay)
				fmt.Fprintf(w, "fee year\t%ds\n", tok.FeeYear)
				fmt.Fprintf(w, "owner\t%s\n", tok.Owner.Hex())
				fmt.Fprintf(w, "minter\t%s\n", tok.Minter.Hex())
				fmt.Fprintf(w, "fee collector\t%s\n", tok.FeeCollector.Hex())
				if tok.HasOracle() {
					fmt.Fprintf(w, "oracle\t%s\n", tok.Oracle.Hex())
				}
				fmt.Fprintf(w, "logic version\t%d\n", tok.Version)
				fmt.Fprintf(w, "forgiveness\t%t\n", tok.Forgiveness)
				return w.Flush()
			})
		},
	}
}

func accountsCmd(g *globals) *cobra.Command {
	var opts demurrage.ListOpts

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts with their settled balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session) error {
				accounts, err := s.ledger.Store().ListAccounts(ctx, opts)
				if err != nil {
					return err
				}

				now := g.now()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ADDRESS\tBALANCE\tNOMINAL\tLAST PAID\tEXEMPT")
				for _, a := range accounts {
					bal, err := s.ledger.BalanceOf(ctx, a.Address, now)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\n",
						a.Address.Hex(),
						formatAmount(ctx, s, bal),
						formatAmount(ctx, s, a.NominalBalance),
						a.FeeLastPaid,
						a.Exempt,
					)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&opts.ExemptOnly, "exempt", false, "only exempt accounts")
	cmd.Flags().BoolVar(&opts.NonEmpty, "non-empty", false, "skip zero balances")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of accounts")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of accounts to skip")
	return cmd
}
