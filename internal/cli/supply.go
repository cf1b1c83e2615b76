package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/oracle"
)

func mintCmd(g *globals) *cobra.Command {
	var lockedValue string

	cmd := &cobra.Command{
		Use:   "mint <amount>",
		Short: "Mint new supply to the minter (--from)",
		Long: "Mint credits new supply to the minter. When the token has an oracle, --locked-value " +
			"supplies the reserve it reports and the resulting supply may not exceed it.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := g.call()
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				amount, err := parseAmount(ctx, s, args[0])
				if err != nil {
					return err
				}

				if lockedValue != "" {
					tok, err := s.ledger.Token(ctx)
					if err != nil {
						return err
					}
					if !tok.HasOracle() {
						return errors.New("--locked-value given but the token has no oracle")
					}
					locked, err := parseAmount(ctx, s, lockedValue)
					if err != nil {
						return err
					}
					s.oracles.Register(tok.Oracle, oracle.NewStatic(locked))
				}

				if err := s.ledger.Mint(ctx, call, amount); err != nil {
					return err
				}
				supply, err := s.ledger.TotalSupply(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "minted %s, total supply %s\n", args[0], formatAmount(ctx, s, supply))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&lockedValue, "locked-value", "", "reserve reported by the oracle, in tokens")
	return cmd
}

func burnCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "burn <from> <amount>",
		Short: "Burn tokens from an address that approved the minter (--from)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := g.call()
			if err != nil {
				return err
			}
			from, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				amount, err := parseAmount(ctx, s, args[1])
				if err != nil {
					return err
				}
				if err := s.ledger.Burn(ctx, call, from, amount); err != nil {
					return err
				}
				supply, err := s.ledger.TotalSupply(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "burned %s, total supply %s\n", args[1], formatAmount(ctx, s, supply))
				return nil
			})
		},
	}
}

func collectCmd(g *globals) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "collect [address...]",
		Short: "Settle holding fees and sweep them to the fee collector",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("pass addresses or --all")
			}
			call, err := g.call()
			if err != nil {
				return err
			}

			addrs := make([]common.Address, 0, len(args))
			for _, a := range args {
				addr, err := parseAddress(a)
				if err != nil {
					return err
				}
				addrs = append(addrs, addr)
			}

			return g.run(cmd, func(ctx context.Context, s *session) error {
				if all {
					accounts, err := s.ledger.Store().ListAccounts(ctx, demurrage.ListOpts{NonEmpty: true})
					if err != nil {
						return err
					}
					for _, a := range accounts {
						addrs = append(addrs, a.Address)
					}
				}

				collected, err := s.ledger.CollectFees(ctx, call, addrs...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "collected %s from %d accounts\n", formatAmount(ctx, s, collected), len(addrs))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "collect from every non-empty account")
	return cmd
}
