package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

func transferCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Move tokens from --from to another address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := g.call()
			if err != nil {
				return err
			}
			to, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				amount, err := parseAmount(ctx, s, args[1])
				if err != nil {
					return err
				}
				if err := s.ledger.Transfer(ctx, call, to, amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transferred %s to %s\n", args[1], to.Hex())
				return nil
			})
		},
	}
}

func transferAllCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-all <to>",
		Short: "Move the whole settled balance of --from, leaving no dust",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := g.call()
			if err != nil {
				return err
			}
			to, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				moved, err := s.ledger.TransferAll(ctx, call, to)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transferred %s to %s\n", formatAmount(ctx, s, moved), to.Hex())
				return nil
			})
		},
	}
}

func transferFromCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-from <owner> <to> <amount>",
		Short: "Spend an allowance granted to --from",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := g.call()
			if err != nil {
				return err
			}
			owner, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			to, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				amount, err := parseAmount(ctx, s, args[2])
				if err != nil {
					return err
				}
				if err := s.ledger.TransferFrom(ctx, call, owner, to, amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transferred %s from %s to %s\n", args[2], owner.Hex(), to.Hex())
				return nil
			})
		},
	}
}

func approveCmd(g *globals) *cobra.Command {
	var increase, decrease bool

	cmd := &cobra.Command{
		Use:   "approve <spender> <amount|max>",
		Short: "Set, raise or lower the allowance --from grants to spender",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if increase && decrease {
				return errors.New("--increase and --decrease are mutually exclusive")
			}
			call, err := g.call()
			if err != nil {
				return err
			}
			spender, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				var amount *uint256.Int
				if strings.EqualFold(args[1], "max") {
					amount = new(uint256.Int).SetAllOne()
				} else if amount, err = parseAmount(ctx, s, args[1]); err != nil {
					return err
				}

				switch {
				case increase:
					err = s.ledger.IncreaseAllowance(ctx, call, spender, amount)
				case decrease:
					err = s.ledger.DecreaseAllowance(ctx, call, spender, amount)
				default:
					err = s.ledger.Approve(ctx, call, spender, amount)
				}
				if err != nil {
					return err
				}

				current, err := s.ledger.Allowance(ctx, call.Sender, spender)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "allowance for %s: %s\n", spender.Hex(), formatAmount(ctx, s, current))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&increase, "increase", false, "add to the current allowance")
	cmd.Flags().BoolVar(&decrease, "decrease", false, "subtract from the current allowance")
	return cmd
}
