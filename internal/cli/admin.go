package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/types"
)

// addressCmd builds a command that applies op to a single address argument.
func addressCmd(g *globals, use, short, done string, op func(*demurrage.Ledger, context.Context, demurrage.Call, common.Address) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <address>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := g.call()
			if err != nil {
				return err
			}
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				if err := op(s.ledger, ctx, call, addr); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, addr.Hex())
				return nil
			})
		},
	}
}

func setCollectorCmd(g *globals) *cobra.Command {
	return addressCmd(g, "set-collector", "Replace the fee collector", "fee collector set to", (*demurrage.Ledger).SetFeeCollectionAddress)
}

func setMinterCmd(g *globals) *cobra.Command {
	return addressCmd(g, "set-minter", "Replace the minter", "minter set to", (*demurrage.Ledger).SetMinterRole)
}

func setOracleCmd(g *globals) *cobra.Command {
	return addressCmd(g, "set-oracle", "Set the reserve oracle consulted when minting", "oracle set to", (*demurrage.Ledger).SetOracleAddress)
}

func transferOwnershipCmd(g *globals) *cobra.Command {
	return addressCmd(g, "transfer-ownership", "Hand the owner role to another address", "owner set to", (*demurrage.Ledger).TransferOwnership)
}

func exemptCmd(g *globals, exempt bool) *cobra.Command {
	if exempt {
		return addressCmd(g, "exempt", "Exclude an address from the holding fee", "exempted", (*demurrage.Ledger).SetFeeExempt)
	}
	return addressCmd(g, "unexempt", "Return an address to normal decay", "unexempted", (*demurrage.Ledger).UnsetFeeExempt)
}

func setFeeRateCmd(g *globals) *cobra.Command {
	return rateCmd(g, "set-fee-rate", "Change the yearly fee rate (subject to the change delay)", (*demurrage.Ledger).SetFeeRate)
}

func reduceFeeRateCmd(g *globals) *cobra.Command {
	return rateCmd(g, "reduce-fee-rate", "Lower the yearly fee rate immediately (logic v2)", (*demurrage.Ledger).ReduceFeeRate)
}

func rateCmd(g *globals, use, short string, op func(*demurrage.Ledger, context.Context, demurrage.Call, *uint256.Int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <rate>",
		Short: short,
		Long:  "Rates are yearly percentages (\"2.5%\") or raw integers scaled by 10^decimals.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := g.call()
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				rate, err := parseRate(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := op(s.ledger, ctx, call, rate); err != nil {
					return err
				}
				d, err := decimals(ctx, s)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "fee rate set to %s\n", types.FormatRate(rate, d))
				return nil
			})
		},
	}
}

func upgradeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <version>",
		Short: "Move the token to a newer logic version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := g.call()
			if err != nil {
				return err
			}
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.ledger.Upgrade(ctx, call, uint32(version)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "upgraded to logic v%d\n", version)
				return nil
			})
		},
	}
}
