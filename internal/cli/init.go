package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/demurrage/internal/config"
)

func initCmd(g *globals) *cobra.Command {
	var (
		genesisPath string
		preset      string
		writeTo     string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the token from a genesis file or preset",
		Long: "Initialize writes the token configuration once. Without --genesis the preset is used " +
			"with every role held by --from.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				fg  config.Genesis
				err error
			)
			if genesisPath != "" {
				fg, err = config.Load(genesisPath)
				if err != nil {
					return err
				}
			} else {
				if g.from == "" {
					return errors.New("--from or --genesis is required")
				}
				fg = config.Default(preset, g.from)
			}

			if writeTo != "" {
				if err := config.Save(writeTo, fg); err != nil {
					return err
				}
			}

			genesis, err := fg.Build()
			if err != nil {
				return err
			}

			return g.run(cmd, func(ctx context.Context, s *session) error {
				tok, err := s.ledger.Initialize(ctx, genesis, g.now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "initialized %s (%s), owner %s, logic v%d\n",
					tok.Name, tok.Symbol, tok.Owner.Hex(), tok.Version)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&genesisPath, "genesis", "", "YAML genesis file")
	cmd.Flags().StringVar(&preset, "preset", config.PresetSilver, "preset when no genesis file is given (silver, gold)")
	cmd.Flags().StringVar(&writeTo, "write-genesis", "", "also save the effective genesis to this file")
	return cmd
}
