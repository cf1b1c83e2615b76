package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/internal/config"
	"github.com/xraph/demurrage/oracle"
	"github.com/xraph/demurrage/store/sqlite"
	"github.com/xraph/demurrage/types"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	db      string
	from    string
	at      int64
	verbose bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "demurrage",
		Short: "Demurrage token ledger",
		Long: "Demurrage runs a token ledger whose balances decay through a yearly holding fee. " +
			"State lives in a single SQLite file.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.db, "db", "", "ledger database file (default $DEMURRAGE_DB or ./demurrage.db)")
	pf.StringVar(&g.from, "from", "", "address of the caller")
	pf.Int64Var(&g.at, "at", 0, "ledger time in unix seconds (default now)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log ledger activity to stderr")

	root.AddCommand(
		versionCmd(),
		initCmd(g),
		balanceCmd(g),
		allowanceCmd(g),
		infoCmd(g),
		accountsCmd(g),
		transferCmd(g),
		transferAllCmd(g),
		transferFromCmd(g),
		approveCmd(g),
		mintCmd(g),
		burnCmd(g),
		collectCmd(g),
		setFeeRateCmd(g),
		reduceFeeRateCmd(g),
		setCollectorCmd(g),
		setMinterCmd(g),
		setOracleCmd(g),
		exemptCmd(g, true),
		exemptCmd(g, false),
		transferOwnershipCmd(g),
		upgradeCmd(g),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// session is an open ledger for the duration of one command.
type session struct {
	ledger  *demurrage.Ledger
	oracles *oracle.Registry
}

func (g *globals) open(ctx context.Context) (*session, error) {
	store, err := sqlite.Open(config.DBPath(g.db))
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s := &session{oracles: oracle.NewRegistry()}
	s.ledger = demurrage.New(store,
		demurrage.WithLogger(logger),
		demurrage.WithOracles(s.oracles),
	)
	if err := s.ledger.Start(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) close(ctx context.Context) {
	s.ledger.Stop(ctx) //nolint:errcheck // every write is already committed
}

// run opens the ledger, calls fn and closes it again.
func (g *globals) run(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)
	return fn(ctx, s)
}

func (g *globals) now() uint64 {
	if g.at > 0 {
		return uint64(g.at)
	}
	return uint64(time.Now().Unix())
}

func (g *globals) call() (demurrage.Call, error) {
	if g.from == "" {
		return demurrage.Call{}, errors.New("--from is required")
	}
	sender, err := parseAddress(g.from)
	if err != nil {
		return demurrage.Call{}, err
	}
	return demurrage.At(sender, g.now()), nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// decimals returns the token precision, or an error if the ledger has not
// been initialized.
func decimals(ctx context.Context, s *session) (uint8, error) {
	tok, err := s.ledger.Token(ctx)
	if err != nil {
		return 0, err
	}
	return tok.Decimals, nil
}

func parseAmount(ctx context.Context, s *session, arg string) (*uint256.Int, error) {
	d, err := decimals(ctx, s)
	if err != nil {
		return nil, err
	}
	return types.ParseUnits(arg, d)
}

func parseRate(ctx context.Context, s *session, arg string) (*uint256.Int, error) {
	d, err := decimals(ctx, s)
	if err != nil {
		return nil, err
	}
	return types.ParseRate(arg, d)
}

func formatAmount(ctx context.Context, s *session, v *uint256.Int) string {
	d, err := decimals(ctx, s)
	if err != nil {
		return v.Dec()
	}
	return types.FormatUnits(v, d)
}
