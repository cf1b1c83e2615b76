// Command demurrage operates a demurrage token ledger stored in SQLite.
package main

import (
	"os"

	"github.com/xraph/demurrage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
