// The lexipipe binary is the command-line interface for operators:
// seeding-job control, classification queries, POS annotation, lexicon
// imports, and schema migrations.
package main

import (
	"os"

	"github.com/tupiana/lexipipe/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
