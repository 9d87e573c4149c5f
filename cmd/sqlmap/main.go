// Command sqlmap renders and runs mapper statements from the command line.
package main

import (
	"os"

	"github.com/Konsultn-Engineering/sqlmap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
