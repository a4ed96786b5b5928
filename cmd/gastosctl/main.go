// Command gastosctl runs maintenance tasks against the gastos database:
// processing due recurring definitions, printing budget reports and
// managing schema migrations.
package main

import (
	"os"

	"gastos/internal/logger"
)

func main() {
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
