// Command triagem classifies court intimations and delivers the analyses.
package main

import (
	"os"

	"github.com/custodia-labs/triagem/internal/adapters/driving/cli"
	"github.com/custodia-labs/triagem/internal/app"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetRuntime(app.New(version))
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
