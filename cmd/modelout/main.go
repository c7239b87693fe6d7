// Command modelout fetches and safely unpacks training job output bundles.
package main

import (
	"os"

	"github.com/havenml/modelout/cmd/modelout/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
