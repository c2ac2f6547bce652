// corectl is the CoreWatch operator command line client.
package main

import (
	"os"

	"github.com/good-yellow-bee/corewatch/cmd/corectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
