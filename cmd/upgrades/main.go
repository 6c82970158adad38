// Command upgrades plays an idle resource game from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/upgrades/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
