// Command tracbench benchmarks TraClus implementations against each other.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/tracbench/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands report their own failures; only cobra's usage errors are
	// left to print here.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
