// Command segmaker solves the tag → bit database of an FPGA fuzzer run.
package main

import (
	"fmt"
	"os"

	"github.com/dyluth/segmaker/cmd/segmaker/commands"
)

// Set with -ldflags "-X main.version=..." at release time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Commands print their own formatted errors; only the summary line goes here
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "segmaker: %v\n", err)
		os.Exit(1)
	}
}
