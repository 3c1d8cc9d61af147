// Command polcore is the CLI driver around the proof-of-liabilities core.
// It is deliberately thin: every meaningful decision (splitting, tree
// construction, recovery) is made by the library packages at the
// repository root, and this command is the file-I/O and flag-parsing glue
// the specification describes as external to the core.
//
// Usage:
//
//	polcore build  -input triples.csv -block-height 1000 -output tree.txt
//	polcore verify -file tree.txt -account-uid <base32> -account-key <hex> -email <email>
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/RiverFinancial/proof-of-reserves/log"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	log.SetDefault(log.NewWithHandler(log.NewTerminalHandler(os.Stderr, slog.LevelInfo)))
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. It accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch args[0] {
	case "build":
		return runBuild(args[1:])
	case "verify":
		return runVerify(args[1:])
	case "version":
		fmt.Printf("polcore %s (commit %s)\n", version, commit)
		return 0
	case "-h", "--help", "help":
		printUsage()
		return 0
	default:
		log.Error("unknown subcommand", "subcommand", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: polcore <command> [flags]

commands:
  build   build a Merkle sum tree attestation from a liability list
  verify  verify a published attestation and recover one account's balance
  version print version and exit`)
}
