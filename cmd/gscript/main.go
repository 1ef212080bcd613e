// Command gscript checks, compiles, disassembles and runs gscript files.
package main

import (
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
		os.Exit(1)
	}
}
