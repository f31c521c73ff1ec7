// Verdict is a CLI that reviews a codebase with multiple AI agents, verifies
// every claimed finding against the actual files, and synthesizes a
// cross-source consensus report.
//
// Usage:
//
//	verdict review [dir]                 # collect agent reviews and synthesize
//	verdict synthesize <dir> --input f   # synthesize from pre-collected JSON
//	verdict github <pr-number> [dir]     # review and post the report to a PR
//	verdict agents list                  # list known agent kinds and models
//	verdict agents doctor                # validate agent credentials
//
// See https://github.com/dshills/verdict for full documentation.
package main

import (
	"os"

	"github.com/dshills/verdict/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
