// Package cli implements the pulsegen command-line interface.
//
// This package provides commands for compiling pulse schedule documents,
// inspecting their layout, rendering diagrams and serving the compile API.
// The CLI is built using cobra, reads its configuration through viper
// (see internal/config) and logs with charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - compile: Compile one or more documents to instruction JSON
//   - layout: Print the arranged element tree as a table
//   - tree: Render the element tree as DOT, SVG, PDF or PNG
//   - timeline: Render the compiled instructions as a per-channel timeline
//   - convert: Convert documents between YAML, JSON and HCL input
//   - inspect: Browse compiled instructions interactively
//   - serve: Run the HTTP compile API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. When log.file
// is configured, output is also written to a rotated log file. Loggers are
// passed through context.Context.
//
// # Example
//
//	import "github.com/kahojyun/pulsegen/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"os"
)

// Execute runs the pulsegen CLI with stderr logging and returns the first
// command error.
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	defer c.Close()
	return c.RootCommand().ExecuteContext(ctx)
}
