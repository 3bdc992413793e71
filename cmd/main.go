// Command gameday runs the multi-webcast grid service.
//
// Usage:
//
//	gameday serve
//	gameday simulate --actions 5000 --sessions 8 --seed 42
//	gameday simulate --url http://localhost:9080 --feed feed.json
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gameday",
		Short:         "Multi-webcast video grid service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newSimulateCmd())
	return root
}
