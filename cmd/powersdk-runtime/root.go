package main

import (
	"github.com/spf13/cobra"

	"github.com/stationkit/powersdk/clog"
)

var verbosity int

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "powersdk-runtime",
		Short:         "Power SDK runtime — multi-device pipeline CLI",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			clog.SetGlobalMode(verbosity > 0)
		},
	}
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	root.AddCommand(newRuntimeCmd())
	return root
}
