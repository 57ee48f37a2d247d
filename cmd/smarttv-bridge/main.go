// Command smarttv-bridge runs the chat-file-to-smart-TV streaming bridge
// (spec §1/§6): by default it serves, or with the healthcheck subcommand it
// probes a running instance's /healthcheck endpoint and exits 0/1.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbosity  int
)

func main() {
	root := &cobra.Command{
		Use:          "smarttv-bridge",
		Short:        "Bridge chat-hosted files to DLNA/Chromecast/Kodi/VLC/web players",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.ini", "path to the .ini configuration file")
	root.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 1, "log verbosity: 0=warn 1=info 2=debug")

	root.AddCommand(newServeCmd(), newHealthcheckCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
