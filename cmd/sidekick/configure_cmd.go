package main

import (
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Apply configured tweaks to app and emulator config files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return runConfigurer(cfg)
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
