package main

import (
	"github.com/spf13/cobra"

	"github.com/m3rciful/directorbot/core/buildinfo"
)

type rootFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "directorbot",
		Short: "Chat bot that runs the !director select-and-act dialogue",
		Long: `directorbot answers the trigger message with a direct message holding a
director menu. Once a director is picked the menu turns into a row of set
commands; every press gets a reply only the presser sees. The buttons are
removed when the action window closes.

Discord, Telegram and Slack are supported; BOT_PLATFORM selects one.`,
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, flags)
		},
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to the YAML config file (default: $CONFIG_PATH)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newRunCmd(flags),
		newMigrateCmd(flags),
		newHistoryCmd(flags),
		newVersionCmd(),
	)
	return root
}
