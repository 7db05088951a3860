package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "topicprep",
		Short:         "Prepare text corpora for topic modeling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			ctx.setupLogging(cmd.ErrOrStderr())
			return ctx.startProfile()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.stopProfile()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")
	flags.StringVar(&ctx.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&ctx.logFormat, "log-format", "", "Log format (text, json)")
	flags.StringVar(&ctx.profileMode, "profile", "", "Write a cpu or mem profile")
	flags.StringVar(&ctx.profileDir, "profile-dir", ".", "Directory for profile output")

	rootCmd.AddCommand(newBowCommand(ctx))
	rootCmd.AddCommand(newTokenizeCommand(ctx))
	rootCmd.AddCommand(newSegmentCommand(ctx))
	rootCmd.AddCommand(newStopwordsCommand(ctx))
	rootCmd.AddCommand(newHapaxCommand(ctx))
	rootCmd.AddCommand(newMalletCommand(ctx))
	rootCmd.AddCommand(newTopicsCommand(ctx))
	rootCmd.AddCommand(newCorporaCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))

	return rootCmd
}
