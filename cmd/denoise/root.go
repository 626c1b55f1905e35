package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "denoise",
		Short: "Build face-cropped clip datasets from a manifest",
		Long: "denoise turns a manifest of video ids and time windows into a dataset\n" +
			"of face-cropped clips. Clips move through a durable queue: the fetch\n" +
			"stage downloads and trims each segment, the crop stage tracks the\n" +
			"face and writes the cropped output next to its audio.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(
		newSubmitCommand(ctx),
		newQueueCommand(ctx),
		newDaemonCommand(ctx),
		newDoctorCommand(ctx),
		newConfigCommand(ctx),
	)

	return rootCmd
}
