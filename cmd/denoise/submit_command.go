package main

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/manifest"
	"github.com/AdemFabio/denoise/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var downloadDir string
	var croppedDir string
	var limit int

	cmd := &cobra.Command{
		Use:   "submit <manifest.csv>",
		Short: "Enqueue clips from a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				bar := progressbar.NewOptions(-1,
					progressbar.OptionSetDescription("Submitting"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
				)

				ingestor := manifest.NewIngestor(cfg, store, logging.NewNop())
				summary, err := ingestor.IngestFile(cmd.Context(), args[0], manifest.Options{
					DownloadDir: downloadDir,
					CroppedDir:  croppedDir,
					Limit:       limit,
					OnRow: func(manifest.Outcome) {
						_ = bar.Add(1)
					},
				})
				_ = bar.Finish()
				if err != nil {
					return err
				}

				printer := message.NewPrinter(language.English)
				out := cmd.OutOrStdout()
				printer.Fprintf(out, "Accepted %d of %d rows\n", summary.Accepted, summary.Rows)
				if summary.TooShort > 0 {
					printer.Fprintf(out, "Skipped %d rows shorter than %.1fs\n", summary.TooShort, cfg.Manifest.ClipDuration)
				}
				if summary.Invalid > 0 {
					printer.Fprintf(out, "Skipped %d invalid rows\n", summary.Invalid)
				}
				if summary.Duplicates > 0 {
					printer.Fprintf(out, "Skipped %d duplicate clips\n", summary.Duplicates)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "Override the download directory for this manifest")
	cmd.Flags().StringVar(&croppedDir, "cropped-dir", "", "Override the cropped directory for this manifest")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after accepting this many clips (0 = no limit)")
	return cmd
}
