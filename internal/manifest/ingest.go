package manifest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/services"
)

// Options adjusts one ingestion run.
type Options struct {
	// DownloadDir and CroppedDir override the configured split directories,
	// so train and validation manifests can land in separate trees.
	DownloadDir string
	CroppedDir  string
	// Limit caps accepted rows; 0 means no cap.
	Limit int
	// OnRow, when set, observes every processed row in file order.
	OnRow func(Outcome)
}

// Summary totals one ingestion run.
type Summary struct {
	Rows       int
	Accepted   int
	TooShort   int
	Invalid    int
	Duplicates int
}

// Ingestor reads manifests and enqueues fetch work.
type Ingestor struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewIngestor constructs a manifest ingestor.
func NewIngestor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Ingestor {
	if logger != nil {
		logger = logger.With(logging.String("component", "manifest"))
	}
	return &Ingestor{store: store, cfg: cfg, logger: logger}
}

// IngestFile ingests the manifest at path.
func (ing *Ingestor) IngestFile(ctx context.Context, path string, opts Options) (Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrValidation, "manifest", "open manifest", "Manifest file is unreadable", err)
	}
	defer file.Close()
	return ing.Ingest(ctx, file, opts)
}

// Ingest reads headerless CSV rows from r and enqueues the accepted ones.
// Row-level problems (bad tokens, short intervals, duplicates) are counted
// and reported through OnRow; only malformed CSV or queue failures abort.
func (ing *Ingestor) Ingest(ctx context.Context, r io.Reader, opts Options) (Summary, error) {
	downloadDir := strings.TrimSpace(opts.DownloadDir)
	if downloadDir == "" {
		downloadDir = ing.cfg.Paths.DownloadDir
	}
	croppedDir := strings.TrimSpace(opts.CroppedDir)
	if croppedDir == "" {
		croppedDir = ing.cfg.Paths.CroppedDir
	}
	duration := ing.cfg.Manifest.ClipDuration

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var summary Summary
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, services.Wrap(
				services.ErrValidation,
				"manifest",
				"parse manifest",
				fmt.Sprintf("Malformed CSV near row %d", summary.Rows+1),
				err,
			)
		}
		summary.Rows++
		line := summary.Rows

		row, err := parseRow(record)
		if err != nil {
			summary.Invalid++
			ing.report(opts, Outcome{Line: line, Disposition: RowInvalid, Detail: err.Error()})
			continue
		}
		if row.End-row.Start < duration {
			summary.TooShort++
			ing.report(opts, Outcome{Line: line, ClipID: row.ClipID, Disposition: RowTooShort})
			continue
		}

		_, err = ing.store.NewClip(ctx, queue.ClipRequest{
			ClipID:      row.ClipID,
			Start:       row.Window(duration),
			Duration:    duration,
			DownloadDir: downloadDir,
			CroppedDir:  croppedDir,
			MaxHeight:   ing.cfg.Fetch.MaxHeight,
		})
		if errors.Is(err, queue.ErrDuplicateClip) {
			summary.Duplicates++
			ing.report(opts, Outcome{Line: line, ClipID: row.ClipID, Disposition: RowDuplicate})
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("enqueue clip %s: %w", row.ClipID, err)
		}
		summary.Accepted++
		ing.report(opts, Outcome{Line: line, ClipID: row.ClipID, Disposition: RowAccepted})

		if opts.Limit > 0 && summary.Accepted >= opts.Limit {
			break
		}
	}

	if ing.logger != nil {
		ing.logger.Info(
			"manifest ingested",
			logging.Int("rows", summary.Rows),
			logging.Int("accepted", summary.Accepted),
			logging.Int("too_short", summary.TooShort),
			logging.Int("invalid", summary.Invalid),
			logging.Int("duplicates", summary.Duplicates),
		)
	}
	return summary, nil
}

func (ing *Ingestor) report(opts Options, outcome Outcome) {
	if opts.OnRow != nil {
		opts.OnRow(outcome)
	}
}
