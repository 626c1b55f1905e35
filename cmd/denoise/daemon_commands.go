package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/daemonctl"
	"github.com/AdemFabio/denoise/internal/daemonrun"
	"github.com/AdemFabio/denoise/internal/deps"
	"github.com/AdemFabio/denoise/internal/queue"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run and control the denoise daemon",
	}

	daemonCmd.AddCommand(
		newDaemonRunCommand(ctx),
		newDaemonStartCommand(ctx),
		newDaemonStopCommand(ctx),
		newDaemonRestartCommand(ctx),
		newDaemonStatusCommand(ctx),
	)
	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level for this run")
	return cmd
}

func newDaemonStartCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the denoise daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			exe, err := currentExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(cfg, exe, daemonLaunchOptions(ctx, logLevel), 10*time.Second)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level for the launched daemon")
	return cmd
}

// announceStop reports the outcome of a graceful-or-forced shutdown.
func announceStop(w io.Writer, result daemonctl.StopResult) {
	if result.ForcedKill && result.PID > 0 {
		fmt.Fprintf(w, "Stopping daemon process (pid %d)...\n", result.PID)
	}
	fmt.Fprintln(w, "Daemon stopped")
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the denoise daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := daemonctl.StopAndTerminate(cfg, 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			announceStop(stdout, result)
			return nil
		},
	}
}

func newDaemonRestartCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the denoise daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			exe, err := currentExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(cfg, exe, daemonLaunchOptions(ctx, logLevel), 5*time.Second, 10*time.Second)
			if err != nil {
				return err
			}

			if result.WasRunning {
				announceStop(stdout, result.Stop)
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level for the relaunched daemon")
	return cmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and queue status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			writeSystemSection(stdout, cfg, snapshot, colorize)
			writeDependencySection(stdout, snapshot.Dependencies, colorize)
			writePathsSection(stdout, cfg, colorize)
			writeQueueSection(stdout, snapshot.QueueStats, colorize)
			return nil
		},
	}
}

func printSection(w io.Writer, title string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(w, line)
	}
}

func writeSystemSection(w io.Writer, cfg *config.Config, snapshot *daemonctl.Snapshot, colorize bool) {
	printSection(w, "System Status", colorize)
	if snapshot.Running {
		detail := "Running"
		if snapshot.PID > 0 {
			detail = fmt.Sprintf("Running (pid %d)", snapshot.PID)
		}
		fmt.Fprintln(w, renderStatusLine("Daemon", statusOK, detail, colorize))
	} else {
		fmt.Fprintln(w, renderStatusLine("Daemon", statusInfo, "Stopped", colorize))
	}
	fmt.Fprintln(w, renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d configured", cfg.Workflow.Workers), colorize))
	fmt.Fprintln(w)
}

func writeDependencySection(w io.Writer, statuses []deps.Status, colorize bool) {
	printSection(w, "Dependencies", colorize)
	for _, line := range dependencyLines(statuses, colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

func writePathsSection(w io.Writer, cfg *config.Config, colorize bool) {
	printSection(w, "Dataset Paths", colorize)
	fmt.Fprintln(w, directoryStatusLine("Download directory", cfg.Paths.DownloadDir, colorize))
	fmt.Fprintln(w, directoryStatusLine("Cropped directory", cfg.Paths.CroppedDir, colorize))
	fmt.Fprintln(w, directoryStatusLine("Log directory", cfg.Paths.LogDir, colorize))
	fmt.Fprintln(w)
}

func writeQueueSection(w io.Writer, stats map[queue.Status]int, colorize bool) {
	printSection(w, "Queue Status", colorize)
	total := 0
	for _, count := range stats {
		total += count
	}
	rows := buildQueueStatusRows(stats)
	if len(rows) == 0 || total == 0 {
		fmt.Fprintln(w, "Queue is empty")
		return
	}
	fmt.Fprint(w, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+2)
	missing := deps.MissingRequired(statuses)
	if len(missing) == 0 {
		lines = append(lines, renderStatusLine("Summary", statusOK, "All required tools available", colorize))
	} else {
		lines = append(lines, renderStatusLine("Summary", statusError, fmt.Sprintf("%d required tools missing", len(missing)), colorize))
	}
	for _, status := range statuses {
		if status.Available {
			message := "Ready"
			if status.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", status.Command)
			}
			lines = append(lines, renderStatusLine(status.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(status.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if status.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func currentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{LogLevel: strings.TrimSpace(logLevel)}
	if ctx.configFlag != nil {
		if cfgPath := strings.TrimSpace(*ctx.configFlag); cfgPath != "" {
			opts.ConfigPath = cfgPath
		}
	}
	return opts
}
