package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AdemFabio/denoise/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the clip queue",
	}
	queueCmd.AddCommand(
		newQueueStatusCommand(ctx),
		newQueueListCommand(ctx),
		newQueueShowCommand(ctx),
		newQueueClearCommand(ctx),
		newQueueClearCompletedCommand(ctx),
		newQueueClearFailedCommand(ctx),
		newQueueResetCommand(ctx),
		newQueueRetryCommand(ctx),
		newQueueHealthSubcommand(ctx),
	)
	return queueCmd
}

// countAndPrint opens the store, runs fn, and prints format with the count
// it returned. Most queue maintenance commands reduce to this.
func countAndPrint(ctx *commandContext, cmd *cobra.Command, format string, fn func(*queue.Store) (int64, error)) error {
	return ctx.withStore(func(store *queue.Store) error {
		count, err := fn(store)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), format, count)
		return nil
	})
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize queue items by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				total := 0
				for _, count := range stats {
					total += count
				}
				if total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Count"},
					buildQueueStatusRows(stats),
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := parseStatusFilters(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Clip", "Status", "Progress", "Created"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Only show items with this status (repeatable)")
	return cmd
}

func parseStatusFilters(raw []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(raw))
	for _, value := range raw {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|clip-id>",
		Short: "Show one queue item in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				item, err := lookupItem(cmd, store, args[0])
				switch {
				case errors.Is(err, queue.ErrNotFound):
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s not found\n", args[0])
					return nil
				case err != nil:
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Field", "Value"},
					buildItemDetailRows(item),
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

// lookupItem resolves a positional argument as a numeric row id first and a
// manifest clip id second.
func lookupItem(cmd *cobra.Command, store *queue.Store, arg string) (*queue.Item, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return store.GetByID(cmd.Context(), id)
	}
	return store.GetByClipID(cmd.Context(), arg)
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var (
		clearCompleted bool
		clearFailed    bool
		clearForce     bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete items from the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clearCompleted && clearFailed {
				return errors.New("--completed and --failed cannot be combined")
			}
			if clearForce {
				fmt.Fprintln(cmd.OutOrStdout(), "Clearing queue without confirmation (--force)")
			}
			switch {
			case clearCompleted:
				return countAndPrint(ctx, cmd, "Cleared %d completed items\n", func(store *queue.Store) (int64, error) {
					return store.ClearByStatus(cmd.Context(), queue.StatusCompleted)
				})
			case clearFailed:
				return countAndPrint(ctx, cmd, "Cleared %d failed items\n", func(store *queue.Store) (int64, error) {
					return store.ClearByStatus(cmd.Context(), queue.StatusFailed)
				})
			default:
				return countAndPrint(ctx, cmd, "Cleared %d queue items\n", func(store *queue.Store) (int64, error) {
					return store.Clear(cmd.Context())
				})
			}
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Drop completed items and keep everything else")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Drop failed items and keep everything else")
	cmd.Flags().BoolVar(&clearForce, "force", false, "Acknowledge the removal instead of prompting")
	return cmd
}

func newQueueClearCompletedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Drop completed items from the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return countAndPrint(ctx, cmd, "Cleared %d completed items\n", func(store *queue.Store) (int64, error) {
				return store.ClearByStatus(cmd.Context(), queue.StatusCompleted)
			})
		},
	}
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Drop failed items from the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return countAndPrint(ctx, cmd, "Cleared %d failed items\n", func(store *queue.Store) (int64, error) {
				return store.ClearByStatus(cmd.Context(), queue.StatusFailed)
			})
		},
	}
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "reset-stuck",
		Aliases: []string{"reset"},
		Short:   "Return in-flight items to their waiting status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return countAndPrint(ctx, cmd, "Reset %d items\n", func(store *queue.Store) (int64, error) {
				return store.ResetStuckProcessing(cmd.Context())
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Requeue failed items",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseItemIDs(args)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return countAndPrint(ctx, cmd, "Retried %d failed items\n", func(store *queue.Store) (int64, error) {
					return store.RetryFailed(cmd.Context())
				})
			}
			return ctx.withStore(func(store *queue.Store) error {
				for _, id := range ids {
					if err := retryOne(cmd, store, id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func parseItemIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func retryOne(cmd *cobra.Command, store *queue.Store, id int64) error {
	out := cmd.OutOrStdout()
	item, err := store.GetByID(cmd.Context(), id)
	switch {
	case errors.Is(err, queue.ErrNotFound):
		fmt.Fprintf(out, "Item %d not found\n", id)
		return nil
	case err != nil:
		return err
	}
	if item.Status != queue.StatusFailed {
		fmt.Fprintf(out, "Item %d is not in failed state\n", id)
		return nil
	}
	updated, err := store.RetryFailed(cmd.Context(), id)
	if err != nil {
		return err
	}
	if updated == 0 {
		fmt.Fprintf(out, "Item %d is not in failed state\n", id)
		return nil
	}
	fmt.Fprintf(out, "Item %d reset for retry\n", id)
	return nil
}

func newQueueHealthSubcommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total: %d\n", health.Total)
				fmt.Fprintf(out, "Pending: %d\n", health.Pending)
				fmt.Fprintf(out, "Processing: %d\n", health.Processing)
				fmt.Fprintf(out, "Failed: %d\n", health.Failed)
				fmt.Fprintf(out, "Rejected: %d\n", health.Rejected)
				fmt.Fprintf(out, "Completed: %d\n", health.Completed)
				return nil
			})
		},
	}
}
