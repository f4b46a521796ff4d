package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"oven/internal/history"
)

type historyRow struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Signal    string    `json:"signal"`
	Backend   string    `json:"backend"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		session string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent notification deliveries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				var (
					entries []history.Entry
					err     error
				)
				if id := strings.TrimSpace(session); id != "" {
					entries, err = store.Session(cmd.Context(), id)
				} else {
					entries, err = store.Recent(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, historyRows(entries))
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No deliveries recorded")
					return nil
				}
				fmt.Fprintln(out, renderHistoryTable(entries, shouldColorize(out)))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().StringVar(&session, "session", "", "Show every delivery of one session")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every journaled delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
				return nil
			})
		},
	}
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled (set history.enabled = true)")
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func historyRows(entries []history.Entry) []historyRow {
	rows := make([]historyRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, historyRow{
			ID:        e.ID,
			SessionID: e.SessionID,
			Signal:    e.Signal,
			Backend:   e.Backend,
			OK:        e.OK,
			Error:     e.Error,
			ElapsedMS: e.Elapsed.Milliseconds(),
			CreatedAt: e.CreatedAt,
		})
	}
	return rows
}

func renderHistoryTable(entries []history.Entry, colorize bool) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		result := "ok"
		if !e.OK {
			result = "failed"
			if e.Error != "" {
				result += ": " + e.Error
			}
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			shortSession(e.SessionID),
			e.Signal,
			e.Backend,
			e.Elapsed.Round(time.Millisecond).String(),
			result,
		})
	}
	return renderTable(
		[]string{"ID", "Time", "Session", "Signal", "Backend", "Elapsed", "Result"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		colorize,
	)
}

func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
