package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"oven/internal/backends"
	"oven/internal/config"
)

type backendRow struct {
	Name    string            `json:"name"`
	Kind    string            `json:"kind"`
	Channel string            `json:"channel,omitempty"`
	Enabled bool              `json:"enabled"`
	Status  string            `json:"status"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func newBackendsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List configured notification backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := describeBackends(cfg)
			if asJSON {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No backends configured. Add [[backends]] entries to the config file.")
				return nil
			}
			fmt.Fprintln(out, renderBackendTable(rows, shouldColorize(out)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func describeBackends(cfg *config.Config) []backendRow {
	rows := make([]backendRow, 0, len(cfg.Backends))
	for _, entry := range cfg.Backends {
		row := backendRow{Name: entry.Name, Kind: entry.Kind, Enabled: !entry.Disabled}
		b, err := backends.New(entry, cfg.Notifications)
		switch {
		case entry.Disabled:
			row.Status = "disabled"
		case err != nil:
			row.Status = "invalid"
			row.Error = err.Error()
		default:
			row.Status = "ready"
		}
		if b != nil {
			row.Channel = string(b.Channel())
			row.Details = b.Describe()
		}
		rows = append(rows, row)
	}
	return rows
}

func renderBackendTable(rows []backendRow, colorize bool) string {
	title := cases.Title(language.English)
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		detail := row.Error
		if detail == "" {
			detail = formatDetails(row.Details)
		}
		tableRows = append(tableRows, []string{
			row.Name,
			title.String(row.Kind),
			row.Channel,
			yesNo(row.Enabled),
			colorStatus(row.Status, colorize),
			detail,
		})
	}
	return renderTable(
		[]string{"Name", "Kind", "Channel", "Enabled", "Status", "Details"},
		tableRows,
		nil,
		colorize,
	)
}

func colorStatus(status string, colorize bool) string {
	if !colorize {
		return status
	}
	switch status {
	case "ready":
		return ansiGreen + status + ansiReset
	case "invalid":
		return ansiRed + status + ansiReset
	default:
		return ansiYellow + status + ansiReset
	}
}

func formatDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+details[k])
	}
	return strings.Join(parts, " ")
}
