package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"oven/internal/format"
	"oven/internal/notifications"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a one-off log message to every backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.TrimSpace(strings.Join(args, " "))
			if msg == "" {
				return errors.New("message is empty")
			}
			return sendMessage(cmd, ctx, "Send", msg, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	return cmd
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to every backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendMessage(cmd, ctx, "Test notification", "Test notification from oven", asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	return cmd
}

type deliveryJSON struct {
	Backend   string `json:"backend"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

func sendMessage(cmd *cobra.Command, ctx *commandContext, title, msg string, asJSON bool) error {
	rt, err := ctx.openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	now := time.Now()
	outcome := rt.dispatcher.DispatchEach(cmd.Context(), func(b notifications.Backend) notifications.Payload {
		return format.Message(format.StyleFor(b.Channel()), rt.host, now, msg)
	})

	if asJSON {
		rows := make([]deliveryJSON, 0, len(outcome.Results))
		for _, res := range outcome.Results {
			rows = append(rows, deliveryJSON{
				Backend:   res.Backend,
				OK:        !res.HasError,
				Error:     res.Error,
				ElapsedMS: res.Elapsed.Milliseconds(),
			})
		}
		if err := writeJSON(cmd, rows); err != nil {
			return err
		}
	} else {
		writeOutcome(cmd.OutOrStdout(), title, outcome, rt.buildErrs)
	}

	if len(outcome.Results) > 0 && outcome.Succeeded() == 0 {
		return errors.New("no backend accepted the notification")
	}
	return nil
}
