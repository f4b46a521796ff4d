package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"oven/internal/logging"
	"oven/internal/metrics"
	"oven/internal/tracker"
	"oven/internal/trigger"
)

type runOptions struct {
	description string
	heartbeat   time.Duration
	metricsBind string
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command and notify on start, progress, and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrapped(cmd, ctx, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Text shown under every notification")
	cmd.Flags().DurationVar(&opts.heartbeat, "heartbeat", 0, "Send a running notification at this interval (0 disables)")
	cmd.Flags().StringVar(&opts.metricsBind, "metrics-bind", "", "Serve Prometheus metrics on this address (overrides metrics.bind)")
	return cmd
}

func runWrapped(cmd *cobra.Command, ctx *commandContext, opts runOptions, args []string) error {
	rt, err := ctx.openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	policy, err := trigger.FromConfig(rt.cfg.Trigger)
	if err != nil {
		return err
	}

	bind := strings.TrimSpace(opts.metricsBind)
	if bind == "" {
		bind = rt.cfg.Metrics.Bind
	}
	if bind != "" {
		stop, err := serveMetrics(bind, rt)
		if err != nil {
			return err
		}
		defer stop()
	}

	trackerOpts := []tracker.Option{
		tracker.WithLogger(rt.logger),
		tracker.WithHost(rt.host),
		tracker.WithCommand(strings.Join(args, " ")),
	}
	if rt.history != nil {
		trackerOpts = append(trackerOpts, tracker.WithRecorder(rt.history))
	}
	tr := tracker.New(rt.dispatcher, policy, trackerOpts...)
	logger := logging.WithSessionID(rt.logger, tr.SessionID())

	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	sigCtx, stopSignals := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if _, err := tr.Init(sigCtx); err != nil {
		return err
	}
	if _, err := tr.Start(sigCtx, opts.description); err != nil {
		return err
	}

	child := exec.CommandContext(sigCtx, args[0], args[1:]...)
	child.Stdin = cmd.InOrStdin()
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()

	logger.Info("command started",
		logging.String("command", strings.Join(args, " ")),
		logging.Int("backends", rt.dispatcher.Len()),
		logging.String("trigger", policy.Name()),
	)

	if err := child.Start(); err != nil {
		_, _ = tr.Fail(sigCtx, err, opts.description)
		return fmt.Errorf("start %s: %w", args[0], err)
	}

	done := make(chan error, 1)
	go func() { done <- child.Wait() }()

	var ticks <-chan time.Time
	if opts.heartbeat > 0 {
		ticker := time.NewTicker(opts.heartbeat)
		defer ticker.Stop()
		ticks = ticker.C
	}

	startedAt := time.Now()
	var waitErr error
loop:
	for {
		select {
		case waitErr = <-done:
			break loop
		case <-ticks:
			desc := opts.description
			if desc == "" {
				desc = "running for " + time.Since(startedAt).Round(time.Second).String()
			}
			if _, err := tr.Progress(sigCtx, 0, desc); err != nil {
				logger.Warn("heartbeat rejected", logging.Error(err))
			}
		}
	}

	if sigCtx.Err() != nil && waitErr != nil {
		waitErr = fmt.Errorf("interrupted: %w", waitErr)
	}

	if waitErr == nil {
		report, err := tr.Terminate(sigCtx, opts.description)
		if err != nil {
			return err
		}
		logger.Info("command finished",
			logging.Duration("elapsed", time.Since(startedAt)),
			logging.Int("delivered", report.Outcome.Succeeded()),
		)
		return nil
	}

	report, err := tr.Fail(sigCtx, waitErr, opts.description)
	if err != nil {
		return err
	}
	logger.Info("command failed",
		logging.Error(waitErr),
		logging.Duration("elapsed", time.Since(startedAt)),
		logging.Int("delivered", report.Outcome.Succeeded()),
	)

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) && exitErr.ExitCode() > 0 {
		return &exitError{code: exitErr.ExitCode()}
	}
	return waitErr
}

func serveMetrics(bind string, rt *runtime) (func(), error) {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", bind, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Warn("metrics server stopped", logging.Error(err))
		}
	}()
	rt.logger.Info("metrics endpoint listening", logging.String("addr", listener.Addr().String()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
