package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ib-77/statechart/pkg/statechart/runner"
	"github.com/ib-77/statechart/pkg/statechart/wsbridge"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [chart.yaml]",
		Short: "Accept events for a chart over a websocket",
		Long: `Starts the chart and serves a websocket on /events. Each text frame is an
event name or a JSON object {"name": ..., "data": {...}}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadChart(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := runner.New(sc,
				runner.WithLogger(logger),
				runner.WithObserver(func(o runner.Outcome) {
					logger.Info("event dispatched",
						zap.String("event", o.Event.Name),
						zap.Bool("handled", o.Handled),
						zap.String("active", strings.Join(o.Active, " / ")),
						zap.Error(o.Err))
				}))

			mux := http.NewServeMux()
			mux.Handle("/events", wsbridge.Handler(r, wsbridge.WithLogger(logger)))
			return serve(ctx, r, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8888", "Listen address")
	return cmd
}

func serve(ctx context.Context, r *runner.Runner, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCancel(r.Run(gctx))
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		r.Close()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
