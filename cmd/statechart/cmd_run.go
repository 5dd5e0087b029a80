package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ib-77/statechart/pkg/statechart"
	"github.com/ib-77/statechart/pkg/statechart/runner"
)

func newRunCmd() *cobra.Command {
	var (
		events       []string
		stopOnFinish bool
		queueSize    int
	)

	cmd := &cobra.Command{
		Use:   "run [chart.yaml]",
		Short: "Drive a chart with events and print the active states",
		Long: `Starts the chart and dispatches each event in order, printing the active
configuration after every step. Events come from --events or, without it,
one per line from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadChart(args[0])
			if err != nil {
				return err
			}

			var names <-chan string
			if len(events) > 0 {
				names = fromSlice(events)
			} else {
				names = fromLines(cmd.InOrStdin())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = runner.WithQueueOptions(ctx, queueSize)

			return runChart(ctx, sc, names, cmd.OutOrStdout(), stopOnFinish)
		},
	}
	cmd.Flags().StringSliceVarP(&events, "events", "e", nil, "Comma separated events to dispatch")
	cmd.Flags().BoolVar(&stopOnFinish, "stop-on-finish", false, "Exit once the chart reaches its final state")
	cmd.Flags().IntVar(&queueSize, "queue", runner.DefaultQueueSize, "Event queue size")
	return cmd
}

func runChart(ctx context.Context, sc *statechart.Statechart, names <-chan string, out io.Writer, stopOnFinish bool) error {
	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithObserver(func(o runner.Outcome) { printOutcome(out, o) }),
	}
	if stopOnFinish {
		opts = append(opts, runner.StopOnFinish())
	}
	r := runner.New(sc, opts...)

	if err := sc.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "start -> %s\n", strings.Join(sc.ActiveStateNames(), " / "))

	g, gctx := errgroup.WithContext(ctx)
	feedCtx, stopFeed := context.WithCancel(gctx)
	defer stopFeed()

	g.Go(func() error {
		defer stopFeed()
		defer r.Close()
		return ignoreCancel(r.Run(gctx))
	})
	g.Go(func() error {
		return feed(feedCtx, r, names)
	})
	return g.Wait()
}

// feed posts every name until the input ends, then closes the runner so it
// returns after draining its queue.
func feed(ctx context.Context, r *runner.Runner, names <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-names:
			if !ok {
				r.Close()
				return nil
			}
			if err := r.Post(ctx, statechart.NewEvent(name, nil)); err != nil {
				if errors.Is(err, runner.ErrClosed) || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func printOutcome(out io.Writer, o runner.Outcome) {
	switch {
	case o.Err != nil:
		fmt.Fprintf(out, "%s -> error: %v\n", o.Event.Name, o.Err)
	case !o.Handled:
		fmt.Fprintf(out, "%s -> ignored\n", o.Event.Name)
	default:
		fmt.Fprintf(out, "%s -> %s\n", o.Event.Name, strings.Join(o.Active, " / "))
	}
}

func fromSlice(names []string) <-chan string {
	ch := make(chan string, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			ch <- name
		}
	}
	close(ch)
	return ch
}

// fromLines reads event names from r until EOF. The reader goroutine is not
// cancellable and ends with the process when stdin stays open.
func fromLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if name := strings.TrimSpace(scanner.Text()); name != "" {
				ch <- name
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("reading events", zap.Error(err))
		}
	}()
	return ch
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
