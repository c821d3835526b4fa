package main

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	dispatcher "github.com/Swind/go-dispatcher"
	"github.com/Swind/go-dispatcher/core"
	obs "github.com/Swind/go-dispatcher/observability/prometheus"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Route a batch of tasks and report results on the foreground",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "tasks",
				Aliases: []string{"n"},
				Value:   50,
				Usage:   "Number of tasks to dispatch",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve /metrics on this address while running (overrides metrics.listen)",
			},
			&cli.BoolFlag{
				Name:  "otel",
				Usage: "Also record into an OpenTelemetry meter and print its counters",
			},
			&cli.DurationFlag{
				Name:  "linger",
				Value: 0,
				Usage: "Keep serving metrics for this long after the batch completes",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	n := c.Int("tasks")
	if n <= 0 {
		return cli.Exit("tasks must be positive", 1)
	}

	cfg, err := dispatcher.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter(cfg.Metrics.Namespace, reg, obs.ExporterOptions{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	metrics := fanout{exporter}
	var summary *otelSummary
	if c.Bool("otel") {
		summary = newOtelSummary()
		metrics = append(metrics, summary.exporter)
	}

	d, err := dispatcher.New(
		dispatcher.WithConfig(cfg),
		dispatcher.WithMetrics(metrics),
		dispatcher.WithHostedForeground(),
	)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	poller, err := obs.NewSnapshotPoller(reg, d, obs.PollerOptions{
		Namespace: cfg.Metrics.Namespace,
		Interval:  100 * time.Millisecond,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	addr := c.String("metrics-addr")
	if addr == "" {
		addr = cfg.Metrics.Listen
	}
	if addr != "" {
		stop := serveMetrics(addr, reg)
		defer stop()
		fmt.Printf("Prometheus endpoint is up at http://%s/metrics\n", addr)
	}

	var succeeded, failed atomic.Int32
	listener := core.ListenerFuncs[int]{
		Success: func(_ context.Context, v int) {
			if succeeded.Add(1)+failed.Load() == int32(n) {
				finish(d, c.Duration("linger"), cancel)
			}
		},
		Error: func(_ context.Context, err *core.CommandError) {
			if failed.Add(1)+succeeded.Load() == int32(n) {
				finish(d, c.Duration("linger"), cancel)
			}
		},
	}

	// Each foreground task hops to the pool: its caller is the foreground.
	go func() {
		for i := range n {
			d.RunOnForeground(func(ctx context.Context) {
				d.RunInBackground(ctx, func(ctx context.Context) {
					if i%10 == 9 {
						dispatcher.NotifyError(d, listener, core.CommandErrorFromStatus(500, i))
						return
					}
					dispatcher.NotifySuccess(d, core.Listener[int](listener), i*i)
				})
			})
		}
	}()

	if err := d.RunForeground(ctx); err != nil && ctx.Err() == nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if err := d.Close(); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	fmt.Printf("✓ %d succeeded, %d failed\n", succeeded.Load(), failed.Load())

	if summary != nil {
		if err := summary.print(context.Background()); err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		_ = summary.shutdown(context.Background())
	}
	return nil
}

// finish runs on the foreground once every notification has arrived.
func finish(d *dispatcher.Dispatcher, linger time.Duration, cancel context.CancelFunc) {
	rs, ps := d.Stats()
	fmt.Printf("foreground executed=%d pool=%s workers=%d\n", rs.Executed, ps.ID, ps.Workers)
	if linger <= 0 {
		cancel()
		return
	}
	time.AfterFunc(linger, cancel)
}

func serveMetrics(addr string, reg *prom.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		_ = server.ListenAndServe()
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
