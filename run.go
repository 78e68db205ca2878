package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rkarmaka98/streamwatch/monitor"
	"github.com/rkarmaka98/streamwatch/sink"
)

// stream runs src through a detector and the configured sinks, then prints
// the summary and the alert listing.
func (a *app) stream(cmd *cobra.Command, src monitor.Source) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	det, err := monitor.NewZDetector(a.cfg.Detector.Window, a.cfg.Detector.Threshold)
	if err != nil {
		return err
	}

	alerts := sink.NewAlerts(a.cfg.Output.MaxAlerts)
	sinks := []monitor.Sink{alerts}
	if !a.cfg.Output.Quiet {
		sinks = append(sinks, sink.NewConsole(out, a.cfg.Output.AnomaliesOnly))
	}
	if path := a.cfg.Output.Plot; path != "" {
		sinks = append(sinks, sink.NewAsync(sink.NewPlot(path), a.cfg.Output.AsyncBuffer))
	}
	if addr := a.cfg.Output.MetricsAddr; addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		sinks = append(sinks, sink.NewMetrics(reg))
		stop := a.serveMetrics(addr, reg)
		defer stop()
	}

	a.logger.Info("starting stream",
		zap.Int("window", det.Size()),
		zap.Float64("threshold", det.Threshold()),
	)

	p := &monitor.Pipeline{
		Source:        src,
		Detector:      det,
		Sink:          sink.Tee(sinks...),
		Logger:        a.logger,
		Limit:         a.cfg.Stream.Limit,
		HaltOnInvalid: a.cfg.Output.HaltOnInvalid,
	}
	sum, err := p.Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("stream interrupted")
		err = nil
	}

	if perr := printSummary(out, sum, alerts); perr != nil && err == nil {
		err = perr
	}
	if err == nil && a.cfg.Output.Plot != "" && sum.Samples > 0 {
		a.logger.Info("plot written", zap.String("path", a.cfg.Output.Plot))
	}
	return err
}

// serveMetrics exposes reg on addr until the returned stop function runs.
func (a *app) serveMetrics(addr string, reg *prometheus.Registry) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("metrics server listening", zap.String("addr", addr), zap.String("path", "/metrics"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown", zap.Error(fmt.Errorf("shutdown %s: %w", addr, err)))
		}
	}
}
