package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rkarmaka98/streamwatch/config"
)

// app carries what every subcommand shares once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New(), logger: zap.NewNop()}
	d := config.Default()

	rootCmd := &cobra.Command{
		Use:           "streamwatch",
		Short:         "Streaming z-score anomaly detector",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	// global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file (env: STREAMWATCH_*)")
	pf.IntP("window", "w", d.Detector.Window, "Number of recent samples used as the baseline")
	pf.Float64P("threshold", "t", d.Detector.Threshold, "Absolute z-score above which a sample is flagged")
	pf.IntP("limit", "l", d.Stream.Limit, "Stop after this many samples (0 reads the whole stream)")
	pf.String("plot", d.Output.Plot, "Write a chart of the stream to this file (.png, .svg, .pdf)")
	pf.Bool("anomalies-only", d.Output.AnomaliesOnly, "Print only flagged samples")
	pf.BoolP("quiet", "q", d.Output.Quiet, "Do not print samples")
	pf.String("metrics-addr", d.Output.MetricsAddr, "Serve Prometheus metrics on this address, e.g. :9092")
	pf.Bool("halt-on-invalid", d.Output.HaltOnInvalid, "Stop at the first invalid sample instead of skipping it")
	pf.Int("max-alerts", d.Output.MaxAlerts, "Number of anomaly alerts kept for the final listing (0 keeps all)")
	pf.Int("async-buffer", d.Output.AsyncBuffer, "Queue length between the detector and the plot renderer")
	pf.String("log-level", d.Log.Level, "Log level: debug, info, warn, error")
	pf.String("log-format", d.Log.Format, "Log format: console, json")

	a.bind(pf, map[string]string{
		"detector.window":        "window",
		"detector.threshold":     "threshold",
		"stream.limit":           "limit",
		"output.plot":            "plot",
		"output.anomalies_only":  "anomalies-only",
		"output.quiet":           "quiet",
		"output.metrics_addr":    "metrics-addr",
		"output.halt_on_invalid": "halt-on-invalid",
		"output.max_alerts":      "max-alerts",
		"output.async_buffer":    "async-buffer",
		"log.level":              "log-level",
		"log.format":             "log-format",
	})

	rootCmd.AddCommand(newSimulateCmd(a), newScoreCmd(a), newWatchCmd(a))
	return rootCmd
}

// setup loads and validates configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Err(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log, zapcore.AddSync(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	a.logger = logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("command", cmd.Name()),
	)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}
