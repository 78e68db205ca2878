package main

import (
	"math/rand/v2"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rkarmaka98/streamwatch/config"
	"github.com/rkarmaka98/streamwatch/source"
)

func newSimulateCmd(a *app) *cobra.Command {
	d := config.Default().Simulate
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Detect anomalies in a synthetic trend + seasonal + noise stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Simulate
			if err := config.Fold(sc.Validate()); err != nil {
				return err
			}
			seed := sc.Seed
			if seed == 0 {
				seed = rand.Uint64()
			}
			a.logger.Info("generating synthetic stream",
				zap.Int("points", sc.Points),
				zap.Uint64("seed", seed),
			)

			src, err := source.NewSynthetic(source.SyntheticConfig{
				Points:         sc.Points,
				Seed:           seed,
				TrendStart:     sc.TrendStart,
				TrendEnd:       sc.TrendEnd,
				Amplitude:      sc.Amplitude,
				Cycles:         sc.Cycles,
				Noise:          sc.Noise,
				SpikeRate:      sc.SpikeRate,
				SpikeMagnitude: sc.SpikeMagnitude,
			})
			if err != nil {
				return err
			}
			return a.stream(cmd, src)
		},
	}

	f := cmd.Flags()
	f.IntP("points", "n", d.Points, "Number of samples to generate")
	f.Uint64("seed", d.Seed, "Random seed (0 picks one and logs it)")
	f.Float64("trend-start", d.TrendStart, "Trend value at the first sample")
	f.Float64("trend-end", d.TrendEnd, "Trend value at the last sample")
	f.Float64("amplitude", d.Amplitude, "Seasonal amplitude")
	f.Float64("cycles", d.Cycles, "Seasonal periods across the stream")
	f.Float64("noise", d.Noise, "Standard deviation of gaussian noise")
	f.Float64("spike-rate", d.SpikeRate, "Probability of injecting an outlier per sample")
	f.Float64("spike-magnitude", d.SpikeMagnitude, "Size of injected outliers")

	a.bind(f, map[string]string{
		"simulate.points":          "points",
		"simulate.seed":            "seed",
		"simulate.trend_start":     "trend-start",
		"simulate.trend_end":       "trend-end",
		"simulate.amplitude":       "amplitude",
		"simulate.cycles":          "cycles",
		"simulate.noise":           "noise",
		"simulate.spike_rate":      "spike-rate",
		"simulate.spike_magnitude": "spike-magnitude",
	})
	return cmd
}
