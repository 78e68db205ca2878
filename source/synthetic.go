// Package source provides monitor.Source implementations: a synthetic
// trend/seasonal/noise generator, a line-oriented text reader, a fixed
// slice and an Azure Monitor metric poller.
package source

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// SyntheticConfig shapes the generated stream.
type SyntheticConfig struct {
	Points int
	Seed   uint64

	// Linear trend from TrendStart to TrendEnd across the stream.
	TrendStart float64
	TrendEnd   float64

	// Sine wave of the given amplitude completing Cycles periods.
	Amplitude float64
	Cycles    float64

	// Standard deviation of the gaussian noise.
	Noise float64

	// Probability per sample of adding a ±SpikeMagnitude outlier.
	SpikeRate      float64
	SpikeMagnitude float64
}

// DefaultSyntheticConfig mirrors the classic demo stream: a 1→100 trend,
// five seasonal cycles of amplitude 10 and σ=5 noise over 1000 points.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Points:         1000,
		Seed:           1,
		TrendStart:     1,
		TrendEnd:       100,
		Amplitude:      10,
		Cycles:         5,
		Noise:          5,
		SpikeRate:      0.01,
		SpikeMagnitude: 40,
	}
}

// Synthetic replays a pre-generated trend + seasonal + noise series.
type Synthetic struct {
	data []float64
	pos  int
}

// NewSynthetic generates the series described by cfg. The same Seed always
// yields the same series.
func NewSynthetic(cfg SyntheticConfig) (*Synthetic, error) {
	if cfg.Points < 1 {
		return nil, fmt.Errorf("synthetic points %d: must be at least 1", cfg.Points)
	}
	if cfg.Noise < 0 || cfg.SpikeRate < 0 || cfg.SpikeRate > 1 {
		return nil, fmt.Errorf("synthetic noise %v / spike rate %v out of range", cfg.Noise, cfg.SpikeRate)
	}

	n := cfg.Points
	trend := linspace(cfg.TrendStart, cfg.TrendEnd, n)
	phase := linspace(0, 2*math.Pi*cfg.Cycles, n)

	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	rng := rand.New(src)
	noise := distuv.Normal{Mu: 0, Sigma: cfg.Noise, Src: src}

	data := make([]float64, n)
	for i := range data {
		data[i] = trend[i] + cfg.Amplitude*math.Sin(phase[i]) + noise.Rand()
		if cfg.SpikeRate > 0 && rng.Float64() < cfg.SpikeRate {
			if rng.IntN(2) == 0 {
				data[i] += cfg.SpikeMagnitude
			} else {
				data[i] -= cfg.SpikeMagnitude
			}
		}
	}
	return &Synthetic{data: data}, nil
}

func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Next returns the next generated sample, or io.EOF after Points samples.
func (s *Synthetic) Next(context.Context) (float64, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	v := s.data[s.pos]
	s.pos++
	return v, nil
}

// Len returns the total number of samples the generator yields.
func (s *Synthetic) Len() int {
	return len(s.data)
}
