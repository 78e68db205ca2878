package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Source produces samples one at a time. Next returns io.EOF once the
// stream is exhausted.
type Source interface {
	Next(ctx context.Context) (float64, error)
}

// Observation is a sample together with its detection result. Index is the
// arrival position in the stream, counting samples that were skipped as
// invalid.
type Observation struct {
	Index int
	Value float64
	Result
}

// Sink consumes observations in arrival order. Finalize is called exactly
// once when the stream ends.
type Sink interface {
	Update(obs Observation) error
	Finalize() error
}

// Summary counts what a run processed.
type Summary struct {
	Samples   int
	Scored    int
	Anomalies int
	Skipped   int
}

// Pipeline pulls samples from Source, scores them with Detector and
// forwards every observation to Sink.
type Pipeline struct {
	Source   Source
	Detector *ZDetector
	Sink     Sink
	Logger   *zap.Logger

	// Limit stops the run after this many accepted samples; zero means no limit.
	Limit int
	// HaltOnInvalid ends the run at the first invalid sample instead of
	// skipping it.
	HaltOnInvalid bool
}

// Run drives the stream until the source is exhausted, Limit is reached,
// ctx is cancelled or an unrecoverable error occurs.
func (p *Pipeline) Run(ctx context.Context) (sum Summary, err error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	defer func() {
		if ferr := p.Sink.Finalize(); ferr != nil && err == nil {
			err = fmt.Errorf("finalize sink: %w", ferr)
		}
	}()

	// skip decides whether an invalid sample is dropped or ends the run.
	skip := func(err error) bool {
		if !errors.Is(err, ErrInvalidSample) || p.HaltOnInvalid {
			return false
		}
		sum.Skipped++
		log.Warn("skipping invalid sample", zap.Error(err))
		return true
	}

	arrivals := 0
	for p.Limit <= 0 || sum.Samples < p.Limit {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		x, err := p.Source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		index := arrivals
		arrivals++
		if err != nil {
			if skip(err) {
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sum, ctxErr
			}
			return sum, fmt.Errorf("read sample: %w", err)
		}

		res, err := p.Detector.Detect(x)
		if err != nil {
			if skip(err) {
				continue
			}
			return sum, fmt.Errorf("detect sample %d: %w", index, err)
		}

		obs := Observation{Index: index, Value: x, Result: res}
		sum.Samples++
		if res.Scored {
			sum.Scored++
		}
		if res.Anomaly {
			sum.Anomalies++
			log.Warn("anomaly detected",
				zap.Int("index", obs.Index),
				zap.Float64("value", x),
				zap.Float64("score", res.Score),
			)
		}
		if err := p.Sink.Update(obs); err != nil {
			return sum, fmt.Errorf("sink update at %d: %w", obs.Index, err)
		}
	}

	log.Info("stream finished",
		zap.Int("samples", sum.Samples),
		zap.Int("scored", sum.Scored),
		zap.Int("anomalies", sum.Anomalies),
		zap.Int("skipped", sum.Skipped),
	)
	return sum, nil
}
