package sink

import (
	"errors"

	"github.com/rkarmaka98/streamwatch/monitor"
)

type tee []monitor.Sink

// Tee forwards every observation to each sink in order. Update stops at
// the first failing sink; Finalize runs all of them and joins the errors.
func Tee(sinks ...monitor.Sink) monitor.Sink {
	return tee(sinks)
}

func (t tee) Update(obs monitor.Observation) error {
	for _, s := range t {
		if err := s.Update(obs); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Finalize() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Finalize())
	}
	return errors.Join(errs...)
}
