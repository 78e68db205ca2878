package sink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rkarmaka98/streamwatch/monitor"
)

// Alert records one flagged sample.
type Alert struct {
	Index int
	Value float64
	Score float64
	At    time.Time
}

func (a Alert) String() string {
	return fmt.Sprintf("#%d value %.3f spike (z=%+.2f)", a.Index, a.Value, a.Score)
}

// Alerts keeps the most recent anomalies. It is safe to read while the
// stream is running.
type Alerts struct {
	mu    sync.Mutex
	list  []Alert
	limit int
	now   func() time.Time
}

// NewAlerts keeps at most limit alerts; zero keeps all of them.
func NewAlerts(limit int) *Alerts {
	return &Alerts{limit: limit, now: time.Now}
}

func (a *Alerts) Update(obs monitor.Observation) error {
	if !obs.Anomaly {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.list = append(a.list, Alert{Index: obs.Index, Value: obs.Value, Score: obs.Score, At: a.now()})
	if a.limit > 0 && len(a.list) > a.limit {
		a.list = a.list[len(a.list)-a.limit:]
	}
	return nil
}

func (a *Alerts) Finalize() error { return nil }

// List returns a copy of the retained alerts, oldest first.
func (a *Alerts) List() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Alert(nil), a.list...)
}

// WriteTo prints the retained alerts.
func (a *Alerts) WriteTo(w io.Writer) (int64, error) {
	var n int64
	write := func(format string, args ...any) error {
		c, err := fmt.Fprintf(w, format, args...)
		n += int64(c)
		return err
	}
	if err := write("Current Anomaly Alerts:\n"); err != nil {
		return n, err
	}
	alerts := a.List()
	if len(alerts) == 0 {
		return n, write(" (none)\n")
	}
	for _, al := range alerts {
		if err := write(" - %s\n", al); err != nil {
			return n, err
		}
	}
	return n, nil
}
