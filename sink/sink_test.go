package sink

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkarmaka98/streamwatch/monitor"
)

func stream() []monitor.Observation {
	return []monitor.Observation{
		{Index: 0, Value: 10},
		{Index: 1, Value: 12},
		{Index: 2, Value: 11, Result: monitor.Result{Score: 0.5, Scored: true}},
		{Index: 3, Value: 50, Result: monitor.Result{Score: 35.33, Scored: true, Anomaly: true}},
		{Index: 4, Value: 9, Result: monitor.Result{Score: -1.2, Scored: true}},
	}
}

func feed(t *testing.T, s monitor.Sink) {
	t.Helper()
	for _, obs := range stream() {
		require.NoError(t, s.Update(obs))
	}
	require.NoError(t, s.Finalize())
}

type recorder struct {
	mu        sync.Mutex
	got       []int
	finalized bool
	err       error
}

func (r *recorder) Update(obs monitor.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.got = append(r.got, obs.Index)
	return nil
}

func (r *recorder) Finalize() error {
	r.finalized = true
	return nil
}

func TestConsoleWritesEveryObservation(t *testing.T) {
	var buf bytes.Buffer
	feed(t, NewConsole(&buf, false))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "warming up")
	assert.Contains(t, lines[2], "z=  +0.500")
	assert.Contains(t, lines[3], "ANOMALY")
	assert.NotContains(t, lines[4], "ANOMALY")
}

func TestConsoleAnomaliesOnly(t *testing.T) {
	var buf bytes.Buffer
	feed(t, NewConsole(&buf, true))

	out := strings.TrimRight(buf.String(), "\n")
	assert.NotContains(t, out, "\n")
	assert.Contains(t, out, "Detected anomaly with score: 35.3300")
	assert.Contains(t, out, "(index 3, value 50.000)")
}

func TestPlotWritesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.png")
	p := NewPlot(path)
	feed(t, p)
	assert.Equal(t, 5, p.Len())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPlotWithoutAnomalies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calm.svg")
	p := NewPlot(path)
	require.NoError(t, p.Update(monitor.Observation{Index: 0, Value: 1}))
	require.NoError(t, p.Update(monitor.Observation{Index: 1, Value: 2}))
	require.NoError(t, p.Finalize())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestPlotEmptyStreamWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, NewPlot(path).Finalize())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	feed(t, m)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.samples))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.scored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.anomalies))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.lastValue))
	assert.Equal(t, -1.2, testutil.ToFloat64(m.lastScore))

	n, err := testutil.GatherAndCount(reg, "streamwatch_abs_zscore")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAlertsKeepsLatest(t *testing.T) {
	a := NewAlerts(2)
	a.now = func() time.Time { return time.Unix(0, 0) }
	for i := 0; i < 5; i++ {
		require.NoError(t, a.Update(monitor.Observation{
			Index:  i,
			Value:  float64(i),
			Result: monitor.Result{Score: 4, Scored: true, Anomaly: i%2 == 0},
		}))
	}

	got := a.List()
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Index)
	assert.Equal(t, 4, got[1].Index)

	var buf bytes.Buffer
	_, err := a.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Current Anomaly Alerts:\n - #2 value 2.000 spike (z=+4.00)\n - #4 value 4.000 spike (z=+4.00)\n", buf.String())
}

func TestAlertsEmptyListing(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewAlerts(0).WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Current Anomaly Alerts:\n (none)\n", buf.String())
}

func TestTeeFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	feed(t, Tee(a, b))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, a.got)
	assert.Equal(t, a.got, b.got)
	assert.True(t, a.finalized)
	assert.True(t, b.finalized)
}

func TestTeeStopsAtFailingSink(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recorder{err: boom}, &recorder{}
	s := Tee(a, b)
	assert.ErrorIs(t, s.Update(monitor.Observation{}), boom)
	assert.Empty(t, b.got)
	assert.NoError(t, s.Finalize())
	assert.True(t, b.finalized)
}

func TestAsyncPreservesOrder(t *testing.T) {
	rec := &recorder{}
	s := NewAsync(rec, 2)
	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Update(monitor.Observation{Index: i}))
	}
	require.NoError(t, s.Finalize())

	require.Len(t, rec.got, 1000)
	for i, idx := range rec.got {
		assert.Equal(t, i, idx)
	}
	assert.True(t, rec.finalized)
}

func TestAsyncReportsConsumerError(t *testing.T) {
	boom := errors.New("render failed")
	rec := &recorder{err: boom}
	s := NewAsync(rec, 0)

	require.NoError(t, s.Update(monitor.Observation{Index: 0}))
	assert.ErrorIs(t, s.Finalize(), boom)
	assert.True(t, rec.finalized)
}
