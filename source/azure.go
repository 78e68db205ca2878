package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"go.uber.org/zap"

	"github.com/rkarmaka98/streamwatch/monitor"
)

// errNoData marks a poll that returned no usable point; the sample is
// skipped rather than ending the stream.
var errNoData = fmt.Errorf("no data points: %w", monitor.ErrInvalidSample)

type metricLister interface {
	List(ctx context.Context, resourceURI string, options *armmonitor.MetricsClientListOptions) (armmonitor.MetricsClientListResponse, error)
}

// AzureConfig selects the metric to poll.
type AzureConfig struct {
	SubscriptionID string
	ResourceID     string
	Metric         string
	Aggregation    string
	Interval       time.Duration
	// Count stops the stream after this many polls; zero polls forever.
	Count int
	// Retries is how many consecutive failed polls are tolerated.
	Retries int
}

// Azure polls the latest point of an Azure Monitor metric once per Interval.
type Azure struct {
	client metricLister
	cfg    AzureConfig
	logger *zap.Logger

	polls int
	now   func() time.Time
	wait  func(ctx context.Context, d time.Duration) error
}

// NewAzure constructs an Azure source using DefaultAzureCredential.
func NewAzure(cfg AzureConfig, logger *zap.Logger) (*Azure, error) {
	if cfg.ResourceID == "" || cfg.Metric == "" {
		return nil, errors.New("azure source needs a resource ID and a metric name")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	cli, err := armmonitor.NewMetricsClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}
	return newAzure(cli, cfg, logger), nil
}

func newAzure(client metricLister, cfg AzureConfig, logger *zap.Logger) *Azure {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Aggregation == "" {
		cfg.Aggregation = "Average"
	}
	return &Azure{
		client: client,
		cfg:    cfg,
		logger: logger.With(zap.String("metric", cfg.Metric)),
		now:    time.Now,
		wait:   sleep,
	}
}

// Next waits for the poll interval (except on the first call) and returns
// the latest metric value.
func (a *Azure) Next(ctx context.Context) (float64, error) {
	failures := 0
	for {
		if a.cfg.Count > 0 && a.polls >= a.cfg.Count {
			return 0, io.EOF
		}
		if a.polls > 0 || failures > 0 {
			if err := a.wait(ctx, a.cfg.Interval); err != nil {
				return 0, err
			}
		}
		a.polls++

		v, err := a.latest(ctx)
		if err == nil || errors.Is(err, monitor.ErrInvalidSample) {
			return v, err
		}
		failures++
		if failures > a.cfg.Retries {
			return 0, err
		}
		a.logger.Warn("metric poll failed, retrying",
			zap.Error(err),
			zap.Int("attempt", failures),
		)
	}
}

// latest fetches the most recent point for the configured aggregation.
func (a *Azure) latest(ctx context.Context) (float64, error) {
	// Use a short timespan so only the most recent points come back.
	now := a.now().UTC()
	ts := fmt.Sprintf("%s/%s", now.Add(-5*time.Minute).Format(time.RFC3339), now.Format(time.RFC3339))
	resp, err := a.client.List(ctx, a.cfg.ResourceID, &armmonitor.MetricsClientListOptions{
		Timespan:    &ts,
		Metricnames: to.Ptr(a.cfg.Metric),
		Aggregation: to.Ptr(a.cfg.Aggregation),
	})
	if err != nil {
		return 0, fmt.Errorf("metrics query failed: %w", err)
	}
	return latestValue(resp.Response, a.cfg.Aggregation)
}

func latestValue(resp armmonitor.Response, aggregation string) (float64, error) {
	var (
		best  float64
		bestT time.Time
		found bool
	)
	for _, metric := range resp.Value {
		if metric == nil {
			continue
		}
		for _, series := range metric.Timeseries {
			if series == nil {
				continue
			}
			for _, point := range series.Data {
				if point == nil {
					continue
				}
				v := pick(point, aggregation)
				if v == nil {
					continue
				}
				var t time.Time
				if point.TimeStamp != nil {
					t = *point.TimeStamp
				}
				if !found || t.After(bestT) {
					best, bestT, found = *v, t, true
				}
			}
		}
	}
	if !found {
		return 0, errNoData
	}
	return best, nil
}

func pick(p *armmonitor.MetricValue, aggregation string) *float64 {
	switch aggregation {
	case "Maximum":
		return p.Maximum
	case "Minimum":
		return p.Minimum
	case "Total":
		return p.Total
	case "Count":
		return p.Count
	default:
		return p.Average
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
