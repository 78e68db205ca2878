package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rkarmaka98/streamwatch/config"
	"github.com/rkarmaka98/streamwatch/source"
)

func newWatchCmd(a *app) *cobra.Command {
	d := config.Default().Azure
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll an Azure Monitor metric and flag anomalous points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ac := a.cfg.Azure
			if err := config.Fold(ac.Validate()); err != nil {
				return err
			}

			src, err := source.NewAzure(source.AzureConfig{
				SubscriptionID: ac.Subscription,
				ResourceID:     ac.Resource,
				Metric:         ac.Metric,
				Aggregation:    ac.Aggregation,
				Interval:       ac.Interval,
				Count:          ac.Count,
				Retries:        ac.Retries,
			}, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("watching metric",
				zap.String("resource", ac.Resource),
				zap.String("metric", ac.Metric),
				zap.Duration("interval", ac.Interval),
			)
			return a.stream(cmd, src)
		},
	}

	f := cmd.Flags()
	f.StringP("subscription", "s", d.Subscription, "Azure Subscription ID (or set AZURE_SUBSCRIPTION_ID)")
	f.StringP("resource", "r", d.Resource, "Resource ID whose metric is polled")
	f.String("metric", d.Metric, "Metric name")
	f.String("aggregation", d.Aggregation, "Aggregation: Average, Maximum, Minimum, Total, Count")
	f.Duration("interval", d.Interval, "Poll interval")
	f.Int("count", d.Count, "Stop after this many polls (0 polls until interrupted)")
	f.Int("retries", d.Retries, "Consecutive failed polls tolerated before giving up")

	a.bind(f, map[string]string{
		"azure.subscription": "subscription",
		"azure.resource":     "resource",
		"azure.metric":       "metric",
		"azure.aggregation":  "aggregation",
		"azure.interval":     "interval",
		"azure.count":        "count",
		"azure.retries":      "retries",
	})
	return cmd
}

