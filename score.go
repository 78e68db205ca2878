package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rkarmaka98/streamwatch/config"
	"github.com/rkarmaka98/streamwatch/source"
)

func newScoreCmd(a *app) *cobra.Command {
	var column int
	d := config.Default().Share
	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Detect anomalies in numbers read one per line from a file, stdin or an Azure file share",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			sc := a.cfg.Share
			switch {
			case sc.Enabled():
				if len(args) == 1 {
					return errors.New("a file argument cannot be combined with --share")
				}
				if err := config.Fold(sc.Validate()); err != nil {
					return err
				}
				body, err := source.OpenShare(cmd.Context(), source.ShareConfig{
					Account: sc.Account,
					Key:     sc.Key,
					Share:   sc.Name,
					Path:    sc.Path,
				}, a.logger)
				if err != nil {
					return err
				}
				defer body.Close()
				r = body
			case len(args) == 1 && args[0] != "-":
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				r = f
			}
			return a.stream(cmd, source.NewColumnReader(r, column))
		},
	}

	f := cmd.Flags()
	f.IntVar(&column, "column", -1, "Zero-based comma-separated column to read (-1 uses the whole line)")
	f.String("share", d.Name, "Read the input from this Azure file share instead of a local file")
	f.String("share-path", d.Path, "Path of the input file within the share, e.g. metrics/iops.csv")
	f.String("storage-account", d.Account, "Storage account name (or set AZURE_STORAGE_ACCOUNT)")
	f.String("storage-key", "", "Storage account key (or set AZURE_STORAGE_KEY)")

	a.bind(f, map[string]string{
		"share.name":    "share",
		"share.path":    "share-path",
		"share.account": "storage-account",
		"share.key":     "storage-key",
	})
	return cmd
}
