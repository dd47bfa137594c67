package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/obenchekro/namkin-data-migration/internal/star"
)

func newTimeDimCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timedim",
		Short: "Build dim_time for the configured span and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := timeSpan(a.cfg.Transform)
			if err != nil {
				return err
			}
			rows, err := star.NewBuilder(star.Options{Job: a.cfg.Job, Logger: a.log}).BuildTime(start, end)
			if err != nil {
				return err
			}
			t := star.TimeTable(rows)
			fmt.Fprintf(a.stdout, "rows=%s first=%d last=%d fingerprint=%016x\n",
				humanize.Comma(int64(len(rows))), rows[0].TimeID, rows[len(rows)-1].TimeID, t.Fingerprint())
			return nil
		},
	}
}
