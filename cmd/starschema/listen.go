package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/obenchekro/namkin-data-migration/internal/listener"
)

func newListenCommand(a *app) *cobra.Command {
	var (
		maxMsgs int64
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Tail the part_information topic and log every message",
		Long: "Tail the part_information topic. Every decoded message is logged and, " +
			"unless --quiet is set, echoed to stdout as one JSON line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var h listener.Handler
			if !quiet {
				h = printMessage(cmd.OutOrStdout())
			}
			l := listener.New(a.cfg.Kafka, a.cfg.Job, a.log, h)
			l.Max = maxMsgs
			st, err := l.Run(ctx)
			a.log.Infof("listen: received=%d decoded=%d skipped=%d errors=%d", st.Received, st.Decoded, st.Skipped, st.Errors)
			return err
		},
	}
	cmd.Flags().Int64Var(&maxMsgs, "max", 0, "stop after this many messages (0 runs until interrupted)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "log messages without echoing them to stdout")
	return cmd
}

// printMessage writes each message to w as a JSON line.
func printMessage(w io.Writer) listener.Handler {
	enc := json.NewEncoder(w)
	return func(m listener.Message) error {
		return enc.Encode(m)
	}
}
