package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yash2163/ComplaintHandling-POC/internal/di"
	"github.com/yash2163/ComplaintHandling-POC/internal/factory"
	"github.com/yash2163/ComplaintHandling-POC/internal/ingest"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
)

func newPollCommand(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Poll the shared mailbox once and ingest unread mail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return invoke(cmd, flags, func(
				f *factory.IntakeFactory,
				reader ports.MailboxReader,
				ingester *ingest.Ingester,
				logger *zap.Logger,
			) error {
				defer logger.Sync()
				poller, err := f.CreatePoller(reader, ingester)
				if err != nil {
					return err
				}
				stats, err := poller.PollOnce(cmd.Context())
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "\n=== Poll ===\n")
				fmt.Fprintf(w, "Seen: %d\n", stats.Seen)
				fmt.Fprintf(w, "Ingested: %d\n", stats.Ingested)
				fmt.Fprintf(w, "Duplicate: %d\n", stats.Duplicate)
				fmt.Fprintf(w, "Skipped: %d\n", stats.Skipped)
				return nil
			})
		},
	}
}
