package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/yash2163/ComplaintHandling-POC/internal/adapters/intake"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/di"
	"github.com/yash2163/ComplaintHandling-POC/internal/ingest"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
)

type ingestDeps struct {
	dig.In

	Ingester    *ingest.Ingester
	Complaints  *core.ComplaintProcessor
	Resolutions *core.ResolutionProcessor
	Logger      *zap.Logger
}

func newIngestCommand(flags *di.CLIFlags) *cobra.Command {
	var (
		kind    string
		file    string
		sender  string
		process bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store a raw RFC 5322 message and publish its event",
		Long: `Reads a raw message from --file or stdin, stores it as a NEW email record
and publishes its event.

With --type auto a message carrying a case tag in the subject is treated
as a resolution. With --process the matching processor runs in this
process; use --queue memory so a running agent does not handle the same
event again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			msg, err := intake.ParseMessage(raw, sender, time.Now())
			if err != nil {
				return err
			}
			emailType, err := resolveType(kind, msg)
			if err != nil {
				return err
			}

			return invoke(cmd, flags, func(deps ingestDeps) error {
				defer deps.Logger.Sync()
				return runIngest(cmd.Context(), cmd.OutOrStdout(), deps, emailType, msg, process)
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", "auto", "Email type (complaint, resolution, auto)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Input message file (use stdin if not specified)")
	cmd.Flags().StringVar(&sender, "from", "", "Envelope sender used when the message has no From header")
	cmd.Flags().BoolVar(&process, "process", false, "Run the processor after ingesting")
	return cmd
}

func runIngest(ctx context.Context, w io.Writer, deps ingestDeps, kind core.EmailType, msg ports.InboundMessage, process bool) error {
	fmt.Fprintf(w, "\n=== Email Summary ===\n")
	fmt.Fprintf(w, "ID: %s\n", msg.ID)
	fmt.Fprintf(w, "From: %s\n", msg.From)
	fmt.Fprintf(w, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(w, "Type: %s\n", kind)
	fmt.Fprintf(w, "Body length: %d bytes\n", len(msg.Body))

	result, err := deps.Ingester.Ingest(ctx, kind, msg)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Ingest result: %s\n", result)
	if !process || result != ingest.ResultIngested {
		return nil
	}

	ev := core.Event{EmailID: msg.ID, CxCaseID: core.ExtractCaseID(msg.Subject, msg.Body)}
	start := time.Now()
	if kind == core.EmailTypeResolution {
		outcome, err := deps.Resolutions.Process(ctx, ev)
		if err != nil {
			return err
		}
		printResolutionOutcome(w, outcome, time.Since(start))
		return nil
	}
	outcome, err := deps.Complaints.Process(ctx, ev)
	if err != nil {
		return err
	}
	printComplaintOutcome(w, outcome, time.Since(start))
	return nil
}

func resolveType(kind string, msg ports.InboundMessage) (core.EmailType, error) {
	switch strings.ToLower(kind) {
	case "complaint":
		return core.EmailTypeComplaint, nil
	case "resolution":
		return core.EmailTypeResolution, nil
	case "auto", "":
		if core.ExtractCaseID(msg.Subject, "") != "" {
			return core.EmailTypeResolution, nil
		}
		return core.EmailTypeComplaint, nil
	default:
		return "", fmt.Errorf("unknown email type %q", kind)
	}
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return raw, nil
}
