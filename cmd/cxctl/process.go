package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/di"
)

func newProcessCommand(flags *di.CLIFlags) *cobra.Command {
	var caseID string

	cmd := &cobra.Command{
		Use:   "process <complaint|resolution> <email-id>",
		Short: "Run a processor for one stored email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, emailID := strings.ToLower(args[0]), args[1]
			ev := core.Event{EmailID: emailID, CxCaseID: caseID}
			out := cmd.OutOrStdout()

			switch kind {
			case "complaint":
				return invoke(cmd, flags, func(p *core.ComplaintProcessor, logger *zap.Logger) error {
					defer logger.Sync()
					start := time.Now()
					outcome, err := p.Process(cmd.Context(), ev)
					if err != nil {
						return err
					}
					printComplaintOutcome(out, outcome, time.Since(start))
					return nil
				})
			case "resolution":
				return invoke(cmd, flags, func(p *core.ResolutionProcessor, logger *zap.Logger) error {
					defer logger.Sync()
					start := time.Now()
					outcome, err := p.Process(cmd.Context(), ev)
					if err != nil {
						return err
					}
					printResolutionOutcome(out, outcome, time.Since(start))
					return nil
				})
			default:
				return fmt.Errorf("unknown email type %q, expected complaint or resolution", args[0])
			}
		},
	}

	cmd.Flags().StringVar(&caseID, "case-id", "", "Case id carried by the event")
	return cmd
}

func printComplaintOutcome(w io.Writer, o *core.ComplaintOutcome, took time.Duration) {
	fmt.Fprintf(w, "\n=== Complaint ===\n")
	fmt.Fprintf(w, "Email: %s\n", o.EmailID)
	fmt.Fprintf(w, "Case: %s\n", o.CaseID)
	fmt.Fprintf(w, "State: %s\n", o.State)
	if o.State == core.StateSkipped {
		fmt.Fprintf(w, "Skipped: %s\n", o.SkipReason)
		fmt.Fprintf(w, "Processing time: %v\n", took)
		return
	}

	fmt.Fprintf(w, "\n=== Investigation Grid ===\n")
	fmt.Fprintf(w, "PNR: %s\n", orNA(o.Grid.PNR))
	fmt.Fprintf(w, "Customer: %s\n", orNA(o.Grid.CustomerName))
	fmt.Fprintf(w, "Flight: %s on %s\n", orNA(o.Grid.FlightNumber), orNA(o.Grid.Date))
	fmt.Fprintf(w, "Route: %s -> %s\n", orNA(o.Grid.Source), orNA(o.Grid.Destination))
	fmt.Fprintf(w, "Issue: %s\n", o.Grid.IssueType)
	fmt.Fprintf(w, "Weather: %s\n", o.Grid.WeatherCondition)
	fmt.Fprintf(w, "Confidence: %d/100\n", o.Grid.ConfidenceScore)

	fmt.Fprintf(w, "\n=== Results ===\n")
	fmt.Fprintf(w, "Routed: %s (%s)\n", o.Route.Class, o.Route.Mailbox)
	fmt.Fprintf(w, "Action: %s\n", o.Route.Action)
	fmt.Fprintf(w, "Draft: %s\n", o.DraftID)
	if len(o.Degraded) > 0 {
		fmt.Fprintf(w, "Degraded calls: %s\n", strings.Join(o.Degraded, ", "))
	}
	fmt.Fprintf(w, "Processing time: %v\n", took)
}

func printResolutionOutcome(w io.Writer, o *core.ResolutionOutcome, took time.Duration) {
	fmt.Fprintf(w, "\n=== Resolution ===\n")
	fmt.Fprintf(w, "Email: %s\n", o.EmailID)
	fmt.Fprintf(w, "Case: %s\n", o.CaseID)
	fmt.Fprintf(w, "State: %s\n", o.State)
	if o.State == core.StateSkipped {
		fmt.Fprintf(w, "Skipped: %s\n", o.SkipReason)
		fmt.Fprintf(w, "Processing time: %v\n", took)
		return
	}

	fmt.Fprintf(w, "\n=== Results ===\n")
	fmt.Fprintf(w, "Action taken: %s\n", orNA(o.Resolution.ActionTaken))
	fmt.Fprintf(w, "Outcome: %s\n", orNA(o.Resolution.Outcome))
	fmt.Fprintf(w, "Status: %s\n", o.Evaluation.Status)
	fmt.Fprintf(w, "Score: %d/100\n", o.Evaluation.ConfidenceScore)
	fmt.Fprintf(w, "Summary: %s\n", o.Evaluation.AgentSummary)
	fmt.Fprintf(w, "Original complaint: %s (updated: %t)\n", orNA(o.OriginalID), o.OriginalUpdated)
	fmt.Fprintf(w, "Draft: %s\n", o.DraftID)
	if len(o.Degraded) > 0 {
		fmt.Fprintf(w, "Degraded calls: %s\n", strings.Join(o.Degraded, ", "))
	}
	fmt.Fprintf(w, "Processing time: %v\n", took)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
