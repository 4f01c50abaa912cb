package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
)

func newCaseIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "case-id <subject> [body]",
		Short: "Print the case id found in a subject or body",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := ""
			if len(args) == 2 {
				body = args[1]
			}
			id := core.ExtractCaseID(args[0], body)
			if id == "" {
				return fmt.Errorf("no case id in %q", strings.TrimSpace(args[0]))
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
