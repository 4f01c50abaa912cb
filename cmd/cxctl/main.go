package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yash2163/ComplaintHandling-POC/internal/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &di.CLIFlags{}

	cmd := &cobra.Command{
		Use:   "cxctl",
		Short: "Operate the complaint handling agent from the command line",
		Long: `cxctl runs single steps of the complaint workflow against the configured
store, mailbox and LLM provider.

Examples:
  # Process a stored complaint and print the draft instead of creating it
  cxctl --dry-run process complaint AAMkAGI2

  # Ingest a raw message from a file and process it immediately
  cxctl --queue memory ingest --file complaint.eml --process

  # Load passenger and weather fixtures
  cxctl seed fixtures.yaml`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	pf.StringVar(&flags.Provider, "provider", "", "LLM provider (bedrock, gemini, openai)")
	pf.StringVar(&flags.StoreType, "store", "", "Document store (memory, sqlite, mysql, postgres, firestore)")
	pf.StringVar(&flags.QueueType, "queue", "", "Event bus (memory, redis, pubsub)")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Print drafts instead of creating them")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	cmd.AddCommand(newProcessCommand(flags))
	cmd.AddCommand(newIngestCommand(flags))
	cmd.AddCommand(newPollCommand(flags))
	cmd.AddCommand(newCaseIDCommand())
	cmd.AddCommand(newSeedCommand(flags))

	return cmd
}

// invoke builds the command line container and calls fn with its
// dependencies
func invoke(cmd *cobra.Command, flags *di.CLIFlags, fn any) error {
	container, err := di.BuildCLIContainer(cmd.Context(), flags, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	return container.Invoke(fn)
}
