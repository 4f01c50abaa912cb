package di

import (
	"context"
	"io"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/yash2163/ComplaintHandling-POC/internal/config"
	"github.com/yash2163/ComplaintHandling-POC/internal/logging"
)

// CLIFlags contains the global flags of the command line tool
type CLIFlags struct {
	ConfigFile string
	Provider   string
	StoreType  string
	QueueType  string
	DryRun     bool
	Verbose    bool
	JSONLog    bool
}

// BuildCLIContainer creates a container for the command line tool. Flags
// override the loaded configuration; DryRun prints drafts to out instead
// of creating them.
func BuildCLIContainer(ctx context.Context, flags *CLIFlags, out io.Writer) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := loadCLIConfig(flags)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideServices(ctx, container, out); err != nil {
		return nil, err
	}
	return container, nil
}

func loadCLIConfig(flags *CLIFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigFile != "" {
		cfg, err = config.NewFromFile(flags.ConfigFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}
	applyFlags(cfg, flags)
	return cfg, nil
}

// applyFlags writes non-empty flag values over the configuration
func applyFlags(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()
	if flags.Provider != "" {
		v.Set("llm.provider", flags.Provider)
	}
	if flags.StoreType != "" {
		v.Set("store.type", flags.StoreType)
	}
	if flags.QueueType != "" {
		v.Set("queue.type", flags.QueueType)
	}
	if flags.DryRun {
		v.Set("mailbox.type", "log")
		v.Set("mailbox.verbose", flags.Verbose)
	}
}
