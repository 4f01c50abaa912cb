package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yash2163/ComplaintHandling-POC/internal/config"
	"github.com/yash2163/ComplaintHandling-POC/internal/di"
	"github.com/yash2163/ComplaintHandling-POC/internal/factory"
	"github.com/yash2163/ComplaintHandling-POC/internal/ingest"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"github.com/yash2163/ComplaintHandling-POC/internal/worker"
	"go.uber.org/dig"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	container, err := di.BuildContainer(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(deps agentDeps) error { return run(ctx, deps) }); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// agentDeps are the components the agent runs
type agentDeps struct {
	dig.In

	Config        *config.Config
	Logger        *zap.Logger
	Registry      *prometheus.Registry
	Dispatcher    *worker.Dispatcher
	Ingester      *ingest.Ingester
	IntakeFactory *factory.IntakeFactory
	Reader        ports.MailboxReader
	Bus           ports.EventBus
	Store         ports.DocumentStore
	LLM           ports.LLMClient
}

// run starts the intake, the workers and the health server, and blocks
// until ctx is cancelled or one of them fails
func run(ctx context.Context, deps agentDeps) error {
	logger := deps.Logger
	defer logger.Sync()

	serverCfg, err := deps.Config.GetServer()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Dispatcher.Run(ctx)
	})

	if err := startIntake(ctx, g, deps); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    serverCfg.ListenAddress,
		Handler: newMux(deps.Registry),
	}
	g.Go(func() error {
		logger.Info("Health server starting", zap.String("address", serverCfg.ListenAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	closeAll(logger,
		namedCloser{"event bus", deps.Bus},
		namedCloser{"document store", deps.Store},
		namedCloser{"LLM client", deps.LLM},
	)
	logger.Info("Shutdown complete")
	return err
}

// startIntake starts the mailbox poller or the SMTP listener
func startIntake(ctx context.Context, g *errgroup.Group, deps agentDeps) error {
	intakeType := deps.Config.GetIntake().Type

	switch intakeType {
	case "poller":
		pollerCfg, err := deps.Config.GetPoller()
		if err != nil {
			return err
		}
		if !pollerCfg.Enabled {
			deps.Logger.Info("Mailbox polling disabled")
			return nil
		}
		poller, err := deps.IntakeFactory.CreatePoller(deps.Reader, deps.Ingester)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := poller.Run(ctx, pollerCfg.Interval); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	case "smtp":
		smtpIntake, err := deps.IntakeFactory.CreateSMTPIntake(deps.Ingester)
		if err != nil {
			return err
		}
		if err := smtpIntake.Start(); err != nil {
			return fmt.Errorf("failed to start SMTP intake: %w", err)
		}
		g.Go(func() error {
			<-ctx.Done()
			return smtpIntake.Stop()
		})
	case "none":
		deps.Logger.Info("No intake configured, consuming events only")
	default:
		return fmt.Errorf("unsupported intake type: %s", intakeType)
	}
	return nil
}

func newMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

type namedCloser struct {
	name string
	v    any
}

func closeAll(logger *zap.Logger, closers ...namedCloser) {
	for _, c := range closers {
		closer, ok := c.v.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close "+c.name, zap.Error(err))
		}
	}
}
