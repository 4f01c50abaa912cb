package di

import (
	"context"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/yash2163/ComplaintHandling-POC/internal/adapters/repository"
	"github.com/yash2163/ComplaintHandling-POC/internal/config"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/factory"
	"github.com/yash2163/ComplaintHandling-POC/internal/ingest"
	"github.com/yash2163/ComplaintHandling-POC/internal/logging"
	"github.com/yash2163/ComplaintHandling-POC/internal/metrics"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"github.com/yash2163/ComplaintHandling-POC/internal/senders"
	"github.com/yash2163/ComplaintHandling-POC/internal/worker"
)

// BuildContainer creates and configures the dependency injection container
// for the long-running agent
func BuildContainer(ctx context.Context, cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(cfg *config.Config) (*zap.Logger, error) {
		return logging.InitLogger(cfg.GetLogging())
	}); err != nil {
		return nil, err
	}

	if err := provideServices(ctx, container, os.Stdout); err != nil {
		return nil, err
	}
	return container, nil
}

// provideServices registers everything below config and logging. Both the
// agent and the command line tool share it.
func provideServices(ctx context.Context, container *dig.Container, out io.Writer) error {
	// Register metrics
	if err := container.Provide(func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg
	}); err != nil {
		return err
	}
	if err := container.Provide(func(reg *prometheus.Registry) *metrics.Metrics {
		return metrics.New(reg)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(m *metrics.Metrics) core.MetricsRecorder { return m }); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewQueueFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *factory.MailboxFactory {
		return factory.NewMailboxFactory(cfg, logger, out)
	}); err != nil {
		return err
	}

	// Register LLM client and extractor
	if err := container.Provide(func(f *factory.LLMFactory, m *metrics.Metrics) (ports.LLMClient, error) {
		client, err := f.CreateLLMClient(ctx)
		if err != nil {
			return nil, err
		}
		return m.InstrumentLLM(client), nil
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.LLMFactory, client ports.LLMClient) (core.Extractor, error) {
		return f.CreateExtractor(client)
	}); err != nil {
		return err
	}

	// Register storage
	if err := container.Provide(func(f *factory.StoreFactory) (ports.DocumentStore, error) {
		return f.CreateDocumentStore(ctx)
	}); err != nil {
		return err
	}
	if err := container.Provide(repository.NewCaseRepository); err != nil {
		return err
	}
	if err := container.Provide(func(repo *repository.CaseRepository) core.CaseStore { return repo }); err != nil {
		return err
	}

	// Register mailbox and, where supported, its reader
	if err := container.Provide(func(f *factory.MailboxFactory) (core.Mailbox, ports.MailboxReader, error) {
		return f.CreateMailbox(ctx)
	}); err != nil {
		return err
	}

	// Register routing and processors
	if err := container.Provide(func(cfg *config.Config) (core.RoutingTable, error) {
		return cfg.RoutingTable()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config, recorder core.MetricsRecorder) core.ProcessorSettings {
		return core.ProcessorSettings{
			DraftMailbox: cfg.GetRouting().DraftMailbox,
			Metrics:      recorder,
		}
	}); err != nil {
		return err
	}
	if err := container.Provide(core.NewComplaintProcessor); err != nil {
		return err
	}
	if err := container.Provide(core.NewResolutionProcessor); err != nil {
		return err
	}

	// Register transport, ingestion and workers
	if err := container.Provide(func(f *factory.QueueFactory) (ports.EventBus, error) {
		return f.CreateEventBus(ctx)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(
		cfg *config.Config,
		repo *repository.CaseRepository,
		bus ports.EventBus,
		recorder core.MetricsRecorder,
		logger *zap.Logger,
	) *ingest.Ingester {
		ingester := ingest.NewIngester(repo, bus, recorder, logger)
		ingester.RestrictResolutionSenders(senders.NewAllowlist(cfg.GetIntake().TrustedSenderDomains, logger))
		return ingester
	}); err != nil {
		return err
	}
	if err := container.Provide(func(
		bus ports.EventBus,
		complaints *core.ComplaintProcessor,
		resolutions *core.ResolutionProcessor,
		m *metrics.Metrics,
		logger *zap.Logger,
	) *worker.Dispatcher {
		d := worker.NewDispatcher(bus, complaints, resolutions, logger)
		d.Handle(core.TopicComplaint, m.InstrumentHandler(core.TopicComplaint, worker.ComplaintHandler(complaints, logger)))
		d.Handle(core.TopicResolution, m.InstrumentHandler(core.TopicResolution, worker.ResolutionHandler(resolutions, logger)))
		return d
	}); err != nil {
		return err
	}

	return nil
}
