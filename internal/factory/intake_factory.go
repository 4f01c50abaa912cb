package factory

import (
	"fmt"

	"github.com/yash2163/ComplaintHandling-POC/internal/adapters/intake"
	"github.com/yash2163/ComplaintHandling-POC/internal/config"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ingest"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// IntakeFactory creates the components that bring mail into the store
type IntakeFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIntakeFactory creates a new intake factory
func NewIntakeFactory(cfg *config.Config, logger *zap.Logger) *IntakeFactory {
	return &IntakeFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePoller creates the mailbox poller. It fails when polling is enabled
// but the mailbox backend cannot list mail.
func (f *IntakeFactory) CreatePoller(reader ports.MailboxReader, ingester *ingest.Ingester) (*ingest.Poller, error) {
	pollerCfg, err := f.cfg.GetPoller()
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, fmt.Errorf("mailbox type %s cannot be polled", f.cfg.GetString("mailbox.type"))
	}

	folders := []ingest.Folder{
		{Name: pollerCfg.ComplaintsFolder, Type: core.EmailTypeComplaint},
		{Name: pollerCfg.ResolutionsFolder, Type: core.EmailTypeResolution},
	}
	return ingest.NewPoller(reader, ingester, folders, pollerCfg.BatchSize, f.logger), nil
}

// CreateSMTPIntake creates the SMTP listener that feeds ingester
func (f *IntakeFactory) CreateSMTPIntake(ingester *ingest.Ingester) (*intake.SMTPIntake, error) {
	intakeCfg := f.cfg.GetIntake()
	smtpCfg, err := f.cfg.GetSMTP()
	if err != nil {
		return nil, err
	}
	return intake.NewSMTPIntake(
		ingester,
		f.logger,
		intakeCfg.ListenAddress,
		intakeCfg.Domain,
		intakeCfg.ComplaintAddress,
		intakeCfg.ResolutionAddress,
		intakeCfg.MaxMessageBytes,
		smtpCfg.Timeout,
	), nil
}
