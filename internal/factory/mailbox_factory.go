package factory

import (
	"context"
	"fmt"
	"io"

	"github.com/yash2163/ComplaintHandling-POC/internal/adapters/mailbox"
	"github.com/yash2163/ComplaintHandling-POC/internal/config"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// MailboxFactory creates the draft mailbox and, where the backend can read
// mail, the reader used by the poller
type MailboxFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

// NewMailboxFactory creates a new mailbox factory. out receives drafts from
// the log mailbox.
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger, out io.Writer) *MailboxFactory {
	return &MailboxFactory{
		cfg:    cfg,
		logger: logger,
		out:    out,
	}
}

// CreateMailbox returns the configured mailbox. The reader is nil for
// backends that cannot list mail.
func (f *MailboxFactory) CreateMailbox(ctx context.Context) (core.Mailbox, ports.MailboxReader, error) {
	mailboxType := f.cfg.GetString("mailbox.type")

	switch mailboxType {
	case "graph":
		graphCfg := f.cfg.GetGraph()
		if graphCfg.TenantID == "" || graphCfg.ClientID == "" || graphCfg.ClientSecret == "" {
			return nil, nil, fmt.Errorf("graph tenant_id, client_id and client_secret are required")
		}
		if graphCfg.Mailbox == "" {
			return nil, nil, fmt.Errorf("graph mailbox is required")
		}
		httpClient := mailbox.NewGraphHTTPClient(ctx, graphCfg.TenantID, graphCfg.ClientID, graphCfg.ClientSecret)
		graph := mailbox.NewGraphMailbox(httpClient, graphCfg.BaseURL, graphCfg.Mailbox, f.logger)
		return graph, graph, nil
	case "smtp":
		smtpCfg, err := f.cfg.GetSMTP()
		if err != nil {
			return nil, nil, err
		}
		return mailbox.NewSMTPMailbox(
			smtpCfg.Host,
			smtpCfg.Port,
			smtpCfg.Username,
			smtpCfg.Password,
			smtpCfg.From,
			smtpCfg.StartTLS,
			smtpCfg.Timeout,
			f.logger,
		), nil, nil
	case "log":
		return mailbox.NewLogMailbox(f.out, f.cfg.GetBool("mailbox.verbose"), f.logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported mailbox type: %s", mailboxType)
	}
}
