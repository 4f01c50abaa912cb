package intake

import (
	"context"
	"errors"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ingest"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// Ingester stores and announces an inbound message
type Ingester interface {
	Ingest(ctx context.Context, kind core.EmailType, msg ports.InboundMessage) (ingest.Result, error)
}

// SMTPIntake accepts complaint and resolution mail over SMTP, for
// deployments where the mail server relays into the agent instead of the
// agent polling a Graph mailbox.
type SMTPIntake struct {
	ingester          Ingester
	logger            *zap.Logger
	listenAddr        string
	domain            string
	complaintAddress  string
	resolutionAddress string
	maxMessageBytes   int64
	timeout           time.Duration
	server            *smtp.Server
	now               func() time.Time
}

// NewSMTPIntake creates a new SMTP intake. Mail to resolutionAddress is a
// resolution and mail to complaintAddress a complaint; anything else is a
// resolution only when its subject carries a case tag.
func NewSMTPIntake(
	ingester Ingester,
	logger *zap.Logger,
	listenAddr string,
	domain string,
	complaintAddress string,
	resolutionAddress string,
	maxMessageBytes int64,
	timeout time.Duration,
) *SMTPIntake {
	if domain == "" {
		domain = "localhost"
	}
	if maxMessageBytes <= 0 {
		maxMessageBytes = 30 * 1024 * 1024
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPIntake{
		ingester:          ingester,
		logger:            logger,
		listenAddr:        listenAddr,
		domain:            domain,
		complaintAddress:  strings.ToLower(complaintAddress),
		resolutionAddress: strings.ToLower(resolutionAddress),
		maxMessageBytes:   maxMessageBytes,
		timeout:           timeout,
		now:               time.Now,
	}
}

// Start starts listening in the background
func (s *SMTPIntake) Start() error {
	s.server = smtp.NewServer(&smtpBackend{intake: s})
	s.server.Addr = s.listenAddr
	s.server.Domain = s.domain
	s.server.ReadTimeout = s.timeout
	s.server.WriteTimeout = s.timeout
	s.server.MaxMessageBytes = s.maxMessageBytes
	s.server.MaxRecipients = 50

	s.logger.Info("SMTP intake starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			s.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop closes the listener and open sessions
func (s *SMTPIntake) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// Classify picks the record type for a message delivered to recipients
func (s *SMTPIntake) Classify(recipients []string, subject string) core.EmailType {
	for _, rcpt := range recipients {
		addr := normalizeAddress(rcpt)
		switch {
		case s.resolutionAddress != "" && addr == s.resolutionAddress:
			return core.EmailTypeResolution
		case s.complaintAddress != "" && addr == s.complaintAddress:
			return core.EmailTypeComplaint
		}
	}
	if core.ExtractCaseID(subject, "") != "" {
		return core.EmailTypeResolution
	}
	return core.EmailTypeComplaint
}

// Deliver parses and ingests one raw message
func (s *SMTPIntake) Deliver(ctx context.Context, sender string, recipients []string, raw []byte) (ingest.Result, error) {
	msg, err := ParseMessage(raw, sender, s.now())
	if err != nil {
		return "", err
	}
	kind := s.Classify(recipients, msg.Subject)
	return s.ingester.Ingest(ctx, kind, msg)
}

func normalizeAddress(addr string) string {
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	}
	return strings.ToLower(strings.Trim(strings.TrimSpace(addr), "<>"))
}

type smtpBackend struct {
	intake *SMTPIntake
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{intake: b.intake}, nil
}

type smtpSession struct {
	intake     *SMTPIntake
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data ingests the message. Storage and publish faults become a 451 so the
// relay retries; unparseable messages are refused for good.
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.intake.timeout)
	defer cancel()

	result, err := s.intake.Deliver(ctx, s.sender, s.recipients, raw)
	if errors.Is(err, ErrMalformedMessage) {
		s.intake.logger.Warn("Rejecting malformed message",
			zap.String("sender", s.sender),
			zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}
	if err != nil {
		s.intake.logger.Error("Failed to ingest message",
			zap.String("sender", s.sender),
			zap.Error(err))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Message could not be stored, try again later",
		}
	}

	s.intake.logger.Info("Message received",
		zap.String("sender", s.sender),
		zap.Strings("recipients", s.recipients),
		zap.String("result", string(result)))
	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
