package mailbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"os"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"go.uber.org/zap"
)

// SMTPMailbox delivers drafts as HTML mail to the review mailbox over SMTP.
// The intended recipient goes in the To header and X-CX-Draft-Recipient; the
// envelope recipient is the mailbox that holds drafts for review.
type SMTPMailbox struct {
	host     string
	port     int
	username string
	password string
	from     string
	startTLS bool
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSMTPMailbox creates a new SMTP mailbox
func NewSMTPMailbox(
	host string,
	port int,
	username string,
	password string,
	from string,
	startTLS bool,
	timeout time.Duration,
	logger *zap.Logger,
) *SMTPMailbox {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPMailbox{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		startTLS: startTLS,
		timeout:  timeout,
		logger:   logger,
	}
}

// CreateDraft sends the draft to mailbox and returns its Message-ID
func (m *SMTPMailbox) CreateDraft(ctx context.Context, mailbox, subject, htmlBody, recipient string) (*core.Draft, error) {
	id := fmt.Sprintf("<%s@cx-agent>", uuid.NewString())
	msg := buildDraftMessage(id, m.from, mailbox, recipient, subject, htmlBody, time.Now())

	if err := m.send(ctx, mailbox, msg); err != nil {
		return nil, fmt.Errorf("failed to deliver draft to %s: %w", mailbox, err)
	}

	m.logger.Info("Draft delivered",
		zap.String("mailbox", mailbox),
		zap.String("recipient", recipient),
		zap.String("draft_id", id))
	return &core.Draft{ID: id, Mailbox: mailbox}, nil
}

func (m *SMTPMailbox) send(ctx context.Context, rcpt string, msg []byte) error {
	addr := net.JoinHostPort(m.host, fmt.Sprint(m.port))

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if m.startTLS {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	if m.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", m.username, m.password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(m.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := c.Rcpt(rcpt, nil); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// Already accepted by the server.
		m.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

func buildDraftMessage(id, from, mailbox, recipient, subject, htmlBody string, now time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Message-ID: %s\r\n", id)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "From: %s\r\n", from)
	to := recipient
	if to == "" {
		to = mailbox
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "X-CX-Draft-Recipient: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return b.Bytes()
}
