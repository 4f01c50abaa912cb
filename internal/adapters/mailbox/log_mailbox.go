package mailbox

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"go.uber.org/zap"
)

// LogMailbox writes drafts to a writer instead of a mail system. It backs
// dry runs from the command line.
type LogMailbox struct {
	out     io.Writer
	verbose bool
	logger  *zap.Logger

	mu    sync.Mutex
	count int
}

// NewLogMailbox creates a new log mailbox
func NewLogMailbox(out io.Writer, verbose bool, logger *zap.Logger) *LogMailbox {
	return &LogMailbox{
		out:     out,
		verbose: verbose,
		logger:  logger,
	}
}

// CreateDraft prints the draft and returns a sequential id
func (m *LogMailbox) CreateDraft(ctx context.Context, mailbox, subject, htmlBody, recipient string) (*core.Draft, error) {
	m.mu.Lock()
	m.count++
	id := fmt.Sprintf("log-draft-%d", m.count)
	m.mu.Unlock()

	m.logger.Debug("Writing draft", zap.String("draft_id", id), zap.String("mailbox", mailbox))

	fmt.Fprintf(m.out, "\n=== Draft %s ===\n", id)
	fmt.Fprintf(m.out, "Mailbox: %s\n", mailbox)
	fmt.Fprintf(m.out, "To: %s\n", recipient)
	fmt.Fprintf(m.out, "Subject: %s\n", subject)
	fmt.Fprintf(m.out, "Body length: %d bytes\n", len(htmlBody))

	if m.verbose {
		fmt.Fprintf(m.out, "\n%s\n", htmlBody)
	} else if grid, ok := core.ParseGridBlock(htmlBody); ok {
		fmt.Fprintf(m.out, "\n%s\n", core.EncodeGridBlock(grid))
	}

	return &core.Draft{ID: id, Mailbox: mailbox}, nil
}
