package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// Folder is a monitored mailbox folder and the record type it feeds
type Folder struct {
	Name string
	Type core.EmailType
}

// DefaultFolders are the folders of the shared CX mailbox
var DefaultFolders = []Folder{
	{Name: "Complaints", Type: core.EmailTypeComplaint},
	{Name: "Resolutions", Type: core.EmailTypeResolution},
}

// PollStats counts what one poll cycle did
type PollStats struct {
	Seen      int
	Ingested  int
	Duplicate int
	Skipped   int
}

// Poller pulls unread mail from the shared mailbox into the ingester
type Poller struct {
	reader    ports.MailboxReader
	ingester  *Ingester
	folders   []Folder
	batchSize int
	logger    *zap.Logger
}

// NewPoller creates a new poller
func NewPoller(reader ports.MailboxReader, ingester *Ingester, folders []Folder, batchSize int, logger *zap.Logger) *Poller {
	if len(folders) == 0 {
		folders = DefaultFolders
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Poller{
		reader:    reader,
		ingester:  ingester,
		folders:   folders,
		batchSize: batchSize,
		logger:    logger,
	}
}

// PollOnce runs one cycle over every folder. Folder lookups happen first so
// a missing folder fails the cycle before anything is ingested.
func (p *Poller) PollOnce(ctx context.Context) (PollStats, error) {
	var stats PollStats

	ids := make([]string, len(p.folders))
	for i, f := range p.folders {
		id, err := p.reader.FolderID(ctx, f.Name)
		if err != nil {
			return stats, fmt.Errorf("required folder %s: %w", f.Name, err)
		}
		ids[i] = id
	}

	for i, f := range p.folders {
		if err := p.pollFolder(ctx, f, ids[i], &stats); err != nil {
			return stats, err
		}
	}

	p.logger.Info("Poll cycle finished",
		zap.Int("seen", stats.Seen),
		zap.Int("ingested", stats.Ingested),
		zap.Int("duplicate", stats.Duplicate),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// pollFolder ingests one batch of unread mail. Messages left unread are
// skipped on the next page, so a full batch of them cannot hide older mail.
func (p *Poller) pollFolder(ctx context.Context, f Folder, folderID string, stats *PollStats) error {
	held := 0
	for {
		msgs, err := p.reader.ListUnread(ctx, folderID, p.batchSize, held)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", f.Name, err)
		}

		heldInPage := 0
		for _, msg := range msgs {
			stats.Seen++
			result, err := p.ingester.Ingest(ctx, f.Type, msg)
			if err != nil {
				return fmt.Errorf("failed to ingest %s: %w", msg.ID, err)
			}

			switch result {
			case ResultNoCaseID:
				// Left unread so someone can add the case id and let the
				// next cycle pick it up.
				stats.Skipped++
				heldInPage++
				continue
			case ResultDuplicate:
				// Marked read again so it stops occupying the batch.
				stats.Duplicate++
			case ResultUntrusted:
				stats.Skipped++
			default:
				stats.Ingested++
			}

			if err := p.reader.MarkRead(ctx, msg.ID); err != nil {
				p.logger.Warn("Failed to mark message read",
					zap.String("email_id", msg.ID),
					zap.Error(err))
			}
		}

		// Page on only while held mail filled part of a full batch.
		if len(msgs) < p.batchSize || heldInPage == 0 {
			return nil
		}
		held += heldInPage
	}
}

// Run polls on a fixed interval until ctx is cancelled. Cycle errors are
// logged and the next tick tries again.
func (p *Poller) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.PollOnce(ctx); err != nil {
			p.logger.Error("Poll cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
