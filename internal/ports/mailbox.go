package ports

import (
	"context"
	"time"
)

// InboundMessage is an unread message pulled from a monitored folder
type InboundMessage struct {
	ID         string
	Subject    string
	Body       string
	From       string
	ReceivedAt time.Time
}

// MailboxReader defines the read side of the shared mailbox used by ingestion
type MailboxReader interface {
	// FolderID resolves a folder display name to its id
	FolderID(ctx context.Context, name string) (string, error)

	// ListUnread returns up to limit unread messages, newest first, after
	// skipping the first skip of them
	ListUnread(ctx context.Context, folderID string, limit, skip int) ([]InboundMessage, error)

	// MarkRead flags a message as read
	MarkRead(ctx context.Context, messageID string) error
}
