package mailbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultGraphBaseURL is the Microsoft Graph v1.0 endpoint
const DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// NewGraphHTTPClient returns an HTTP client that authenticates with the
// app-only client credentials flow against the tenant
func NewGraphHTTPClient(ctx context.Context, tenantID, clientID, clientSecret string) *http.Client {
	creds := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return creds.Client(ctx)
}

// GraphMailbox creates drafts and reads the monitored shared mailbox through
// Microsoft Graph
type GraphMailbox struct {
	httpClient *http.Client
	baseURL    string
	mailbox    string
	logger     *zap.Logger
}

// NewGraphMailbox creates a Graph mailbox. mailbox is the monitored shared
// mailbox used by the reader side.
func NewGraphMailbox(httpClient *http.Client, baseURL, mailbox string, logger *zap.Logger) *GraphMailbox {
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	return &GraphMailbox{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		mailbox:    mailbox,
		logger:     logger,
	}
}

type graphRecipient struct {
	EmailAddress struct {
		Address string `json:"address"`
		Name    string `json:"name,omitempty"`
	} `json:"emailAddress"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphDraftRequest struct {
	Subject      string           `json:"subject"`
	Body         graphBody        `json:"body"`
	ToRecipients []graphRecipient `json:"toRecipients"`
}

type graphMessage struct {
	ID               string         `json:"id"`
	Subject          string         `json:"subject"`
	Body             graphBody      `json:"body"`
	BodyPreview      string         `json:"bodyPreview"`
	From             graphRecipient `json:"from"`
	ReceivedDateTime time.Time      `json:"receivedDateTime"`
}

// CreateDraft saves an HTML draft in mailbox addressed to recipient
func (m *GraphMailbox) CreateDraft(ctx context.Context, mailbox, subject, htmlBody, recipient string) (*core.Draft, error) {
	req := graphDraftRequest{
		Subject: subject,
		Body:    graphBody{ContentType: "HTML", Content: htmlBody},
	}
	if recipient != "" {
		var r graphRecipient
		r.EmailAddress.Address = recipient
		req.ToRecipients = []graphRecipient{r}
	}

	var created graphMessage
	endpoint := fmt.Sprintf("%s/users/%s/messages", m.baseURL, url.PathEscape(mailbox))
	if err := m.do(ctx, http.MethodPost, endpoint, req, &created); err != nil {
		return nil, fmt.Errorf("failed to create draft in %s: %w", mailbox, err)
	}
	if created.ID == "" {
		return nil, errors.New("graph returned a draft without an id")
	}

	m.logger.Info("Draft created",
		zap.String("mailbox", mailbox),
		zap.String("recipient", recipient),
		zap.String("draft_id", created.ID))
	return &core.Draft{ID: created.ID, Mailbox: mailbox}, nil
}

// FolderID resolves a mail folder display name to its id
func (m *GraphMailbox) FolderID(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("displayName eq '%s'", strings.ReplaceAll(name, "'", "''")))
	endpoint := fmt.Sprintf("%s/users/%s/mailFolders?%s", m.baseURL, url.PathEscape(m.mailbox), q.Encode())

	var resp struct {
		Value []struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"value"`
	}
	if err := m.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to look up folder %q: %w", name, err)
	}
	if len(resp.Value) == 0 {
		return "", fmt.Errorf("folder %q not found in %s", name, m.mailbox)
	}
	return resp.Value[0].ID, nil
}

// ListUnread returns up to limit unread messages in a folder, newest first,
// starting after the first skip
func (m *GraphMailbox) ListUnread(ctx context.Context, folderID string, limit, skip int) ([]ports.InboundMessage, error) {
	q := url.Values{}
	q.Set("$filter", "isRead eq false")
	q.Set("$orderby", "receivedDateTime desc")
	q.Set("$select", "id,subject,body,bodyPreview,from,receivedDateTime")
	if limit > 0 {
		q.Set("$top", strconv.Itoa(limit))
	}
	if skip > 0 {
		q.Set("$skip", strconv.Itoa(skip))
	}
	endpoint := fmt.Sprintf("%s/users/%s/mailFolders/%s/messages?%s",
		m.baseURL, url.PathEscape(m.mailbox), url.PathEscape(folderID), q.Encode())

	var resp struct {
		Value []graphMessage `json:"value"`
	}
	if err := m.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}

	msgs := make([]ports.InboundMessage, 0, len(resp.Value))
	for _, gm := range resp.Value {
		body := gm.Body.Content
		if body == "" {
			body = gm.BodyPreview
		}
		msgs = append(msgs, ports.InboundMessage{
			ID:         gm.ID,
			Subject:    gm.Subject,
			Body:       body,
			From:       gm.From.EmailAddress.Address,
			ReceivedAt: gm.ReceivedDateTime,
		})
	}
	return msgs, nil
}

// MarkRead flags a message in the monitored mailbox as read
func (m *GraphMailbox) MarkRead(ctx context.Context, messageID string) error {
	endpoint := fmt.Sprintf("%s/users/%s/messages/%s", m.baseURL, url.PathEscape(m.mailbox), url.PathEscape(messageID))
	if err := m.do(ctx, http.MethodPatch, endpoint, map[string]bool{"isRead": true}, nil); err != nil {
		return fmt.Errorf("failed to mark message %s read: %w", messageID, err)
	}
	return nil
}

func (m *GraphMailbox) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("graph API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
