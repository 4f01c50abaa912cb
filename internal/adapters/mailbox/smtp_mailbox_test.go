package mailbox

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2163/ComplaintHandling-POC/internal/core"
	"go.uber.org/zap"
)

type captured struct {
	from string
	rcpt []string
	data string
}

type captureBackend struct {
	mu       sync.Mutex
	messages []captured
}

func (b *captureBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &captureSession{backend: b}, nil
}

type captureSession struct {
	backend *captureBackend
	cur     captured
}

func (s *captureSession) Mail(from string, _ *smtp.MailOptions) error {
	s.cur.from = from
	return nil
}

func (s *captureSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.cur.rcpt = append(s.cur.rcpt, to)
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.cur.data = string(data)
	s.backend.mu.Lock()
	s.backend.messages = append(s.backend.messages, s.cur)
	s.backend.mu.Unlock()
	return nil
}

func (s *captureSession) Reset()        { s.cur = captured{} }
func (s *captureSession) Logout() error { return nil }

func startCaptureServer(t *testing.T) (*captureBackend, string, int) {
	t.Helper()
	backend := &captureBackend{}
	srv := smtp.NewServer(backend)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	addr := l.Addr().(*net.TCPAddr)
	return backend, "127.0.0.1", addr.Port
}

func TestSMTPMailboxCreateDraft(t *testing.T) {
	backend, host, port := startCaptureServer(t)
	m := NewSMTPMailbox(host, port, "", "", "agent@example.com", false, 5*time.Second, zap.NewNop())

	draft, err := m.CreateDraft(context.Background(), "review@example.com", "[FINAL DRAFT] Response", "<p>Hello</p>", "cx@example.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(draft.ID, "<"))
	assert.Equal(t, "review@example.com", draft.Mailbox)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.messages, 1)
	msg := backend.messages[0]
	assert.Equal(t, "agent@example.com", msg.from)
	assert.Equal(t, []string{"review@example.com"}, msg.rcpt)
	assert.Contains(t, msg.data, "To: cx@example.com\r\n")
	assert.Contains(t, msg.data, "X-CX-Draft-Recipient: cx@example.com\r\n")
	assert.Contains(t, msg.data, "Message-ID: "+draft.ID)
	assert.Contains(t, msg.data, "<p>Hello</p>")
}

func TestSMTPMailboxConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	m := NewSMTPMailbox("127.0.0.1", port, "", "", "agent@example.com", false, time.Second, zap.NewNop())
	_, err = m.CreateDraft(context.Background(), "review@example.com", "s", "b", "r@example.com")
	assert.Error(t, err)
}

func TestLogMailbox(t *testing.T) {
	var out bytes.Buffer
	m := NewLogMailbox(&out, false, zap.NewNop())

	body := "<p>x</p>" + core.EncodeGridBlock(core.InvestigationGrid{PNR: "ABC123", WeatherCondition: core.WeatherUnknown})
	d1, err := m.CreateDraft(context.Background(), "cx@example.com", "First", body, "ops@example.com")
	require.NoError(t, err)
	d2, err := m.CreateDraft(context.Background(), "cx@example.com", "Second", "<p>y</p>", "ops@example.com")
	require.NoError(t, err)

	assert.Equal(t, "log-draft-1", d1.ID)
	assert.Equal(t, "log-draft-2", d2.ID)
	assert.Contains(t, out.String(), "Subject: First")
	assert.Contains(t, out.String(), "PNR: ABC123")
	assert.NotContains(t, out.String(), "<p>y</p>")
}
