package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"golang.org/x/text/encoding/htmlindex"
)

var headerDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader decodes any charset the WHATWG index knows about
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// ErrMalformedMessage marks input that can never be parsed
var ErrMalformedMessage = errors.New("malformed email message")

// ParseMessage turns a raw RFC 5322 message into an inbound message.
// The plain text body is preferred and HTML is used when it is the only
// readable part.
func ParseMessage(raw []byte, envelopeFrom string, now time.Time) (ports.InboundMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return ports.InboundMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	id := strings.Trim(strings.TrimSpace(msg.Header.Get("Message-Id")), "<>")
	if id == "" {
		id = uuid.NewString()
	}

	from := envelopeFrom
	if addr, err := mail.ParseAddress(decodeHeader(msg.Header.Get("From"))); err == nil {
		from = addr.Address
	}

	receivedAt := now
	if date, err := msg.Header.Date(); err == nil {
		receivedAt = date
	}

	plain, html, err := extractBodies(mailHeader(msg.Header), msg.Body)
	if err != nil {
		return ports.InboundMessage{}, err
	}
	body := plain
	if strings.TrimSpace(body) == "" {
		body = html
	}

	return ports.InboundMessage{
		ID:         id,
		Subject:    decodeHeader(msg.Header.Get("Subject")),
		Body:       body,
		From:       from,
		ReceivedAt: receivedAt.UTC(),
	}, nil
}

func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// partHeader is the subset of header access shared by mail.Header and
// multipart part headers
type partHeader interface {
	Get(key string) string
}

type mailHeader mail.Header

func (h mailHeader) Get(key string) string {
	return mail.Header(h).Get(key)
}

// extractBodies walks a MIME entity and collects its text/plain and
// text/html content, descending into nested multiparts. Attachments are
// skipped.
func extractBodies(header partHeader, body io.Reader) (plain, html string, err error) {
	mediaType, params, perr := mime.ParseMediaType(header.Get("Content-Type"))
	if perr != nil {
		mediaType = "text/plain"
		params = map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", "", fmt.Errorf("multipart message without boundary")
		}
		var plainParts, htmlParts []string
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				if len(plainParts)+len(htmlParts) > 0 {
					break
				}
				return "", "", fmt.Errorf("failed to read multipart body: %w", err)
			}
			if isAttachment(part.Header.Get("Content-Disposition")) {
				continue
			}
			p, h, err := extractBodies(part.Header, part)
			if err != nil {
				return "", "", err
			}
			if p != "" {
				plainParts = append(plainParts, p)
			}
			if h != "" {
				htmlParts = append(htmlParts, h)
			}
		}
		return strings.Join(plainParts, "\n"), strings.Join(htmlParts, "\n"), nil
	}

	if mediaType != "text/plain" && mediaType != "text/html" {
		return "", "", nil
	}

	text, err := readText(header, params["charset"], body)
	if err != nil {
		return "", "", err
	}
	if mediaType == "text/html" {
		return "", text, nil
	}
	return text, "", nil
}

func isAttachment(disposition string) bool {
	d, _, err := mime.ParseMediaType(disposition)
	return err == nil && d == "attachment"
}

// readText undoes the transfer encoding and converts to UTF-8. multipart
// already strips quoted-printable from parts, so that header is absent
// there.
func readText(header partHeader, charset string, body io.Reader) (string, error) {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}

	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
		decoded, err := charsetReader(charset, body)
		if err == nil {
			body = decoded
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read message body: %w", err)
	}
	return string(data), nil
}
