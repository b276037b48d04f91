package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/gmail/v1"
)

// GmailMailer sends through the Gmail API as the authorised account ("me").
type GmailMailer struct {
	svc  *gmail.Service
	from string
}

func NewGmailMailer(svc *gmail.Service, from string) *GmailMailer {
	return &GmailMailer{svc: svc, from: from}
}

func (m *GmailMailer) Send(ctx context.Context, msg Message) error {
	raw, err := Compose(m.from, msg, time.Now())
	if err != nil {
		return &PermanentError{Err: err}
	}
	_, err = m.svc.Users.Messages.
		Send("me", &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

// Compose renders msg as an RFC 5322 message with text and HTML alternatives.
func Compose(from string, msg Message, date time.Time) ([]byte, error) {
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if msg.Text == "" && msg.HTML == "" {
		return nil, errors.New("message has no body")
	}

	var buf bytes.Buffer
	body := multipart.NewWriter(&buf)
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	if from != "" {
		header("From", mime.QEncoding.Encode("utf-8", "Job Board")+" <"+from+">")
	}
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@connect-jobs>")
	header("MIME-Version", "1.0")
	header("Content-Type", "multipart/alternative; boundary="+body.Boundary())
	buf.WriteString("\r\n")

	text := msg.Text
	html := msg.HTML
	if html == "" {
		html = text
	}
	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=utf-8", text},
		{"text/html; charset=utf-8", html},
	} {
		if part.content == "" {
			continue
		}
		w, err := body.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := body.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
