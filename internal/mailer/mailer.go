// Package mailer delivers composed emails over an outbound transport.
package mailer

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err should stop further delivery attempts. Gmail 4xx answers other
// than 429 are permanent.
func IsPermanent(err error) bool {
	var perm *PermanentError
	if errors.As(err, &perm) {
		return true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code >= 400 && gErr.Code < 500 && gErr.Code != http.StatusTooManyRequests
	}
	return false
}

// LogMailer writes messages to the log instead of sending them. Used when no transport is configured.
type LogMailer struct {
	log *logrus.Entry
}

func NewLogMailer(log *logrus.Entry) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return &PermanentError{Err: errors.New("recipient is empty")}
	}
	m.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("email not sent (no transport configured)")
	return nil
}
