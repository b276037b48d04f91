// Package outbox delivers queued emails in the background. Messages are written by the services in
// the same transaction as the state change they report; the dispatcher claims due messages with a
// lease, sends them at a bounded rate and retries failures with exponential backoff.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/justsurfingit/connect-jobs/internal/mailer"
	"github.com/justsurfingit/connect-jobs/internal/metrics"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Config struct {
	PollInterval time.Duration
	BatchSize    int
	Lease        time.Duration
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	// SendRate is messages per second; zero means unlimited.
	SendRate  float64
	Retention time.Duration
}

// Result counts what one drain pass did.
type Result struct {
	Sent    int
	Retried int
	Failed  int
}

type Dispatcher struct {
	outbox  repository.Outbox
	mailer  mailer.Mailer
	cfg     Config
	limiter *rate.Limiter
	log     *logrus.Entry
	now     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDispatcher(outbox repository.Outbox, m mailer.Mailer, cfg Config, log *logrus.Entry) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	return &Dispatcher{
		outbox:  outbox,
		mailer:  m,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start drains once immediately and then on every poll interval until Stop or ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.cfg.PollInterval)
		defer ticker.Stop()
		for {
			d.drainLogged(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	d.log.WithField("interval", d.cfg.PollInterval).Info("outbox dispatcher started")
}

// Stop cancels the loop and waits for an in-flight pass to return.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	d.log.Info("outbox dispatcher stopped")
}

func (d *Dispatcher) drainLogged(ctx context.Context) {
	res, err := d.DrainOnce(ctx)
	if err != nil && ctx.Err() == nil {
		d.log.WithError(err).Error("outbox pass failed")
		return
	}
	if res.Sent+res.Retried+res.Failed > 0 {
		d.log.WithFields(logrus.Fields{
			"sent":    res.Sent,
			"retried": res.Retried,
			"failed":  res.Failed,
		}).Info("outbox pass finished")
	}
}

// DrainOnce claims one batch of due messages and attempts each exactly once.
func (d *Dispatcher) DrainOnce(ctx context.Context) (Result, error) {
	var res Result
	msgs, err := d.outbox.ClaimDue(ctx, d.now(), d.cfg.Lease, d.cfg.BatchSize)
	if err != nil {
		return res, err
	}
	for i := range msgs {
		if err := d.limiter.Wait(ctx); err != nil {
			return res, err
		}
		outcome, err := d.deliver(ctx, &msgs[i])
		if err != nil {
			return res, err
		}
		switch outcome {
		case models.OutboxSent:
			res.Sent++
		case models.OutboxFailed:
			res.Failed++
		default:
			res.Retried++
		}
	}
	return res, nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg *models.OutboxMessage) (models.OutboxStatus, error) {
	entry := d.log.WithFields(logrus.Fields{"message_id": msg.ID, "recipient": msg.Recipient})
	sendErr := d.mailer.Send(ctx, mailer.Message{
		To:      msg.Recipient,
		Subject: msg.Subject,
		Text:    msg.TextBody,
		HTML:    msg.HTMLBody,
	})
	attempts := msg.Attempts + 1

	if sendErr == nil {
		metrics.OutboxDelivery("sent")
		entry.WithField("attempts", attempts).Info("email sent")
		return models.OutboxSent, d.outbox.MarkSent(ctx, msg.ID, d.now())
	}

	if mailer.IsPermanent(sendErr) || attempts >= d.cfg.MaxAttempts {
		metrics.OutboxDelivery("failed")
		entry.WithError(sendErr).WithField("attempts", attempts).Error("email delivery abandoned")
		return models.OutboxFailed, d.outbox.MarkFailed(ctx, msg.ID, attempts, sendErr.Error())
	}

	next := d.now().Add(d.Backoff(attempts))
	metrics.OutboxDelivery("retry")
	entry.WithError(sendErr).WithFields(logrus.Fields{
		"attempts":   attempts,
		"next_retry": next,
	}).Warn("email delivery failed, will retry")
	return models.OutboxPending, d.outbox.MarkRetry(ctx, msg.ID, attempts, next, sendErr.Error())
}

// Backoff is BaseBackoff doubled per earlier attempt, capped at MaxBackoff.
func (d *Dispatcher) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	wait := d.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		wait *= 2
		if d.cfg.MaxBackoff > 0 && wait >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	if d.cfg.MaxBackoff > 0 && wait > d.cfg.MaxBackoff {
		return d.cfg.MaxBackoff
	}
	return wait
}

// PurgeSent drops delivered messages older than the retention window.
func (d *Dispatcher) PurgeSent(ctx context.Context) (int64, error) {
	if d.cfg.Retention <= 0 {
		return 0, nil
	}
	return d.outbox.PurgeSent(ctx, d.now().Add(-d.cfg.Retention))
}

// RefreshPending publishes the pending count to the metrics gauge.
func (d *Dispatcher) RefreshPending(ctx context.Context) (int64, error) {
	n, err := d.outbox.CountPending(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SetOutboxPending(n)
	return n, nil
}
