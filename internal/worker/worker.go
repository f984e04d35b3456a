package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/interntrack/backend/pkg/email"
	"github.com/interntrack/backend/pkg/queue"
)

// JobSource is the queue surface the worker consumes. Satisfied by
// *queue.Queue.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// EmailProcessor drains the email queue and hands payloads to a Sender.
type EmailProcessor struct {
	sender email.Sender
	queue  JobSource
	logger *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(sender email.Sender, q JobSource, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{sender: sender, queue: q, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.sender.Send(ctx, payload.RecipientEmail, payload.RecipientName, payload.Subject, payload.Body); err != nil {
		return fmt.Errorf("send %s email: %w", payload.EmailType, err)
	}
	p.logger.Info("email sent",
		zap.String("email_type", payload.EmailType),
		zap.String("recipient", payload.RecipientEmail),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. Returns when
// ctx is cancelled; the backoff sleeps are interruptible so shutdown is not
// delayed by a pending retry.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("email worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			if !p.backoff(ctx) {
				return
			}
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			if !p.backoff(ctx) {
				return
			}
			continue
		}
	}
}

// backoff waits one retry interval, or returns false if ctx is cancelled
// first.
func (p *EmailProcessor) backoff(ctx context.Context) bool {
	timer := time.NewTimer(queue.RetryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		p.logger.Info("email worker stopping")
		return false
	case <-timer.C:
		return true
	}
}
