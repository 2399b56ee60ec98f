package service

import (
	"bitwise74/portal-web/internal/metrics"
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("mail queue full")
	ErrQueueClosed = errors.New("mail queue closed")
)

type MailJob struct {
	To    string
	Token string
}

// MailQueue hands verification mails to a pool of workers so a request
// never waits on the SMTP server. Jobs are not retried or persisted.
type MailQueue struct {
	jobs    chan MailJob
	sender  VerificationSender
	workers int
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMailQueue initializes a new queue that holds at most size pending
// jobs. A zero timeout means sends are not bounded.
func NewMailQueue(sender VerificationSender, workers, size int, timeout time.Duration) *MailQueue {
	zap.L().Debug("Initializing mail queue", zap.Int("workers", workers), zap.Int("size", size))

	return &MailQueue{
		jobs:    make(chan MailJob, size),
		sender:  sender,
		workers: workers,
		timeout: timeout,
	}
}

func (q *MailQueue) StartWorkerPool() {
	for range q.workers {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *MailQueue) worker() {
	defer q.wg.Done()

	for job := range q.jobs {
		ctx := context.Background()
		cancel := func() {}
		if q.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, q.timeout)
		}

		err := q.sender.SendVerificationMail(ctx, job.To, job.Token)
		cancel()

		if err != nil {
			metrics.MailsSent.WithLabelValues("failed").Inc()
			zap.L().Error("Failed to send verification email", zap.String("to", job.To), zap.Error(err))
			continue
		}

		metrics.MailsSent.WithLabelValues("sent").Inc()
		zap.L().Debug("Verification email sent", zap.String("to", job.To))
	}
}

// Enqueue never blocks. It fails when the queue is full or closed
func (q *MailQueue) Enqueue(job MailJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		metrics.MailsSent.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits until the queued ones are sent
func (q *MailQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}
