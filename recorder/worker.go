package main

import (
	"context"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Job is one delivered message awaiting acknowledgement.
type Job interface {
	Payload() []byte
	Ack() error
	Nak() error
}

type natsJob struct {
	msg *nats.Msg
}

func (j natsJob) Payload() []byte { return j.msg.Data }
func (j natsJob) Ack() error      { return j.msg.Ack() }
func (j natsJob) Nak() error      { return j.msg.Nak() }

type WorkerPool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	handler func(ctx context.Context, msg []byte) error
	logger  *zap.SugaredLogger
}

func NewWorkerPool(ctx context.Context, maxWorkers, queueSize int, handler func(ctx context.Context, msg []byte) error, logger *zap.SugaredLogger) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 2
	}
	if queueSize < 1 {
		queueSize = 100
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	poolCtx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		jobs:    make(chan Job, queueSize),
		ctx:     poolCtx,
		cancel:  cancel,
		handler: handler,
		logger:  logger,
	}

	for i := 0; i < maxWorkers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

func (w *WorkerPool) worker() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			w.process(job)
		}
	}
}

func (w *WorkerPool) process(job Job) {
	if err := w.handler(w.ctx, job.Payload()); err != nil {
		w.logger.Errorw("failed to handle message", "error", err)
		if err := job.Nak(); err != nil {
			w.logger.Errorw("failed to nak message", "error", err)
		}
		return
	}

	if err := job.Ack(); err != nil {
		w.logger.Errorw("failed to ack message", "error", err)
	}
}

// Submit queues a job, blocking while the queue is full. It returns false
// once either context is cancelled.
func (w *WorkerPool) Submit(ctx context.Context, job Job) bool {
	if w.ctx.Err() != nil {
		return false
	}

	select {
	case w.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	case <-w.ctx.Done():
		return false
	}
}

// Stop cancels the workers. Jobs still queued are neither acked nor nakked
// and will be redelivered.
func (w *WorkerPool) Stop() {
	w.cancel()
}

func (w *WorkerPool) Wait() {
	w.wg.Wait()
}
