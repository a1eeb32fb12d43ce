// Package scheduler runs shader compiles on a fixed worker pool. Tasks are
// queued on a buffered channel; callbacks fire on worker goroutines, so
// callers needing main-thread delivery must marshal themselves.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

// compileFunc is the synchronous compile path the pool drives, supplied by
// the manager to avoid an import cycle.
type compileFunc func(request models.CompileRequest) (*models.Shader, error)

// Pool is the async compilation scheduler. On Stop, tasks already claimed by
// a worker run to completion; tasks still queued are abandoned and their
// callbacks never fire. That is deliberate: shutdown must not wait for an
// arbitrarily deep queue.
type Pool struct {
	compile compileFunc
	queue   chan models.AsyncCompileTask
	workers int
	logger  arbor.ILogger

	pending sync.WaitGroup // queued or running tasks
	done    sync.WaitGroup // worker goroutines
	stop    chan struct{}

	mu      sync.Mutex
	stopped bool
}

// NewPool creates and starts the worker pool.
func NewPool(compile compileFunc, config common.SchedulerConfig, logger arbor.ILogger) *Pool {
	p := &Pool{
		compile: compile,
		queue:   make(chan models.AsyncCompileTask, config.QueueCapacity()),
		workers: config.WorkerCount(),
		logger:  logger,
		stop:    make(chan struct{}),
	}
	for i := 0; i < p.workers; i++ {
		p.done.Add(1)
		go p.worker(i)
	}
	logger.Info().
		Int("workers", p.workers).
		Int("queue_capacity", cap(p.queue)).
		Msg("Async compile pool started")
	return p
}

// Submit enqueues a compile and returns the task ID. Fails when the pool is
// stopped or the queue is full.
func (p *Pool) Submit(request models.CompileRequest, callback func(models.CompileResult)) (string, error) {
	if err := request.Validate(); err != nil {
		return "", err
	}

	task := models.AsyncCompileTask{
		ID:          common.NewTaskID(),
		Request:     request,
		Callback:    callback,
		SubmittedAt: time.Now(),
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return "", fmt.Errorf("scheduler is stopped")
	}
	p.pending.Add(1)
	select {
	case p.queue <- task:
		p.mu.Unlock()
	default:
		p.pending.Done()
		p.mu.Unlock()
		return "", fmt.Errorf("compile queue is full (%d tasks)", cap(p.queue))
	}

	p.logger.Trace().
		Str("task", task.ID).
		Str("shader", request.ShaderName()).
		Msg("Queued async compile")
	return task.ID, nil
}

// Flush blocks until every queued and running task has finished.
func (p *Pool) Flush() {
	p.pending.Wait()
}

// Pending returns the number of tasks waiting in the queue.
func (p *Pool) Pending() int {
	return len(p.queue)
}

// Stop shuts the pool down. Tasks already claimed by a worker run to
// completion; tasks still queued are discarded without invoking their
// callbacks.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.stop)
	p.mu.Unlock()

	p.done.Wait()

	abandoned := 0
	for {
		select {
		case <-p.queue:
			p.pending.Done()
			abandoned++
		default:
			if abandoned > 0 {
				p.logger.Warn().Int("tasks", abandoned).Msg("Abandoned queued compile tasks on shutdown")
			}
			p.logger.Info().Msg("Async compile pool stopped")
			return
		}
	}
}

func (p *Pool) worker(id int) {
	defer p.done.Done()
	for {
		// drain nothing once stop is signalled, even if tasks remain queued
		select {
		case <-p.stop:
			return
		default:
		}
		select {
		case <-p.stop:
			return
		case task := <-p.queue:
			p.run(id, task)
		}
	}
}

func (p *Pool) run(workerID int, task models.AsyncCompileTask) {
	defer p.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker", workerID).
				Str("task", task.ID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Compile task panicked")
		}
	}()

	start := time.Now()
	shader, err := p.compile(task.Request)
	result := models.CompileResult{
		Request:  task.Request,
		Shader:   shader,
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		p.logger.Debug().
			Str("task", task.ID).
			Str("shader", task.Request.ShaderName()).
			Err(err).
			Msg("Async compile failed")
	}
	if task.Callback != nil {
		task.Callback(result)
	}
}

var _ interfaces.CompileScheduler = (*Pool)(nil)
