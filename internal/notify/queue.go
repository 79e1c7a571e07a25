package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/pkg/log"
)

// Handler обрабатывает одну задачу рассылки (обычно Engine.Handle).
type Handler interface {
	Handle(ctx context.Context, job Job)
}

// envelope — задача вместе с отвязанным контекстом запроса, который её породил.
type envelope struct {
	job Job
	ctx context.Context
}

// Queue — буферизованная очередь задач рассылки с пулом воркеров.
//
// Enqueue никогда не блокирует вызывающего: при переполнении задача отбрасывается.
// Воркеры работают на фоновом контексте, который не зависит от запроса:
// отмена запроса клиентом не отзывает уже поставленную задачу.
type Queue struct {
	jobs    chan envelope
	handler Handler
	metrics *Metrics
	log     *slog.Logger
	timeout time.Duration
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue создаёт очередь; воркеры запускаются методом Start.
func NewQueue(cfg config.FanoutConfig, h Handler, m *Metrics, lg *slog.Logger) *Queue {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	if lg == nil {
		lg = slog.Default()
	}

	return &Queue{
		jobs:    make(chan envelope, size),
		handler: h,
		metrics: m,
		log:     lg,
		timeout: cfg.JobTimeout,
		workers: workers,
	}
}

// Start запускает воркеров.
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.log.Info("fanout_queue_started",
		slog.Int("workers", q.workers),
		slog.Int("capacity", cap(q.jobs)),
	)
}

// Enqueue ставит задачу в очередь без ожидания. false — очередь заполнена или закрыта.
// Задача наследует значения ctx (логгер запроса), но не его отмену и дедлайн.
func (q *Queue) Enqueue(ctx context.Context, job Job) bool {
	const op = "notify/Queue/Enqueue"

	lg := log.From(ctx)

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.incDropped()
		lg.Error("fanout_job_dropped", slog.String("op", op), slog.String("kind", job.Kind()), slog.String("reason", "closed"))
		return false
	}

	select {
	case q.jobs <- envelope{job: job, ctx: log.Detach(ctx)}:
		return true
	default:
		q.metrics.incDropped()
		lg.Error("fanout_job_dropped", slog.String("op", op), slog.String("kind", job.Kind()), slog.String("reason", "queue_full"))
		return false
	}
}

// Len — число задач, ожидающих обработки.
func (q *Queue) Len() int { return len(q.jobs) }

// Close перестаёт принимать задачи и ждёт, пока воркеры обработают уже принятые,
// но не дольше, чем живёт ctx.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.log.Info("fanout_queue_stopped")
		return nil
	case <-ctx.Done():
		q.log.Warn("fanout_queue_stop_timeout", slog.Int("pending", len(q.jobs)))
		return ctx.Err()
	}
}

func (q *Queue) worker(n int) {
	defer q.wg.Done()

	for env := range q.jobs {
		q.run(n, env)
	}
}

func (q *Queue) run(n int, env envelope) {
	lg := log.From(env.ctx).With(slog.Int("worker", n), slog.String("kind", env.job.Kind()))

	ctx := log.Into(env.ctx, lg)
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			lg.Error("fanout_job_panic", slog.Any("panic", r))
		}
	}()

	start := time.Now()
	q.handler.Handle(ctx, env.job)
	lg.Debug("fanout_job_done", slog.Duration("dur", time.Since(start)))
}
