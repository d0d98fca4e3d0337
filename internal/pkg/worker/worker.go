package worker

import (
	"context"
	"sync"
	"time"

	"blog_api/pkg/logger"
	"blog_api/pkg/metrics"

	"go.uber.org/zap"
)

// Task 异步任务
type Task struct {
	Name  string
	Run   func(ctx context.Context) error
	Retry int // 已重试次数
}

// Pool 后台任务池，失败任务进入重试队列，超过次数后记录死信
type Pool struct {
	tasks    chan Task
	retries  chan Task
	workers  int
	maxRetry int
	backoff  time.Duration
	timeout  time.Duration
	metrics  *metrics.MetricsCollector

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Options 任务池参数
type Options struct {
	Workers    int
	BufferSize int
	MaxRetry   int
	Backoff    time.Duration // 第 n 次重试前等待 n*Backoff
	Timeout    time.Duration // 单个任务超时
}

func NewPool(opts Options, collector *metrics.MetricsCollector) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 64
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	retryBuffer := opts.BufferSize / 2
	if retryBuffer == 0 {
		retryBuffer = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		tasks:    make(chan Task, opts.BufferSize),
		retries:  make(chan Task, retryBuffer),
		workers:  opts.Workers,
		maxRetry: opts.MaxRetry,
		backoff:  opts.Backoff,
		timeout:  opts.Timeout,
		metrics:  collector,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.wg.Add(1)
	go p.retryWorker()
	logger.Log.Info("worker pool started", zap.Int("workers", p.workers))
}

// Stop 停止接收并等待工作协程退出，队列中剩余任务各执行一次
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
		p.drain()
	})
}

// Submit 入队，队列已满或已停止时丢弃并返回 false
func (p *Pool) Submit(task Task) bool {
	if p.ctx.Err() != nil {
		p.deadLetter(task, context.Canceled)
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		logger.Log.Warn("worker queue full, task dropped", zap.String("task", task.Name))
		p.deadLetter(task, nil)
		return false
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			if err := p.run(task); err != nil {
				p.fail(id, task, err)
			}
		}
	}
}

func (p *Pool) run(task Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return task.Run(ctx)
}

func (p *Pool) fail(id int, task Task, err error) {
	logger.Log.Warn("task failed",
		zap.Int("worker", id),
		zap.String("task", task.Name),
		zap.Int("retry", task.Retry),
		zap.Error(err))

	if task.Retry >= p.maxRetry {
		p.deadLetter(task, err)
		return
	}
	task.Retry++
	select {
	case p.retries <- task:
	default:
		p.deadLetter(task, err)
	}
}

func (p *Pool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.retries:
			select {
			case <-time.After(time.Duration(task.Retry) * p.backoff):
			case <-p.ctx.Done():
				p.deadLetter(task, context.Canceled)
				return
			}
			select {
			case p.tasks <- task:
			default:
				p.deadLetter(task, nil)
			}
		}
	}
}

func (p *Pool) drain() {
	for {
		select {
		case task := <-p.tasks:
			if err := p.run(task); err != nil {
				p.deadLetter(task, err)
			}
		case task := <-p.retries:
			if err := p.run(task); err != nil {
				p.deadLetter(task, err)
			}
		default:
			return
		}
	}
}

func (p *Pool) deadLetter(task Task, err error) {
	logger.Log.Error("task dropped", zap.String("task", task.Name), zap.Int("retry", task.Retry), zap.Error(err))
	p.metrics.RecordEvent("task_dropped")
}
