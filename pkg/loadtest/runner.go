package loadtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Runner 固定并发执行请求，按次数或时长结束
type Runner struct {
	name        string
	concurrency int
	total       int           // >0 时按次数
	duration    time.Duration // total 为 0 时按时长

	mu    sync.Mutex
	times []time.Duration
	fails int64
}

// NewRunner total > 0 时执行 total 次，否则持续 duration
func NewRunner(name string, concurrency, total int, duration time.Duration) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{name: name, concurrency: concurrency, total: total, duration: duration}
}

// Run 执行并汇总结果，request 的第二个参数为序号
func (r *Runner) Run(ctx context.Context, request func(ctx context.Context, i int) error) *Result {
	// 时长只约束派发，已发出的请求使用原始 ctx
	dispatch := ctx
	if r.total <= 0 {
		var cancel context.CancelFunc
		dispatch, cancel = context.WithTimeout(ctx, r.duration)
		defer cancel()
	}

	jobs := make(chan int, r.concurrency*2)
	var wg sync.WaitGroup
	for w := 0; w < r.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r.execute(ctx, i, request)
			}
		}()
	}

	start := time.Now()
	func() {
		defer close(jobs)
		for i := 0; r.total <= 0 || i < r.total; i++ {
			select {
			case jobs <- i:
			case <-dispatch.Done():
				return
			}
		}
	}()
	wg.Wait()

	return r.result(time.Since(start))
}

func (r *Runner) execute(ctx context.Context, i int, request func(ctx context.Context, i int) error) {
	start := time.Now()
	err := request(ctx, i)
	elapsed := time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, elapsed)
	if err != nil {
		r.fails++
	}
}

func (r *Runner) result(elapsed time.Duration) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := &Result{
		Name:           r.name,
		Concurrency:    r.concurrency,
		Elapsed:        elapsed,
		TotalRequests:  int64(len(r.times)),
		FailedRequests: r.fails,
	}
	res.SuccessRequests = res.TotalRequests - res.FailedRequests
	if elapsed > 0 {
		res.QPS = float64(res.TotalRequests) / elapsed.Seconds()
	}
	if len(r.times) == 0 {
		return res
	}

	sorted := append([]time.Duration(nil), r.times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	res.Average = sum / time.Duration(len(sorted))
	res.Min = sorted[0]
	res.Max = sorted[len(sorted)-1]
	res.P50 = percentile(sorted, 0.50)
	res.P95 = percentile(sorted, 0.95)
	res.P99 = percentile(sorted, 0.99)
	return res
}

// percentile sorted 需已升序
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// Result 压测结果
type Result struct {
	Name            string        `json:"name"`
	Concurrency     int           `json:"concurrency"`
	Elapsed         time.Duration `json:"elapsed"`
	TotalRequests   int64         `json:"totalRequests"`
	SuccessRequests int64         `json:"successRequests"`
	FailedRequests  int64         `json:"failedRequests"`
	QPS             float64       `json:"qps"`
	Average         time.Duration `json:"average"`
	Min             time.Duration `json:"min"`
	Max             time.Duration `json:"max"`
	P50             time.Duration `json:"p50"`
	P95             time.Duration `json:"p95"`
	P99             time.Duration `json:"p99"`
}

// ErrorRate 失败占比
func (r *Result) ErrorRate() float64 {
	if r.TotalRequests == 0 {
		return 0
	}
	return float64(r.FailedRequests) / float64(r.TotalRequests)
}

// Print 打印结果
func (r *Result) Print() {
	fmt.Printf("📊 %s\n", r.Name)
	fmt.Printf("================================\n")
	fmt.Printf("并发数: %d\n", r.Concurrency)
	fmt.Printf("耗时: %v\n", r.Elapsed)
	fmt.Printf("总请求数: %d (失败 %d, 错误率 %.2f%%)\n", r.TotalRequests, r.FailedRequests, r.ErrorRate()*100)
	fmt.Printf("QPS: %.2f\n", r.QPS)
	fmt.Printf("平均/最小/最大: %v / %v / %v\n", r.Average, r.Min, r.Max)
	fmt.Printf("P50: %v  P95: %v  P99: %v\n", r.P50, r.P95, r.P99)
	fmt.Printf("================================\n")
}
