package variant

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fingerprintless-cli/internal/entropy"
)

// Result is one generated variant with its position in the requested batch.
type Result struct {
	Index int
	HTML  string
}

// Engine fans variant generation out over a pool of workers. Each worker
// owns a fresh entropy source per variant, so no synchronization is needed
// around the randomness.
type Engine struct {
	concurrency int
	logger      *zap.Logger
	wg          sync.WaitGroup
}

// NewEngine creates an engine with the given pool size.
func NewEngine(concurrency int, logger *zap.Logger) *Engine {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Engine{
		concurrency: concurrency,
		logger:      logger.With(zap.String("component", "variant_engine")),
	}
}

// Generate produces count variants from the builder and returns them ordered
// by index. Returns early with the context error if the context is canceled
// before the batch completes.
func (e *Engine) Generate(ctx context.Context, b *Builder, count int) ([]Result, error) {
	jobs := make(chan int)
	results := make(chan Result, count)

	workers := e.concurrency
	if workers > count {
		workers = count
	}
	e.logger.Debug("Starting variant worker pool",
		zap.Int("concurrency", workers), zap.Int("count", count))

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.runWorker(ctx, i+1, b, jobs, results)
	}

	go func() {
		defer close(jobs)
		for idx := 0; idx < count; idx++ {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	e.wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Result, count)
	for r := range results {
		out[r.Index] = r
	}
	return out, nil
}

// runWorker is the loop for a single pool goroutine. It drains the job
// channel, building one variant per index.
func (e *Engine) runWorker(ctx context.Context, workerID int, b *Builder, jobs <-chan int, results chan<- Result) {
	defer e.wg.Done()
	logger := e.logger.With(zap.Int("worker_id", workerID))

	for idx := range jobs {
		if ctx.Err() != nil {
			return
		}
		html := b.Build(entropy.NewSource())
		logger.Debug("Variant built", zap.Int("index", idx), zap.Int("bytes", len(html)))
		results <- Result{Index: idx, HTML: html}
	}
}
