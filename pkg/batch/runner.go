package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Options configures a batch run.
type Options struct {
	// BatchSize is the number of concurrent runs per batch. Batch b+1 never
	// starts before every run in batch b has settled.
	BatchSize int

	// MaxRetries is the per-item retry budget for transient failures.
	// Zero (the default) disables automatic retries.
	MaxRetries int

	// RequestTimeout bounds one processing attempt for one item.
	RequestTimeout time.Duration

	// RateLimitRPS is a global limit across all in-flight runs. <=0
	// disables it.
	RateLimitRPS float64

	// BackoffInitial is the initial sleep before retrying a transient
	// failure; BackoffMax caps the exponential growth and
	// BackoffJitterFrac applies +/- jitter (0.2 = +/-20%).
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	BackoffJitterFrac float64

	// OnBatch, when set, is invoked after each batch settles.
	OnBatch func(Progress)
}

// Progress describes one settled batch.
type Progress struct {
	Batch     int
	Size      int
	Succeeded int
	Failed    int
}

func (p Progress) String() string {
	return fmt.Sprintf("%d/%d", p.Succeeded, p.Size)
}

// Result holds the outcome for one input item.
type Result[In any, Out any] struct {
	Input  In
	Output Out
	Err    error
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 2 * time.Minute
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 200 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 2 * time.Second
	}
	if o.BackoffJitterFrac <= 0 {
		o.BackoffJitterFrac = 0.2
	}
	return o
}

// Run processes all items in fixed-size batches. Per-item errors (including
// panics inside the processor) are captured in the item's Result and never
// abort sibling runs; Run itself fails only on context cancellation. Output
// order matches input order.
func Run[In any, Out any](
	ctx context.Context,
	items []In,
	process func(context.Context, In) (Out, error),
	opts Options,
) ([]Result[In, Out], error) {
	opts = opts.withDefaults()

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	out := make([]Result[In, Out], len(items))

	for start, batchNum := 0, 0; start < len(items); start, batchNum = start+opts.BatchSize, batchNum+1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+opts.BatchSize, len(items))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				out[idx] = processOne(ctx, items[idx], process, limiter, opts)
			}(i)
		}
		wg.Wait()

		if opts.OnBatch != nil {
			p := Progress{Batch: batchNum, Size: end - start}
			for i := start; i < end; i++ {
				if out[i].Err == nil {
					p.Succeeded++
				} else {
					p.Failed++
				}
			}
			opts.OnBatch(p)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func processOne[In any, Out any](
	ctx context.Context,
	item In,
	process func(context.Context, In) (Out, error),
	limiter *rate.Limiter,
	opts Options,
) (res Result[In, Out]) {
	defer func() {
		// One run's panic must not take down its batch slot's siblings.
		if r := recover(); r != nil {
			res = Result[In, Out]{Input: item, Err: fmt.Errorf("run panicked: %v", r)}
		}
	}()

	output, err := processWithRetry(ctx, item, process, limiter, opts)
	return Result[In, Out]{Input: item, Output: output, Err: err}
}

func processWithRetry[In any, Out any](
	ctx context.Context,
	item In,
	process func(context.Context, In) (Out, error),
	limiter *rate.Limiter,
	opts Options,
) (Out, error) {
	var lastOut Out
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return lastOut, err
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return lastOut, err
			}
		}

		reqCtx := ctx
		var cancel context.CancelFunc
		if opts.RequestTimeout > 0 {
			reqCtx, cancel = context.WithTimeout(ctx, opts.RequestTimeout)
		}
		result, err := process(reqCtx, item)
		lastOut = result
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return lastOut, ctx.Err()
		}
		if !isTransient(err) || attempt >= maxExtraRetries(opts.MaxRetries, err) {
			return lastOut, err
		}

		sleep := backoffSleep(opts.BackoffInitial, opts.BackoffMax, opts.BackoffJitterFrac, attempt)
		t := time.NewTimer(sleep)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return lastOut, ctx.Err()
		}
	}
}

type retryCap interface {
	MaxExtraRetries() int
}

func maxExtraRetries(defaultRetries int, err error) int {
	if defaultRetries < 0 {
		defaultRetries = 0
	}
	var capErr retryCap
	if errors.As(err, &capErr) {
		limited := capErr.MaxExtraRetries()
		if limited < 0 {
			limited = 0
		}
		if limited < defaultRetries {
			return limited
		}
	}
	return defaultRetries
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var lte *LimitedTransientError
	if errors.As(err, &lte) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout() || ne.Temporary()
	}
	return false
}

func backoffSleep(initial, max time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := initial
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
		if sleep > max {
			sleep = max
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
