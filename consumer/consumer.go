package consumer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/funkybooboo/CS5260-Program2/request"
	"github.com/funkybooboo/CS5260-Program2/sink"
	"github.com/funkybooboo/CS5260-Program2/source"
)

// ErrPanic wraps a panic recovered while processing one item.
var ErrPanic = errors.New("panic while processing request")

// panicError carries a recovered panic and the stack it was raised on.
type panicError struct {
	value any
	stack string
}

func (e *panicError) Error() string { return fmt.Sprintf("%v: %v", ErrPanic, e.value) }

func (e *panicError) Unwrap() error { return ErrPanic }

type Config struct {
	// PollInterval is the pause after every empty poll.
	PollInterval time.Duration
	// MaxIdlePolls consecutive empty polls end the run.
	MaxIdlePolls int
}

var DefaultConfig = Config{
	PollInterval: 100 * time.Millisecond,
	MaxIdlePolls: 1000,
}

func (c Config) validate() error {
	if c.PollInterval < 0 {
		return errors.New("PollInterval must be >= 0")
	}
	if c.MaxIdlePolls < 1 {
		return errors.New("MaxIdlePolls must be >= 1")
	}
	return nil
}

// Stats summarizes one Run.
type Stats struct {
	Polls     int
	Misses    int
	Processed int
	Failed    int
}

// Consumer drains a Source into a Sink, one request at a time.
type Consumer struct {
	cfg    Config
	source source.Source
	sink   sink.Sink
	log    *zap.Logger

	retry RetryPolicy
	sleep func(ctx context.Context, d time.Duration) error
}

// state is owned by a single Run.
type state struct {
	idle  int
	stats Stats
}

func New(src source.Source, snk sink.Sink, cfg Config, log *zap.Logger) (*Consumer, error) {
	if src == nil {
		return nil, fmt.Errorf("source is nil")
	}
	if snk == nil {
		return nil, fmt.Errorf("sink is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Consumer{
		cfg:    cfg,
		source: src,
		sink:   snk,
		log:    log,
		retry:  nopRetry{},
		sleep:  sleepCtx,
	}, nil
}

func NewDefault(src source.Source, snk sink.Sink, log *zap.Logger) (*Consumer, error) {
	return New(src, snk, DefaultConfig, log)
}

// SetRetryPolicy wraps every sink write in p. Writes are not retried by
// default; a nil policy restores that.
func (c *Consumer) SetRetryPolicy(p RetryPolicy) {
	if p == nil {
		c.retry = nopRetry{}
		return
	}
	c.retry = p
}

// Run polls until MaxIdlePolls consecutive polls found nothing, then returns
// a nil error. It returns ctx.Err() if ctx is cancelled first.
//
// Items are already gone from the queue when they reach the consumer, so a
// request that fails to decode, validate or persist is logged and dropped.
// No per-item failure stops the run.
func (c *Consumer) Run(ctx context.Context) (Stats, error) {
	var st state
	c.log.Info("Consumer started",
		zap.Duration("poll_interval", c.cfg.PollInterval),
		zap.Int("max_idle_polls", c.cfg.MaxIdlePolls),
	)

	for {
		if err := ctx.Err(); err != nil {
			return st.stats, err
		}

		st.stats.Polls++
		it, ok := c.source.FetchNext(ctx)
		if !ok {
			st.idle++
			st.stats.Misses++
			c.log.Debug("No request found", zap.Int("idle_polls", st.idle))

			if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
				return st.stats, err
			}
			if st.idle >= c.cfg.MaxIdlePolls {
				c.log.Info("Consumer idle, stopping",
					zap.Int("polls", st.stats.Polls),
					zap.Int("processed", st.stats.Processed),
					zap.Int("failed", st.stats.Failed),
				)
				return st.stats, nil
			}
			continue
		}

		st.idle = 0
		c.log.Info("Got request", zap.String("key", it.Key))

		if err := c.process(ctx, it); err != nil {
			st.stats.Failed++
			fields := []zap.Field{zap.String("key", it.Key), zap.Error(err)}
			var perr *panicError
			if errors.As(err, &perr) {
				fields = append(fields, zap.String("stack", perr.stack))
			}
			c.log.Error("Bad processing", fields...)
			continue
		}
		st.stats.Processed++
		c.log.Info("Request stored", zap.String("key", it.Key))
	}
}

func (c *Consumer) process(ctx context.Context, it source.Item) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p, stack: string(debug.Stack())}
		}
	}()

	r, err := request.Parse(it.Body)
	if err != nil {
		return err
	}

	return c.retry.Do(ctx, func(ctx context.Context) error {
		return c.sink.Persist(ctx, r)
	})
}
