package exchange

import (
	"context"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/corverroos/predex/api"
	"github.com/corverroos/predex/config"
	"github.com/corverroos/predex/gen"
	"github.com/corverroos/predex/logger"
	"github.com/corverroos/predex/matcher"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Run runs the exchange HTTP service until the context is done, returning
// the first error.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	x := New(append([]Option{WithMetrics(NewMetrics(reg))}, opts...)...)

	if cfg.Seed.Count > 0 {
		err := x.Seed(ctx, gen.Requests(seedRequest(cfg.Seed)))
		if err != nil {
			return err
		}
		yes, no := x.engine.Resting()
		logger.Info(ctx, "book seeded", zap.Int("orders", cfg.Seed.Count),
			zap.Int("resting_yes", yes), zap.Int("resting_no", no))
	}

	lis, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return errors.Wrap(err, "listen", j.KV("addr", cfg.HTTP.Addr))
	}

	srv := &http.Server{
		Handler: api.NewRouter(x, reg, api.Config{
			Depth: cfg.Book.Depth,
			Limit: cfg.Trades.Limit,
		}),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	logger.Info(ctx, "serving http", zap.String("addr", lis.Addr().String()))

	select {
	case err = <-goChan(func() error {
		err := srv.Serve(lis)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve http")
	}):
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "shutdown http")
	}

	return ctx.Err()
}

func seedRequest(c config.SeedConfig) gen.Request {
	return gen.Request{
		Rand:           rand.New(rand.NewSource(c.Seed)),
		Count:          c.Count,
		Price:          c.Price,
		PriceStdDev:    c.Price / 10,
		Quantity:       10,
		QuantityStdDev: 3,
		Accounts:       c.Accounts,
	}
}

type Option func(*Exchange)

func WithMetrics(m *Metrics) Option {
	return func(x *Exchange) {
		x.metrics = m
	}
}

// WithEngine replaces the default engine, for example one with a fixed clock.
func WithEngine(e *matcher.Engine) Option {
	return func(x *Exchange) {
		x.engine = e
	}
}

// Exchange wraps a single market engine with logging and metrics.
type Exchange struct {
	engine  *matcher.Engine
	metrics *Metrics
}

func New(opts ...Option) *Exchange {
	x := &Exchange{engine: matcher.NewEngine()}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Submit places an order. Validation failures are returned as
// matcher.ErrInvalidOrder.
func (x *Exchange) Submit(ctx context.Context, r matcher.Request) (matcher.Result, error) {
	t0 := time.Now()
	res, err := x.engine.Submit(r)
	x.record(ctx, r, res, err, time.Since(t0))
	return res, err
}

// Seed applies the requests through the sequential matcher, as a fresh
// command stream, and returns once all results are recorded.
func (x *Exchange) Seed(ctx context.Context, reqs []matcher.Request) error {
	if len(reqs) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := make(chan matcher.Command, len(reqs))
	output := make(chan matcher.CommandResult, len(reqs))

	for i, r := range reqs {
		input <- matcher.Command{
			Sequence: int64(i + 1),
			Type:     matcher.CommandSubmit,
			Request:  r,
		}
	}

	// Start the matcher and the result consumer, exit on first return.
	select {
	case err := <-goChan(func() error {
		return matcher.Match(ctx, x.engine, 0, input, output, nil)
	}):
		return err
	case err := <-goChan(func() error {
		return x.storeResults(ctx, output, len(reqs))
	}):
		return err
	}
}

// storeResults records n results from the matcher.
func (x *Exchange) storeResults(ctx context.Context, output <-chan matcher.CommandResult, n int) error {
	for i := 0; i < n; i++ {
		var r matcher.CommandResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r = <-output:
		}

		switch r.Type {
		case matcher.TypeRejected, matcher.TypeMaker, matcher.TypePartial, matcher.TypeTaker:
			x.record(ctx, r.Command.Request, r.Result, r.Err, 0)
		default:
			return errors.New("unexpected seed result",
				j.MKV{"seq": r.Command.Sequence, "type": r.Type.String()})
		}
	}
	return nil
}

func (x *Exchange) record(ctx context.Context, r matcher.Request, res matcher.Result, err error, took time.Duration) {
	if err != nil {
		x.metrics.reject()
		logger.Warn(ctx, "order rejected", zap.Error(err),
			zap.String("account_id", r.AccountID))
		return
	}

	x.metrics.observe(r, res, took)
	x.metrics.setResting(x.engine.Resting())

	o := res.Order
	logger.Debug(ctx, "order accepted",
		zap.Int64("order_id", o.ID),
		zap.String("account_id", o.AccountID),
		zap.String("outcome", o.Outcome.String()),
		zap.Int("price", o.Price),
		zap.String("status", o.Status.String()),
		zap.Int("filled", o.Filled()),
	)
	for _, t := range res.Trades {
		logger.Debug(ctx, "trade",
			zap.Int64("trade_id", t.ID),
			zap.Int64("maker_order_id", t.MakerOrderID),
			zap.Int64("taker_order_id", t.TakerOrderID),
			zap.String("outcome", t.Outcome.String()),
			zap.Int("price", t.Price),
			zap.Int("quantity", t.Quantity),
		)
	}
}

// Book returns up to depth entries per list.
func (x *Exchange) Book(depth int) matcher.BookSnapshot {
	return x.engine.BookSnapshot(depth)
}

// Trades returns up to limit trades, newest first.
func (x *Exchange) Trades(limit int) []matcher.Trade {
	return x.engine.RecentTrades(limit)
}

func (x *Exchange) Reset(ctx context.Context) {
	x.engine.Reset()
	x.metrics.setResting(0, 0)
	logger.Info(ctx, "order book reset")
}

func goChan(f func() error) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- f()
		close(ch)
	}()
	return ch
}
