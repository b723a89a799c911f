package exchange

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corverroos/predex/config"
	"github.com/corverroos/predex/gen"
	"github.com/corverroos/predex/logger"
	"github.com/corverroos/predex/matcher"
	"github.com/luno/jettison/jtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var perfCount = flag.Int("perf_count", 10000, "performance test count")

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })
	return logs
}

func TestSubmit(t *testing.T) {
	logs := observeLogs(t)
	ctx := logger.WithRequestID(context.Background(), "req-1")
	m := NewMetrics(prometheus.NewRegistry())
	x := New(WithMetrics(m))

	res, err := x.Submit(ctx, matcher.Request{
		Side: matcher.SideBuy, Outcome: matcher.OutcomeYes, Price: 60, Quantity: 10, AccountID: "A",
	})
	jtest.Require(t, nil, err)
	require.Equal(t, matcher.StatusOpen, res.Order.Status)

	res, err = x.Submit(ctx, matcher.Request{
		Side: matcher.SideBuy, Outcome: matcher.OutcomeNo, Price: 45, Quantity: 4, AccountID: "B",
	})
	jtest.Require(t, nil, err)
	require.Equal(t, matcher.StatusFilled, res.Order.Status)
	require.Len(t, res.Trades, 1)

	require.Equal(t, int64(2), m.Count())
	require.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("YES", "BUY")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("NO", "BUY")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.trades.WithLabelValues("NO")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.volume.WithLabelValues("NO")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.resting.WithLabelValues("YES")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.resting.WithLabelValues("NO")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.rejected))

	require.Equal(t, 2, logs.FilterMessage("order accepted").Len())
	trades := logs.FilterMessage("trade").All()
	require.Len(t, trades, 1)
	fields := trades[0].ContextMap()
	require.Equal(t, int64(40), fields["price"])
	require.Equal(t, "req-1", fields["request_id"])
}

func TestSubmitRejected(t *testing.T) {
	logs := observeLogs(t)
	m := NewMetrics(prometheus.NewRegistry())
	x := New(WithMetrics(m))

	_, err := x.Submit(context.Background(), matcher.Request{
		Side: matcher.SideSell, Outcome: matcher.OutcomeYes, Price: 101, Quantity: 1, AccountID: "A",
	})
	jtest.Require(t, matcher.ErrInvalidOrder, err)

	require.Equal(t, int64(1), m.Count())
	require.Equal(t, 1.0, testutil.ToFloat64(m.rejected))
	require.Equal(t, 0, testutil.CollectAndCount(m.orders))
	require.Equal(t, 1, logs.FilterMessage("order rejected").FilterLevelExact(zap.WarnLevel).Len())
}

func TestNilMetrics(t *testing.T) {
	x := New()

	_, err := x.Submit(context.Background(), matcher.Request{
		Side: matcher.SideBuy, Outcome: matcher.OutcomeYes, Price: 50, Quantity: 1, AccountID: "A",
	})
	jtest.Require(t, nil, err)
	require.Zero(t, x.metrics.Count())
}

func TestWithEngine(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	x := New(WithEngine(matcher.NewEngine(matcher.WithClock(func() time.Time { return ts }))))
	ctx := context.Background()

	_, err := x.Submit(ctx, matcher.Request{
		Side: matcher.SideBuy, Outcome: matcher.OutcomeYes, Price: 50, Quantity: 1, AccountID: "A",
	})
	jtest.Require(t, nil, err)
	_, err = x.Submit(ctx, matcher.Request{
		Side: matcher.SideSell, Outcome: matcher.OutcomeYes, Price: 50, Quantity: 1, AccountID: "B",
	})
	jtest.Require(t, nil, err)

	tl := x.Trades(10)
	require.Len(t, tl, 1)
	require.Equal(t, ts, tl[0].Timestamp)
}

func TestSeed(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	x := New(WithMetrics(m))
	ctx := context.Background()

	req := gen.Request{
		Rand:           rand.New(rand.NewSource(0)),
		Count:          100,
		Price:          50,
		PriceStdDev:    10,
		Quantity:       5,
		QuantityStdDev: 2,
		Accounts:       4,
	}
	err := x.Seed(ctx, gen.Requests(req))
	jtest.Require(t, nil, err)
	require.Equal(t, int64(100), m.Count())

	// Replaying the same stream again restarts command sequences.
	req.Rand = rand.New(rand.NewSource(0))
	err = x.Seed(ctx, gen.Requests(req))
	jtest.Require(t, nil, err)
	require.Equal(t, int64(200), m.Count())

	var orders float64
	for _, o := range []string{"YES", "NO"} {
		for _, s := range []string{"BUY", "SELL"} {
			orders += testutil.ToFloat64(m.orders.WithLabelValues(o, s))
		}
	}
	require.Equal(t, 200.0, orders)

	yes, no := x.engine.Resting()
	require.Equal(t, float64(yes), testutil.ToFloat64(m.resting.WithLabelValues("YES")))
	require.Equal(t, float64(no), testutil.ToFloat64(m.resting.WithLabelValues("NO")))

	var traded float64
	for _, o := range []string{"YES", "NO"} {
		traded += testutil.ToFloat64(m.trades.WithLabelValues(o))
	}
	require.Equal(t, float64(len(x.Trades(1000))), traded)

	require.NoError(t, x.Seed(ctx, nil))
}

func TestReset(t *testing.T) {
	logs := observeLogs(t)
	m := NewMetrics(prometheus.NewRegistry())
	x := New(WithMetrics(m))
	ctx := context.Background()

	_, err := x.Submit(ctx, matcher.Request{
		Side: matcher.SideBuy, Outcome: matcher.OutcomeNo, Price: 10, Quantity: 3, AccountID: "A",
	})
	jtest.Require(t, nil, err)
	require.Equal(t, 1.0, testutil.ToFloat64(m.resting.WithLabelValues("NO")))

	x.Reset(ctx)
	require.Equal(t, 0.0, testutil.ToFloat64(m.resting.WithLabelValues("NO")))
	require.Empty(t, x.Book(10).NoBids)
	require.Equal(t, 1, logs.FilterMessage("order book reset").Len())
}

func TestRun(t *testing.T) {
	addr := freeAddr(t)
	cfg := &config.Config{
		HTTP:   config.HTTPConfig{Addr: addr},
		Book:   config.BookConfig{Depth: 5},
		Trades: config.TradesConfig{Limit: 5},
		Seed:   config.SeedConfig{Count: 20, Price: 50, Accounts: 3, Seed: 1},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- Run(ctx, cfg)
	}()

	base := "http://" + addr

	waitFor(t, 5*time.Second, func() bool {
		resp, err := http.Get(base + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})

	resp, err := http.Post(base+"/orders", "application/json", strings.NewReader(
		`{"side":"YES","type":"BUY","price":1,"quantity":1,"account_id":"Z"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	// 20 seeded orders plus one over HTTP.
	var total float64
	for _, line := range strings.Split(string(b), "\n") {
		if !strings.HasPrefix(line, "predex_orders_total{") {
			continue
		}
		var v float64
		_, err := fmt.Sscanf(line[strings.LastIndex(line, " ")+1:], "%g", &v)
		require.NoError(t, err)
		total += v
	}
	require.Equal(t, 21.0, total)
	require.Contains(t, string(b), "go_goroutines")

	cancel()

	select {
	case err := <-errc:
		jtest.Require(t, context.Canceled, err)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for run to exit")
	}
}

func TestRunListenError(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	err = Run(context.Background(), &config.Config{
		HTTP: config.HTTPConfig{Addr: lis.Addr().String()},
	})
	require.Error(t, err)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func waitFor(t *testing.T, timeout time.Duration, f func() bool) {
	t.Helper()
	t0 := time.Now()
	for {
		if f() {
			return
		}
		if time.Since(t0) < timeout {
			time.Sleep(time.Millisecond * 10) // Don't spin
			continue
		}
		t.Error("timeout waiting for")
		return
	}
}

func TestPerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("performance test")
	}

	count := *perfCount
	m := NewMetrics(prometheus.NewRegistry())
	x := New(WithMetrics(m))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t0 := time.Now()
	defer func() {
		fmt.Printf("Duration for %d orders: %s\n", count, time.Since(t0))
	}()

	// Print metrics
	go func() {
		for ctx.Err() == nil {
			time.Sleep(time.Second)
			printMetrics(x, m, t0)
		}
	}()

	base := gen.Request{
		Price:          50,
		PriceStdDev:    8,
		Quantity:       10,
		QuantityStdDev: 3,
		Accounts:       20,
	}

	mix := []struct {
		Side    matcher.Side
		Outcome matcher.Outcome
		Share   float64
	}{
		{matcher.SideBuy, matcher.OutcomeYes, 0.3},
		{matcher.SideBuy, matcher.OutcomeNo, 0.3},
		{matcher.SideSell, matcher.OutcomeYes, 0.2},
		{matcher.SideSell, matcher.OutcomeNo, 0.2},
	}

	var (
		wg    sync.WaitGroup
		total int
	)
	for i, mx := range mix {
		req := base
		req.Rand = rand.New(rand.NewSource(int64(i)))
		req.Count = int(float64(count) * mx.Share)
		req.Side = mx.Side
		req.Outcome = mx.Outcome
		total += req.Count

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := gen.Submit(ctx, x, req)
			jtest.Assert(t, nil, err)
			fmt.Printf("Done %s %s: %v\n", req.Side, req.Outcome, req.Count)
		}()
	}

	wg.Wait()
	printMetrics(x, m, t0)

	assert.Equal(t, int64(total), m.Count())
	assert.Zero(t, testutil.ToFloat64(m.rejected))
}

func printMetrics(x *Exchange, m *Metrics, t0 time.Time) {
	c := m.Count()
	yes, no := x.engine.Resting()
	fmt.Printf("Metrics: yes=%d, no=%d, trades=%d, count=%d, rate=%0f orders/s\n",
		yes,
		no,
		len(x.Trades(1<<30)),
		c,
		float64(c)/time.Since(t0).Seconds())
}
