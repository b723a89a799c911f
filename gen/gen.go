// Package gen provides functionality for generating orders easily.
package gen

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/corverroos/predex/matcher"
)

// Request defines an order generation request.
type Request struct {
	Rand    *rand.Rand      // Rand for deterministic behaviour
	Count   int             // Number of orders to create
	Side    matcher.Side    // Buys or sells, zero picks one per order.
	Outcome matcher.Outcome // YES or NO, zero picks one per order.

	Price       float64 // Price in cents to aim at
	PriceStdDev float64 // Standard deviation price fuzz (10% of price is good start)

	Quantity       float64 // Shares per order
	QuantityStdDev float64

	Accounts int // Number of distinct accounts, acct-1 to acct-N.
}

type Submitter interface {
	Submit(ctx context.Context, r matcher.Request) (matcher.Result, error)
}

// Submit generates orders and submits them one by one, returning the
// first error.
func Submit(ctx context.Context, s Submitter, req Request) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan matcher.Request, 1000)
	go genRequests(ctx, req, ch)

	for r := range ch {
		if _, err := s.Submit(ctx, r); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// Requests returns req.Count generated orders.
func Requests(req Request) []matcher.Request {
	ch := make(chan matcher.Request, 1000)
	go genRequests(context.Background(), req, ch)

	res := make([]matcher.Request, 0, req.Count)
	for r := range ch {
		res = append(res, r)
	}
	return res
}

// genRequests sends req.Count deterministic requests. Every order consumes
// the same number of random draws regardless of the fixed fields.
func genRequests(ctx context.Context, req Request, ch chan<- matcher.Request) {
	defer close(ch)

	for i := 0; i < req.Count; i++ {
		price := fuzz(req.Rand, req.Price, req.PriceStdDev)
		qty := fuzz(req.Rand, req.Quantity, req.QuantityStdDev)

		var floats [3]float64
		for i := range floats {
			floats[i] = req.Rand.Float64()
		}

		r := matcher.Request{
			Side:      pickSide(req.Side, floats[0]),
			Outcome:   pickOutcome(req.Outcome, floats[1]),
			Price:     clamp(price, 1, matcher.MaxPrice-1),
			Quantity:  clamp(qty, 1, math.MaxInt32),
			AccountID: account(req.Accounts, floats[2]),
		}

		select {
		case <-ctx.Done():
			return
		case ch <- r:
		}
	}
}

func pickSide(s matcher.Side, f float64) matcher.Side {
	if s != matcher.SideUnknown {
		return s
	}
	if f < 0.5 {
		return matcher.SideBuy
	}
	return matcher.SideSell
}

func pickOutcome(o matcher.Outcome, f float64) matcher.Outcome {
	if o != matcher.OutcomeUnknown {
		return o
	}
	if f < 0.5 {
		return matcher.OutcomeYes
	}
	return matcher.OutcomeNo
}

func account(n int, f float64) string {
	if n <= 1 {
		return "acct-1"
	}
	return fmt.Sprintf("acct-%d", 1+int(f*float64(n)))
}

func clamp(v float64, lo, hi int) int {
	r := math.Round(v)
	if r < float64(lo) {
		return lo
	}
	if r > float64(hi) {
		return hi
	}
	return int(r)
}

func fuzz(r *rand.Rand, mean, stdDev float64) float64 {
	return r.NormFloat64()*stdDev + mean
}
