package matcher

import (
	"sync"
	"time"
)

const (
	DefaultDepth      = 10
	DefaultTradeLimit = 10
)

type Option func(*Engine)

// WithClock overrides the trade timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine is a single binary market: the YES and NO books and their trade log.
// Submit and Reset are serialised behind one exclusive lock, readers share
// a read lock and only ever receive copies.
type Engine struct {
	mu sync.RWMutex

	yes *OutcomeBook
	no  *OutcomeBook
	log TradeLog

	orderSeq int64
	tradeSeq int64

	now func() time.Time
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.resetUnlocked()
	return e
}

func (e *Engine) book(o Outcome) *OutcomeBook {
	if o == OutcomeYes {
		return e.yes
	}
	return e.no
}

// Submit validates, normalizes and matches the request. The unfilled
// remainder rests in the book of its canonical outcome. The only error is
// ErrInvalidOrder, in which case nothing was mutated.
func (e *Engine) Submit(r Request) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	canon, err := Normalize(r)
	if err != nil {
		return Result{}, err
	}

	e.orderSeq++
	taker := &canon
	taker.ID = e.orderSeq
	taker.Sequence = e.orderSeq

	fills := match(e.book(taker.Outcome.Opposite()), taker)

	trades := make([]Trade, 0, len(fills))
	ts := e.now()
	for _, f := range fills {
		e.tradeSeq++
		t := Trade{
			ID:             e.tradeSeq,
			MakerOrderID:   f.maker.ID,
			TakerOrderID:   taker.ID,
			Outcome:        taker.Outcome,
			Price:          f.price,
			MakerPrice:     f.maker.Price,
			Quantity:       f.qty,
			MakerAccountID: f.maker.AccountID,
			TakerAccountID: taker.AccountID,
			Timestamp:      ts,
		}
		e.log.Append(t)
		trades = append(trades, t)
	}

	if taker.Remaining > 0 {
		e.book(taker.Outcome).Insert(taker)
	}

	return Result{Order: *taker, Trades: trades}, nil
}

// RecentTrades returns up to limit trades, newest first.
func (e *Engine) RecentTrades(limit int) []Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.log.Recent(limit)
}

// Levels returns up to depth price levels of the outcome's book.
func (e *Engine) Levels(o Outcome, depth int) []Level {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.book(o).Snapshot(depth)
}

// Resting returns the number of resting orders per outcome.
func (e *Engine) Resting() (yes, no int) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.yes.Len(), e.no.Len()
}

// Reset clears both books and the trade log and restarts all counters.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetUnlocked()
}

func (e *Engine) resetUnlocked() {
	e.yes = NewOutcomeBook(OutcomeYes)
	e.no = NewOutcomeBook(OutcomeNo)
	e.log = TradeLog{}
	e.orderSeq = 0
	e.tradeSeq = 0
}
