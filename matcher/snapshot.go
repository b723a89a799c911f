package matcher

// BookEntry is a resting order as displayed to users.
type BookEntry struct {
	OrderID   int64
	AccountID string
	Sequence  int64

	// Price is the display price on the list's outcome.
	Price    int
	Quantity int

	OriginalSide    Side
	OriginalOutcome Outcome
	OriginalPrice   int
}

// BookSnapshot is both books re-expressed as bids and asks per outcome.
type BookSnapshot struct {
	YesBids []BookEntry
	YesAsks []BookEntry
	NoBids  []BookEntry
	NoAsks  []BookEntry
}

// BookSnapshot returns up to depth resting orders per list, in priority order.
//
// Bids for an outcome are all orders in its canonical book at their
// canonical price. Asks for an outcome are the orders originally submitted
// as sells of it; they rest in the opposite book and are shown at the
// price the user asked for.
func (e *Engine) BookSnapshot(depth int) BookSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return BookSnapshot{
		YesBids: collect(e.yes, depth, nil, canonicalEntry),
		NoBids:  collect(e.no, depth, nil, canonicalEntry),
		YesAsks: collect(e.no, depth, sellOf(OutcomeYes), originalEntry),
		NoAsks:  collect(e.yes, depth, sellOf(OutcomeNo), originalEntry),
	}
}

func sellOf(o Outcome) func(*Order) bool {
	return func(ord *Order) bool {
		return ord.OriginalSide == SideSell && ord.OriginalOutcome == o
	}
}

func collect(b *OutcomeBook, depth int, keep func(*Order) bool,
	toEntry func(*Order) BookEntry) []BookEntry {

	res := make([]BookEntry, 0)
	if depth <= 0 {
		return res
	}
	b.each(func(o *Order) bool {
		if keep == nil || keep(o) {
			res = append(res, toEntry(o))
		}
		return len(res) < depth
	})
	return res
}

func canonicalEntry(o *Order) BookEntry {
	e := originalEntry(o)
	e.Price = o.Price
	return e
}

func originalEntry(o *Order) BookEntry {
	return BookEntry{
		OrderID:         o.ID,
		AccountID:       o.AccountID,
		Sequence:        o.Sequence,
		Price:           o.OriginalPrice,
		Quantity:        o.Remaining,
		OriginalSide:    o.OriginalSide,
		OriginalOutcome: o.OriginalOutcome,
		OriginalPrice:   o.OriginalPrice,
	}
}
