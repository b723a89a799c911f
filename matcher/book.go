package matcher

// level is a FIFO queue of resting orders at one price.
type level struct {
	price int
	head  *node
	tail  *node
	size  int
}

type node struct {
	prev  *node
	next  *node
	order *Order
	lv    *level
}

// pushBack appends to the tail; equal prices are matched in arrival order.
func (l *level) pushBack(n *node) {
	n.prev, n.next = l.tail, nil
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
	l.size++
}

func (l *level) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.size--
}

// Level is a read-only copy of one price level.
type Level struct {
	Price  int
	Orders []Order
}

// OutcomeBook holds the resting canonical buy orders of one outcome in
// price-time priority: highest price first, then lowest sequence.
// It is not safe for concurrent use; the Engine serialises access.
type OutcomeBook struct {
	outcome Outcome
	levels  [MaxPrice + 1]*level // Indexed by price.
	byID    map[int64]*node
	best    int
	hasBest bool
}

func NewOutcomeBook(outcome Outcome) *OutcomeBook {
	return &OutcomeBook{
		outcome: outcome,
		byID:    make(map[int64]*node),
	}
}

func (b *OutcomeBook) Outcome() Outcome {
	return b.outcome
}

// Len returns the number of resting orders.
func (b *OutcomeBook) Len() int {
	return len(b.byID)
}

// Best returns the highest priority resting order.
func (b *OutcomeBook) Best() (*Order, bool) {
	if !b.hasBest {
		return nil, false
	}
	return b.levels[b.best].head.order, true
}

// Insert adds a resting order at the tail of its price level.
// Orders with nothing remaining or that are already resting are ignored.
func (b *OutcomeBook) Insert(o *Order) {
	if o == nil || o.Remaining <= 0 || o.Price < 0 || o.Price > MaxPrice {
		return
	}
	if _, ok := b.byID[o.ID]; ok {
		return
	}

	lv := b.levels[o.Price]
	if lv == nil {
		lv = &level{price: o.Price}
		b.levels[o.Price] = lv
	}
	n := &node{order: o, lv: lv}
	lv.pushBack(n)
	b.byID[o.ID] = n

	if !b.hasBest || o.Price > b.best {
		b.best = o.Price
		b.hasBest = true
	}
}

// RemoveIfFilled removes the order once nothing remains and reports whether it did.
func (b *OutcomeBook) RemoveIfFilled(o *Order) bool {
	if o == nil || o.Remaining > 0 {
		return false
	}
	n, ok := b.byID[o.ID]
	if !ok {
		return false
	}

	lv := n.lv
	lv.remove(n)
	delete(b.byID, o.ID)

	if lv.size == 0 {
		b.levels[lv.price] = nil
		if lv.price == b.best {
			b.recomputeBest()
		}
	}
	return true
}

// recomputeBest scans down from the previous best, nothing above it can be resting.
func (b *OutcomeBook) recomputeBest() {
	for p := b.best; p >= 0; p-- {
		if lv := b.levels[p]; lv != nil && lv.size > 0 {
			b.best = p
			return
		}
	}
	b.best = 0
	b.hasBest = false
}

// next returns the highest priority order priced at least minPrice
// for which skip returns false.
func (b *OutcomeBook) next(minPrice int, skip func(*Order) bool) *Order {
	if !b.hasBest {
		return nil
	}
	if minPrice < 0 {
		minPrice = 0
	}
	for p := b.best; p >= minPrice; p-- {
		lv := b.levels[p]
		if lv == nil {
			continue
		}
		for n := lv.head; n != nil; n = n.next {
			if skip == nil || !skip(n.order) {
				return n.order
			}
		}
	}
	return nil
}

// each calls fn with every resting order in priority order until fn returns false.
func (b *OutcomeBook) each(fn func(*Order) bool) {
	if !b.hasBest {
		return
	}
	for p := b.best; p >= 0; p-- {
		lv := b.levels[p]
		if lv == nil {
			continue
		}
		for n := lv.head; n != nil; n = n.next {
			if !fn(n.order) {
				return
			}
		}
	}
}

// Snapshot returns copies of up to depth best price levels.
func (b *OutcomeBook) Snapshot(depth int) []Level {
	var res []Level
	if !b.hasBest || depth <= 0 {
		return res
	}
	for p := b.best; p >= 0 && len(res) < depth; p-- {
		lv := b.levels[p]
		if lv == nil || lv.size == 0 {
			continue
		}
		l := Level{Price: p, Orders: make([]Order, 0, lv.size)}
		for n := lv.head; n != nil; n = n.next {
			l.Orders = append(l.Orders, *n.order)
		}
		res = append(res, l)
	}
	return res
}
