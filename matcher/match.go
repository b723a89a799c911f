package matcher

// crosses returns true if two complementary buy prices can trade.
func crosses(takerPrice, makerPrice int) bool {
	return takerPrice+makerPrice >= MaxPrice
}

// fill is a single maker/taker execution on the taker's outcome.
type fill struct {
	maker *Order
	price int
	qty   int
}

// match crosses the canonical taker against the opposite outcome book and
// returns the fills in execution order. Makers owned by the taker's account
// are skipped and left resting. Filled makers are removed from the book;
// the taker itself is never inserted here.
func match(opposite *OutcomeBook, taker *Order) []fill {
	isSelf := func(o *Order) bool {
		return o.AccountID == taker.AccountID
	}

	var fills []fill
	for taker.Remaining > 0 {
		// Best non-self maker that can still satisfy the cross condition.
		// Levels are visited in descending price so once one fails, all do.
		maker := opposite.next(MaxPrice-taker.Price, isSelf)
		if maker == nil || !crosses(taker.Price, maker.Price) {
			break
		}

		// The maker's implied price, improved for the taker where possible.
		price := min(taker.Price, MaxPrice-maker.Price)
		qty := min(taker.Remaining, maker.Remaining)

		taker.fill(qty)
		maker.fill(qty)

		fills = append(fills, fill{maker: maker, price: price, qty: qty})

		opposite.RemoveIfFilled(maker)
	}

	return fills
}

// resultType classifies a submit result for the Match loop.
func resultType(r Result) Type {
	switch {
	case r.Order.Remaining == 0:
		return TypeTaker
	case len(r.Trades) > 0:
		return TypePartial
	default:
		return TypeMaker
	}
}
