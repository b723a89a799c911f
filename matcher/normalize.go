package matcher

import (
	"strings"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// ErrInvalidOrder is returned for any request rejected before matching.
var ErrInvalidOrder = errors.New("invalid order", j.C("ERR_7c1f0e2a9b4d6e13"))

// ParseSide parses BUY or SELL (case insensitive).
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	}
	return SideUnknown, errors.Wrap(ErrInvalidOrder, "unknown side", j.KV("side", s))
}

// ParseOutcome parses YES or NO (case insensitive).
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES":
		return OutcomeYes, nil
	case "NO":
		return OutcomeNo, nil
	}
	return OutcomeUnknown, errors.Wrap(ErrInvalidOrder, "unknown outcome", j.KV("outcome", s))
}

// Validate returns an ErrInvalidOrder wrapped error if the request cannot be accepted.
func (r Request) Validate() error {
	if r.Side != SideBuy && r.Side != SideSell {
		return errors.Wrap(ErrInvalidOrder, "unknown side", j.KV("side", int(r.Side)))
	}
	if r.Outcome != OutcomeYes && r.Outcome != OutcomeNo {
		return errors.Wrap(ErrInvalidOrder, "unknown outcome", j.KV("outcome", int(r.Outcome)))
	}
	if r.Price < 0 || r.Price > MaxPrice {
		return errors.Wrap(ErrInvalidOrder, "price out of range", j.KV("price", r.Price))
	}
	if r.Quantity < 1 {
		return errors.Wrap(ErrInvalidOrder, "quantity must be positive", j.KV("quantity", r.Quantity))
	}
	return nil
}

// Normalize validates the request and returns its canonical order.
// Selling one outcome at P is buying the other at 100-P. The returned
// order has no ID or sequence yet.
func Normalize(r Request) (Order, error) {
	if err := r.Validate(); err != nil {
		return Order{}, err
	}

	outcome, price := r.Outcome, r.Price
	if r.Side == SideSell {
		outcome, price = r.Outcome.Opposite(), MaxPrice-r.Price
	}

	return Order{
		AccountID:       r.AccountID,
		Outcome:         outcome,
		Price:           price,
		OriginalSide:    r.Side,
		OriginalOutcome: r.Outcome,
		OriginalPrice:   r.Price,
		Quantity:        r.Quantity,
		Remaining:       r.Quantity,
		Status:          StatusOpen,
	}, nil
}
