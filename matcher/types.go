package matcher

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxPrice is the price in cents of a fully hedged YES+NO pair.
const MaxPrice = 100

type Side int

const (
	SideUnknown Side = 0
	SideBuy     Side = 1
	SideSell    Side = 2
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

type Outcome int

const (
	OutcomeUnknown Outcome = 0
	OutcomeYes     Outcome = 1
	OutcomeNo      Outcome = 2
)

func (o Outcome) String() string {
	switch o {
	case OutcomeYes:
		return "YES"
	case OutcomeNo:
		return "NO"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the complementary contract.
func (o Outcome) Opposite() Outcome {
	switch o {
	case OutcomeYes:
		return OutcomeNo
	case OutcomeNo:
		return OutcomeYes
	default:
		return OutcomeUnknown
	}
}

type Status int

const (
	StatusUnknown Status = 0
	StatusOpen    Status = 1
	StatusPartial Status = 2
	StatusFilled  Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusPartial:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	default:
		return "UNKNOWN"
	}
}

// Request is an order as submitted, before normalization.
type Request struct {
	Side      Side
	Outcome   Outcome
	Price     int
	Quantity  int
	AccountID string
}

// Order is a canonical order: always a buy of Outcome at Price.
type Order struct {
	ID        int64
	Sequence  int64
	AccountID string

	Outcome Outcome
	Price   int

	// Original request terms, kept for display only.
	OriginalSide    Side
	OriginalOutcome Outcome
	OriginalPrice   int

	Quantity  int
	Remaining int
	Status    Status
}

// Filled returns the quantity traded so far.
func (o Order) Filled() int {
	return o.Quantity - o.Remaining
}

// fill decrements the remaining quantity and moves the status forward.
func (o *Order) fill(qty int) {
	o.Remaining -= qty
	if o.Remaining == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartial
	}
}

type Trade struct {
	ID           int64
	MakerOrderID int64
	TakerOrderID int64

	// Outcome is the contract the taker receives.
	Outcome Outcome
	// Price is the execution price on Outcome.
	Price int
	// MakerPrice is the maker's canonical price on the opposite outcome.
	MakerPrice int
	Quantity   int

	MakerAccountID string
	TakerAccountID string
	Timestamp      time.Time
}

// Notional returns the traded value in dollars; price * quantity cents.
func (t Trade) Notional() decimal.Decimal {
	return decimal.New(int64(t.Price)*int64(t.Quantity), -2)
}

// Result is the outcome of a single submit.
type Result struct {
	Order  Order
	Trades []Trade
}

type CommandType int

const (
	CommandUnknown CommandType = 0
	CommandSubmit  CommandType = 1
	CommandReset   CommandType = 2
)

// Command is a sequenced instruction for the Match loop.
type Command struct {
	Sequence int64
	Type     CommandType
	Request  Request
}

type Type int

const (
	TypeUnknown        Type = 0
	TypeCommandOld     Type = 1
	TypeCommandUnknown Type = 2
	TypeRejected       Type = 3
	TypeReset          Type = 4
	TypeMaker          Type = 5
	TypePartial        Type = 6
	TypeTaker          Type = 7
)

func (t Type) String() string {
	switch t {
	case TypeCommandOld:
		return "CommandOld"
	case TypeCommandUnknown:
		return "CommandUnknown"
	case TypeRejected:
		return "Rejected"
	case TypeReset:
		return "Reset"
	case TypeMaker:
		return "Maker"
	case TypePartial:
		return "Partial"
	case TypeTaker:
		return "Taker"
	default:
		return "Unknown"
	}
}

// CommandResult is the output of the Match loop for one command.
type CommandResult struct {
	Type    Type
	Command Command
	Result  Result
	Err     error
}
