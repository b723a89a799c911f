package api

import (
	"fmt"

	"github.com/corverroos/predex/matcher"
	"github.com/shopspring/decimal"
)

// orderRequest uses the wire names of the original service: side is the
// outcome and type is buy or sell.
type orderRequest struct {
	Side      string `json:"side" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Price     *int   `json:"price" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	AccountID string `json:"account_id" binding:"required"`
}

func (r orderRequest) toRequest() (matcher.Request, error) {
	outcome, err := matcher.ParseOutcome(r.Side)
	if err != nil {
		return matcher.Request{}, err
	}
	side, err := matcher.ParseSide(r.Type)
	if err != nil {
		return matcher.Request{}, err
	}
	return matcher.Request{
		Side:      side,
		Outcome:   outcome,
		Price:     *r.Price,
		Quantity:  r.Quantity,
		AccountID: r.AccountID,
	}, nil
}

type orderResponse struct {
	OrderID           int64           `json:"order_id"`
	Status            string          `json:"status"`
	FilledQuantity    int             `json:"filled_quantity"`
	RemainingQuantity int             `json:"remaining_quantity"`
	Trades            []tradeResponse `json:"trades"`
	Message           string          `json:"message"`
}

func toOrderResponse(res matcher.Result) orderResponse {
	o := res.Order
	return orderResponse{
		OrderID:           o.ID,
		Status:            o.Status.String(),
		FilledQuantity:    o.Filled(),
		RemainingQuantity: o.Remaining,
		Trades:            toTradeResponses(res.Trades),
		Message: fmt.Sprintf("Order %d: %s. Filled %d/%d shares in %d trade(s).",
			o.ID, o.Status, o.Filled(), o.Quantity, len(res.Trades)),
	}
}

type tradeResponse struct {
	TradeID      int64           `json:"trade_id"`
	MakerOrderID int64           `json:"maker_order_id"`
	TakerOrderID int64           `json:"taker_order_id"`
	Price        int             `json:"price"`
	Quantity     int             `json:"quantity"`
	Side         string          `json:"side"`
	Timestamp    float64         `json:"timestamp"` // Unix seconds.
	Notional     decimal.Decimal `json:"notional"`
}

func toTradeResponses(tl []matcher.Trade) []tradeResponse {
	res := make([]tradeResponse, 0, len(tl))
	for _, t := range tl {
		res = append(res, tradeResponse{
			TradeID:      t.ID,
			MakerOrderID: t.MakerOrderID,
			TakerOrderID: t.TakerOrderID,
			Price:        t.Price,
			Quantity:     t.Quantity,
			Side:         t.Outcome.String(),
			Timestamp:    float64(t.Timestamp.UnixNano()) / 1e9,
			Notional:     t.Notional(),
		})
	}
	return res
}

type bookEntry struct {
	OrderID   int64  `json:"order_id"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
	AccountID string `json:"account_id"`
}

type bookResponse struct {
	YesBids []bookEntry `json:"yes_bids"`
	YesAsks []bookEntry `json:"yes_asks"`
	NoBids  []bookEntry `json:"no_bids"`
	NoAsks  []bookEntry `json:"no_asks"`
}

func toBookResponse(s matcher.BookSnapshot) bookResponse {
	return bookResponse{
		YesBids: toEntries(s.YesBids),
		YesAsks: toEntries(s.YesAsks),
		NoBids:  toEntries(s.NoBids),
		NoAsks:  toEntries(s.NoAsks),
	}
}

func toEntries(el []matcher.BookEntry) []bookEntry {
	res := make([]bookEntry, 0, len(el))
	for _, e := range el {
		res = append(res, bookEntry{
			OrderID:   e.OrderID,
			Price:     e.Price,
			Quantity:  e.Quantity,
			AccountID: e.AccountID,
		})
	}
	return res
}

type messageResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
