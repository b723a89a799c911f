package matcher

// TradeLog is an append-only record of executed trades.
type TradeLog struct {
	trades []Trade
}

func (l *TradeLog) Append(t Trade) {
	l.trades = append(l.trades, t)
}

func (l *TradeLog) Len() int {
	return len(l.trades)
}

// Recent returns a copy of the latest limit trades, newest first.
func (l *TradeLog) Recent(limit int) []Trade {
	if limit <= 0 {
		return nil
	}
	if limit > len(l.trades) {
		limit = len(l.trades)
	}
	res := make([]Trade, 0, limit)
	for i := len(l.trades) - 1; i >= len(l.trades)-limit; i-- {
		res = append(res, l.trades[i])
	}
	return res
}
