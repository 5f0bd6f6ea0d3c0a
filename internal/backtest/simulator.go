// Package backtest simulates a single long-only account driven by entry and
// exit signals.
package backtest

import (
	"github.com/newthinker/strata/internal/core"
)

// Simulate runs a single left-to-right pass over prices. The account is FLAT
// or LONG; while FLAT an entry signal buys with all available cash, while LONG
// an exit signal sells the whole position. Decisions at bar t use only data at
// or before t.
func Simulate(prices core.Series, entry, exit []bool, params Params) (*Result, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	n := prices.Len()
	if len(entry) != n || len(exit) != n {
		return nil, core.Errorf(core.ErrInvalidPriceSeries,
			"signals have %d entry and %d exit values, prices have %d", len(entry), len(exit), n)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ppy := params.PeriodsPerYear
	if ppy == 0 {
		ppy = InferPeriodsPerYear(prices.Index)
	}

	result := &Result{
		Params: params,
		Index:  prices.Index,
		Equity: make([]float64, n),
	}

	var (
		cash      = params.InitialCash
		c         = params.Commission
		open      *Position
		lastPrice float64
	)

	for t := 0; t < n; t++ {
		price := prices.Values[t]
		valid := core.IsValidPrice(price)
		if valid {
			lastPrice = price
		}

		switch {
		case open == nil && entry[t] && valid && cash > 0:
			shares := cash / (price * (1 + c))
			open = &Position{
				EntryTime:  prices.Index[t],
				EntryPrice: price,
				Shares:     shares,
				Cost:       cash,
			}
			cash = 0
		case open != nil && exit[t] && valid:
			proceeds := open.Shares * price * (1 - c)
			cash += proceeds
			trade := Trade{
				EntryTime:  open.EntryTime,
				EntryPrice: open.EntryPrice,
				ExitTime:   prices.Index[t],
				ExitPrice:  price,
				Shares:     open.Shares,
				PnL:        proceeds - open.Cost,
			}
			if open.Cost > 0 {
				trade.Return = trade.PnL / open.Cost
			}
			result.Trades = append(result.Trades, trade)
			open = nil
		}

		equity := cash
		if open != nil {
			equity += open.Shares * lastPrice
		}
		result.Equity[t] = equity
	}

	if open != nil {
		open.MarketPrice = lastPrice
		open.MarketValue = open.Shares * lastPrice
		open.UnrealizedPnL = open.MarketValue - open.Cost
		result.OpenPosition = open
	}

	result.Stats = CalculateStats(params.InitialCash, result.Equity, result.Trades, ppy)
	return result, nil
}
