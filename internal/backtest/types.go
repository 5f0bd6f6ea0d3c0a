package backtest

import (
	"math"
	"time"

	"github.com/newthinker/strata/internal/core"
)

// Parameter bounds enforced at the API and CLI boundary
const (
	MinInitialCash     = 1000.0
	DefaultInitialCash = 10000.0
	MaxCommission      = 0.1
	DefaultCommission  = 0.001
)

// Params configures a simulation run
type Params struct {
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
	Commission  float64 `json:"commission" yaml:"commission"` // rate applied to notional on each fill
	// PeriodsPerYear annualizes the Sharpe ratio. Zero infers it from bar spacing.
	PeriodsPerYear float64 `json:"periods_per_year,omitempty" yaml:"periods_per_year"`
}

// DefaultParams returns the parameters used when a caller supplies none.
func DefaultParams() Params {
	return Params{
		InitialCash: DefaultInitialCash,
		Commission:  DefaultCommission,
	}
}

// Validate checks the values the simulator can run with.
func (p Params) Validate() error {
	if !finite(p.InitialCash) || p.InitialCash < 0 {
		return core.Errorf(core.ErrBacktestParams, "initial cash must be non-negative, got %v", p.InitialCash)
	}
	if !finite(p.Commission) || p.Commission < 0 {
		return core.Errorf(core.ErrBacktestParams, "commission must be non-negative, got %v", p.Commission)
	}
	if !finite(p.PeriodsPerYear) || p.PeriodsPerYear < 0 {
		return core.Errorf(core.ErrBacktestParams, "periods per year must be non-negative, got %v", p.PeriodsPerYear)
	}
	return nil
}

// ValidateBounds applies the stricter limits accepted from users.
func (p Params) ValidateBounds() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.InitialCash < MinInitialCash {
		return core.Errorf(core.ErrBacktestParams, "initial cash must be at least %.0f, got %v", MinInitialCash, p.InitialCash)
	}
	if p.Commission > MaxCommission {
		return core.Errorf(core.ErrBacktestParams, "commission must be within [0, %v], got %v", MaxCommission, p.Commission)
	}
	return nil
}

// Trade is a completed round trip from entry to exit
type Trade struct {
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitTime   time.Time `json:"exit_time"`
	ExitPrice  float64   `json:"exit_price"`
	Shares     float64   `json:"shares"`
	PnL        float64   `json:"pnl"`    // proceeds minus cost, commissions included
	Return     float64   `json:"return"` // PnL as a fraction of cost
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// Position is a position still open at the last bar, marked to market.
type Position struct {
	EntryTime     time.Time `json:"entry_time"`
	EntryPrice    float64   `json:"entry_price"`
	Shares        float64   `json:"shares"`
	Cost          float64   `json:"cost"`
	MarketPrice   float64   `json:"market_price"`
	MarketValue   float64   `json:"market_value"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
}

// Stats holds performance statistics
type Stats struct {
	TotalReturn   float64 `json:"total_return"`  // final / initial - 1
	SharpeRatio   float64 `json:"sharpe_ratio"`  // annualized
	MaxDrawdown   float64 `json:"max_drawdown"`  // largest peak-to-trough decline, positive fraction
	WinRate       float64 `json:"win_rate"`      // fraction of closed trades with positive PnL
	TotalTrades   int     `json:"total_trades"`  // closed trades only
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	FinalValue    float64 `json:"final_value"`
}

// Result holds the complete backtest output
type Result struct {
	Params       Params      `json:"params"`
	Index        []time.Time `json:"-"`
	Equity       []float64   `json:"-"`
	Trades       []Trade     `json:"trades"`
	OpenPosition *Position   `json:"open_position,omitempty"`
	Stats        Stats       `json:"stats"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
