package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/strata/internal/backtest"
	"github.com/newthinker/strata/internal/core"
	"github.com/newthinker/strata/internal/metrics"
	"github.com/newthinker/strata/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries(values ...float64) core.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := core.Series{Index: make([]time.Time, len(values)), Values: values}
	for i := range values {
		s.Index[i] = base.AddDate(0, 0, i)
	}
	return s
}

// vShape falls for 30 bars and then rises for 30.
func vShape() core.Series {
	values := make([]float64, 60)
	for i := range values {
		if i < 30 {
			values[i] = 100 - float64(i)
		} else {
			values[i] = 71 + float64(i-29)
		}
	}
	return testSeries(values...)
}

type memorySink struct {
	mu    sync.Mutex
	saved map[string]any
	err   error
}

func (m *memorySink) Save(ctx context.Context, strategy, runID string, at time.Time, v any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.saved == nil {
		m.saved = make(map[string]any)
	}
	p := strategy + "/" + runID + ".json"
	m.saved[p] = v
	return p, nil
}

func TestEvaluate_Pipeline(t *testing.T) {
	def, err := strategy.EMACrossover(5, 12)
	require.NoError(t, err)

	out, err := Evaluate(def, vShape())
	require.NoError(t, err)

	assert.Len(t, out.Indicators, 2)
	assert.Len(t, out.Signals.Entry, 60)
	assert.Nil(t, out.Backtest)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate(nil, vShape())
	assert.True(t, errors.Is(err, core.ErrStrategyInvalid))

	def, err := strategy.EMACrossover(5, 12)
	require.NoError(t, err)
	_, err = Evaluate(def, testSeries(1))
	assert.True(t, errors.Is(err, core.ErrInvalidPriceSeries))

	bad := &strategy.Definition{Name: "bad"}
	_, err = Evaluate(bad, vShape())
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
}

func TestEvaluateBacktest_VShape(t *testing.T) {
	def, err := strategy.EMACrossover(5, 12)
	require.NoError(t, err)

	out, err := EvaluateBacktest(def, vShape(), backtest.Params{InitialCash: 10000})
	require.NoError(t, err)

	// One entry after the bottom and no exit: the position stays open and profitable.
	require.NotNil(t, out.Backtest)
	assert.Empty(t, out.Backtest.Trades)
	require.NotNil(t, out.Backtest.OpenPosition)
	assert.Greater(t, out.Backtest.Stats.TotalReturn, 0.0)
	assert.Equal(t, 0, out.Backtest.Stats.TotalTrades)
}

func TestAnalyzer_Deterministic(t *testing.T) {
	def, err := strategy.MACDSignalCross(3, 8, 4)
	require.NoError(t, err)
	a := New(DefaultConfig(), nil)
	params := backtest.DefaultParams()

	r1, err := a.Backtest(context.Background(), def, vShape(), "TEST", params)
	require.NoError(t, err)
	r2, err := a.Backtest(context.Background(), def, vShape(), "TEST", params)
	require.NoError(t, err)

	assert.NotEqual(t, r1.RunID, r2.RunID)
	r2.RunID, r2.GeneratedAt = r1.RunID, r1.GeneratedAt
	assert.Equal(t, r1, r2)
}

func TestAnalyzer_ReportShape(t *testing.T) {
	def, err := strategy.MACDSignalCross(3, 8, 4)
	require.NoError(t, err)
	a := New(DefaultConfig(), nil)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	report, err := a.Analyze(context.Background(), def, vShape(), "SPY")
	require.NoError(t, err)

	assert.Equal(t, "SPY", report.Symbol)
	assert.Equal(t, fixed, report.GeneratedAt)
	assert.Equal(t, 60, report.Bars)
	assert.Nil(t, report.Backtest)

	require.Len(t, report.Indicators, 1)
	macd := report.Indicators[0]
	assert.Equal(t, strategy.KindMACD, macd.Type)
	// MACD line is defined from index slow-1 = 7; warm-up NaNs are omitted.
	assert.Len(t, macd.Points, 60-7)
	assert.Len(t, macd.Components[strategy.ComponentSignal], 60-7-3)
	for _, p := range macd.Points {
		assert.False(t, math.IsNaN(p.Value))
	}

	require.Len(t, report.Signals.Rules, 2)
	for _, rule := range report.Signals.Rules {
		assert.Equal(t, rule.Count, len(rule.Events))
	}

	data, err := json.Marshal(report)
	require.NoError(t, err, "report must encode without NaN")
	assert.Contains(t, string(data), `"components"`)
}

func TestAnalyzer_ArchivesBacktests(t *testing.T) {
	def, err := strategy.RSIMeanReversion(14, 30, 70)
	require.NoError(t, err)

	sink := &memorySink{}
	a := New(DefaultConfig(), nil)
	a.SetArchive(sink)

	_, err = a.Analyze(context.Background(), def, vShape(), "")
	require.NoError(t, err)
	assert.Empty(t, sink.saved, "analyze-only runs are not archived")

	report, err := a.Backtest(context.Background(), def, vShape(), "", backtest.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, def.Name+"/"+report.RunID+".json", report.ArchivePath)
	assert.Len(t, sink.saved, 1)

	sink.err = errors.New("disk full")
	report, err = a.Backtest(context.Background(), def, vShape(), "", backtest.DefaultParams())
	require.NoError(t, err, "archive failures do not fail the run")
	assert.Empty(t, report.ArchivePath)
}

func TestAnalyzer_RecordsMetrics(t *testing.T) {
	def, err := strategy.EMACrossover(5, 12)
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	a := New(DefaultConfig(), nil)
	a.SetMetrics(reg)

	_, err = a.Backtest(context.Background(), def, vShape(), "", backtest.DefaultParams())
	require.NoError(t, err)
	_, err = a.Analyze(context.Background(), def, testSeries(1), "")
	require.Error(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	assert.True(t, found["strata_analyses_total"])
	assert.True(t, found["strata_signals_fired_total"])
}

func TestAnalyzer_InfiniteClose(t *testing.T) {
	def, err := strategy.New("sma_level", "",
		[]strategy.IndicatorDefinition{{Name: "sma", Params: strategy.SMA{Window: 2}}},
		nil,
		[]strategy.ThresholdRule{{
			Name: "above_five", Indicator: "sma", Threshold: 5,
			Condition: strategy.Above, SignalType: core.SignalEntry,
		}},
	)
	require.NoError(t, err)

	report, err := New(DefaultConfig(), nil).Analyze(context.Background(), def, testSeries(10, 11, math.Inf(1), 12), "X")
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, core.ErrInvalidPriceSeries))
	assert.Equal(t, core.KindData, core.KindOf(err))
}

func TestAnalyzer_CanceledContext(t *testing.T) {
	def, err := strategy.EMACrossover(5, 12)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(DefaultConfig(), nil).Analyze(ctx, def, vShape(), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBatch_PreservesOrder(t *testing.T) {
	ema, err := strategy.EMACrossover(5, 12)
	require.NoError(t, err)
	rsi, err := strategy.RSIMeanReversion(14, 30, 70)
	require.NoError(t, err)
	params := backtest.DefaultParams()

	tasks := []Task{
		{Symbol: "A", Strategy: ema, Prices: vShape(), Backtest: &params},
		{Symbol: "B", Strategy: rsi, Prices: vShape()},
		{Symbol: "C", Strategy: ema, Prices: testSeries(1)},
		{Symbol: "D", Strategy: rsi, Prices: vShape(), Backtest: &params},
	}

	a := New(Config{Workers: 3}, nil)
	a.SetMetrics(metrics.NewRegistry())
	results := a.RunBatch(context.Background(), tasks)

	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, tasks[i].Symbol, r.Symbol)
		assert.Equal(t, tasks[i].Strategy.Name, r.Strategy)
	}
	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Report.Backtest)
	assert.NoError(t, results[1].Err)
	assert.Nil(t, results[1].Report.Backtest)
	assert.True(t, errors.Is(results[2].Err, core.ErrInvalidPriceSeries))
	assert.NoError(t, results[3].Err)
}

func TestRunBatchFunc_ReportsEachTask(t *testing.T) {
	def, err := strategy.EMACrossover(5, 12)
	require.NoError(t, err)
	tasks := []Task{
		{Symbol: "A", Strategy: def, Prices: vShape()},
		{Symbol: "B", Strategy: def, Prices: testSeries(1)},
		{Symbol: "C", Strategy: def, Prices: vShape()},
	}

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	results := New(Config{Workers: 2}, nil).RunBatchFunc(context.Background(), tasks, func(r BatchResult) {
		mu.Lock()
		defer mu.Unlock()
		seen[r.Symbol] = r.Err == nil
	})

	require.Len(t, results, 3)
	assert.Equal(t, map[string]bool{"A": true, "B": false, "C": true}, seen)
}

func TestRunBatch_CanceledBeforeStart(t *testing.T) {
	def, err := strategy.EMACrossover(5, 12)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task{
		{Symbol: "A", Strategy: def, Prices: vShape()},
		{Symbol: "B", Strategy: def, Prices: vShape()},
	}
	results := New(Config{Workers: 2}, nil).RunBatch(ctx, tasks)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Nil(t, r.Report)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestRunBatch_Empty(t *testing.T) {
	assert.Empty(t, New(DefaultConfig(), nil).RunBatch(context.Background(), nil))
}
