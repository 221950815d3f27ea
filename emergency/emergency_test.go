package emergency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/big-striped-cat/zvezdin/market"
)

// bar builds a kline with the given amplitude around 100.
func bar(amplitude int64) market.Kline {
	half := decimal.NewFromInt(amplitude).Div(decimal.NewFromInt(2))
	mid := decimal.NewFromInt(100)
	return market.Kline{
		Open:  mid,
		High:  mid.Add(half),
		Low:   mid.Sub(half),
		Close: mid,
	}
}

func calmWindow(n int) []market.Kline {
	res := make([]market.Kline, n)
	for i := range res {
		res[i] = bar(2)
	}
	return res
}

func TestDetectCalm(t *testing.T) {
	t.Parallel()

	d := NewDetector(Config{})

	assert.False(t, d.Detect(calmWindow(12)))
	assert.False(t, d.Suppressed())
	assert.Equal(t, StateCalm, d.State())
}

func TestDetectSpike(t *testing.T) {
	t.Parallel()

	d := NewDetector(Config{CooldownBars: 3})

	window := calmWindow(12)
	window[len(window)-1] = bar(40) // 20x the median amplitude

	assert.True(t, d.Detect(window))
	assert.Equal(t, StateSpiking, d.State())
	assert.True(t, d.Suppressed())
}

func TestCooldownDrains(t *testing.T) {
	t.Parallel()

	d := NewDetector(Config{CooldownBars: 3})

	window := calmWindow(12)
	window[len(window)-1] = bar(40)
	require.True(t, d.Detect(window))

	// Detect fires only on the triggering bar; suppression outlives it.
	for i := 0; i < 3; i++ {
		assert.False(t, d.Detect(calmWindow(12)), "bar %d", i)
		assert.True(t, d.Suppressed(), "bar %d", i)
		assert.Equal(t, StateCooldown, d.State())
	}

	assert.False(t, d.Detect(calmWindow(12)))
	assert.False(t, d.Suppressed())
	assert.Equal(t, StateCalm, d.State())
}

func TestSpikeDuringCooldownRearms(t *testing.T) {
	t.Parallel()

	d := NewDetector(Config{CooldownBars: 2})

	window := calmWindow(12)
	window[len(window)-1] = bar(40)
	require.True(t, d.Detect(window))
	require.False(t, d.Detect(calmWindow(12)))

	// A second spike restarts the cooldown from the top.
	assert.True(t, d.Detect(window))
	assert.False(t, d.Detect(calmWindow(12)))
	assert.True(t, d.Suppressed())
	assert.False(t, d.Detect(calmWindow(12)))
	assert.True(t, d.Suppressed())
	assert.False(t, d.Detect(calmWindow(12)))
	assert.False(t, d.Suppressed())
}

func TestSustainedVolatilityTriggers(t *testing.T) {
	t.Parallel()

	d := NewDetector(Config{})

	// No single bar is a 12x outlier, but the short mean is far above the
	// longer median.
	window := calmWindow(12)
	for i := len(window) - 3; i < len(window); i++ {
		window[i] = bar(10)
	}

	assert.True(t, d.Detect(window))
}

func TestEmptyWindow(t *testing.T) {
	t.Parallel()

	d := NewDetector(Config{})
	assert.False(t, d.Detect(nil))
}
