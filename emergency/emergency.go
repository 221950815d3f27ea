package emergency

import (
	"github.com/montanaflynn/stats"

	"github.com/big-striped-cat/zvezdin/market"
)

// State of the breaker. Spiking is entered only on the detecting bar;
// suppression then continues through Cooldown until the counter drains.
type State int

const (
	StateCalm State = iota
	StateSpiking
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateCalm:
		return "calm"
	case StateSpiking:
		return "spiking"
	case StateCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

type Config struct {
	// CooldownBars is how many bars stay suppressed after a spike.
	CooldownBars int
	// SpikeFactor flags a bar whose amplitude exceeds this multiple of the
	// median amplitude over MedianWindow bars.
	SpikeFactor float64
	MedianWindow int
	// ShortMeanFactor catches sustained volatility: the mean amplitude over
	// ShortMeanWindow bars exceeding this multiple of the longer median.
	ShortMeanWindow int
	ShortMeanFactor float64
}

func (c Config) withDefaults() Config {
	if c.CooldownBars == 0 {
		c.CooldownBars = 10
	}
	if c.SpikeFactor == 0 {
		c.SpikeFactor = 12
	}
	if c.MedianWindow == 0 {
		c.MedianWindow = 10
	}
	if c.ShortMeanWindow == 0 {
		c.ShortMeanWindow = 3
	}
	if c.ShortMeanFactor == 0 {
		c.ShortMeanFactor = 4
	}
	return c
}

// Detector suppresses new order submission during abnormal price action.
// It is a small state machine over bar amplitudes; the transition function
// is pure, so detection is testable without caring about call order.
type Detector struct {
	cfg      Config
	state    State
	cooldown int
}

func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

func (d *Detector) State() State { return d.state }

// Suppressed reports whether new order submission is currently paused.
// It holds on the detecting bar and through the cooldown tail.
func (d *Detector) Suppressed() bool { return d.state != StateCalm }

// Detect advances the breaker with the current window and reports true only
// on the bar that triggered it.
func (d *Detector) Detect(window []market.Kline) bool {
	spike := isSpike(window, d.cfg)
	d.state, d.cooldown = transition(d.state, d.cooldown, spike, d.cfg.CooldownBars)
	return d.state == StateSpiking
}

func transition(s State, cooldown int, spike bool, maxCooldown int) (State, int) {
	if spike {
		return StateSpiking, maxCooldown
	}
	switch s {
	case StateSpiking, StateCooldown:
		if cooldown > 0 {
			return StateCooldown, cooldown - 1
		}
		return StateCalm, 0
	default:
		return StateCalm, 0
	}
}

func isSpike(window []market.Kline, cfg Config) bool {
	if len(window) == 0 {
		return false
	}

	amplitudes := make([]float64, len(window))
	for i, k := range window {
		amplitudes[i] = k.Amplitude().InexactFloat64()
	}

	median, err := stats.Median(tail(amplitudes, cfg.MedianWindow))
	if err != nil || median <= 0 {
		return false
	}

	last := amplitudes[len(amplitudes)-1]
	if last > cfg.SpikeFactor*median {
		return true
	}

	if len(amplitudes) >= cfg.ShortMeanWindow {
		mean, err := stats.Mean(tail(amplitudes, cfg.ShortMeanWindow))
		if err == nil && mean > cfg.ShortMeanFactor*median {
			return true
		}
	}

	return false
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
