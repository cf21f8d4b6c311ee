package sensor_simulator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// ====== Tunables ======
const (
	// faultRate: fraction of frames reported with the sensor's NaN
	// temperature fault sentinel.
	faultRate = 0.01

	// malformedRate: fraction of frames corrupted on the wire, to exercise
	// the decoder the way a flaky serial line does.
	malformedRate = 0.005

	// fallChance: per-frame probability of starting a fall sequence.
	fallChance = 0.002
)

type scenario int

const (
	scenarioSleeping scenario = iota
	scenarioResting
	scenarioActive
	scenarioRestless
)

// pattern bounds per scenario, modeled on observed ward data.
var patterns = map[scenario]struct {
	motionLo, motionHi int
	soundLo, soundHi   int
	tempLo, tempHi     float64
}{
	scenarioSleeping: {0, 15, 20, 60, 20.0, 23.0},
	scenarioResting:  {10, 30, 40, 80, 21.0, 24.0},
	scenarioActive:   {40, 75, 70, 130, 22.0, 26.0},
	scenarioRestless: {50, 85, 90, 160, 23.0, 27.0},
}

// Generator produces raw CSV frame lines that mimic a bedside device:
// mostly steady activity patterns, night-time rest, occasional fault
// sentinels, rare malformed lines and rare fall sequences (a high-motion
// frame followed by a loud near-zero one).
type Generator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	current   scenario
	fallStage int // 0 = none, 1 = pre-fall spike emitted
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		current: scenarioResting,
	}
}

// Next returns one frame line for the given wall-clock time.
func (g *Generator) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fallStage == 1 {
		// Impact: sudden silence after a loud thud.
		g.fallStage = 0
		g.current = scenarioSleeping
		temp := g.temp(scenarioActive)
		sound := 150 + g.rng.Intn(100)
		motion := g.rng.Intn(5)
		return fmt.Sprintf("%.1f,%d,%d", temp, motion, sound)
	}

	if g.rng.Float64() < fallChance {
		g.fallStage = 1
		temp := g.temp(scenarioActive)
		return fmt.Sprintf("%.1f,%d,%d", temp, 85+g.rng.Intn(15), 100+g.rng.Intn(50))
	}

	g.drift(now)
	p := patterns[g.current]
	motion := p.motionLo + g.rng.Intn(p.motionHi-p.motionLo+1)
	sound := p.soundLo + g.rng.Intn(p.soundHi-p.soundLo+1)

	if g.rng.Float64() < malformedRate {
		return fmt.Sprintf("%d,%d", motion, sound) // dropped a field on the wire
	}
	if g.rng.Float64() < faultRate {
		return fmt.Sprintf("nan,%d,%d", motion, sound)
	}
	return fmt.Sprintf("%.1f,%d,%d", g.temp(g.current), motion, sound)
}

// drift occasionally moves between scenarios, biased towards sleep at night.
func (g *Generator) drift(now time.Time) {
	if g.rng.Float64() > 0.1 {
		return
	}
	h := now.Hour()
	night := h >= 22 || h < 6
	roll := g.rng.Float64()
	switch {
	case night && roll < 0.7:
		g.current = scenarioSleeping
	case roll < 0.3:
		g.current = scenarioResting
	case roll < 0.7:
		g.current = scenarioActive
	default:
		g.current = scenarioRestless
	}
}

func (g *Generator) temp(s scenario) float64 {
	p := patterns[s]
	return p.tempLo + g.rng.Float64()*(p.tempHi-p.tempLo)
}
