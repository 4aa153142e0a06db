// Package timing implements the master clock that gates CPU, PPU and APU
// ticks at their fixed ratios.
package timing

// powerUpPhase is the master cycle value restored on Reset. Real hardware
// powers up at an arbitrary CPU/PPU phase relationship; test ROM suites
// expect a specific offset here, so treat it as a tunable constant rather
// than deriving it from anything.
const powerUpPhase = 2

// Clock is a single monotonic master-cycle counter. One Advance call is one
// master cycle; a CPU tick occurs every third master cycle. It never runs
// backward and it is the only timing mutator in the core -- the PPU's
// odd-frame skip lives inside the PPU, not here, so that MasterCycles stays
// strictly monotonic for VBlankLedger comparisons.
type Clock struct {
	masterCycles uint64

	// SpeedMultiplier is advisory metadata forwarded unchanged by the
	// orchestrator; it never affects tick semantics.
	SpeedMultiplier float64
}

// New creates a Clock at its power-up phase.
func New() *Clock {
	c := &Clock{SpeedMultiplier: 1.0}
	c.Reset()
	return c
}

// Reset restores the power-up phase used for reproducible cold/warm resets.
func (c *Clock) Reset() {
	c.masterCycles = powerUpPhase
}

// Advance steps the master clock by exactly one cycle.
func (c *Clock) Advance() {
	c.masterCycles++
}

// MasterCycles returns the raw monotonic counter.
func (c *Clock) MasterCycles() uint64 {
	return c.masterCycles
}

// CPUCycles returns the number of elapsed CPU cycles.
func (c *Clock) CPUCycles() uint64 {
	return c.masterCycles / 3
}

// IsCPUTick reports whether the current master cycle is one on which the
// CPU advances.
func (c *Clock) IsCPUTick() bool {
	return c.masterCycles%3 == 0
}
