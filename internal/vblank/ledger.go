// Package vblank tracks the timestamps that derive the NES VBlank flag and
// its associated NMI edge, including the exact-cycle race a $2002 read can
// win against the PPU setting the flag.
package vblank

// Ledger is an event-timestamp log. It never mutates its four fields except
// through the record* methods below, and every query is a pure derivation
// from those fields -- this keeps the readable VBlank bit and the latched
// NMI edge decoupled, so a status read cannot spuriously clear a pending
// NMI.
type Ledger struct {
	lastSetCycle   uint64
	lastClearCycle uint64
	lastReadCycle  uint64
	lastRaceCycle  uint64
}

// New returns a Ledger with all timestamps at zero, matching a freshly
// reset console (no VBlank span has occurred yet).
func New() *Ledger {
	return &Ledger{}
}

// Reset clears all recorded timestamps.
func (l *Ledger) Reset() {
	*l = Ledger{}
}

// RecordVBlankSet logs the cycle at which scanline 241 dot 1 occurred.
func (l *Ledger) RecordVBlankSet(cycle uint64) {
	l.lastSetCycle = cycle
}

// RecordVBlankSpanEnd logs the cycle at which the pre-render scanline's
// dot 1 cleared VBlank.
func (l *Ledger) RecordVBlankSpanEnd(cycle uint64) {
	l.lastClearCycle = cycle
}

// RecordStatusRead logs every CPU read of $2002, and separately records a
// race if the read landed on the exact cycle VBlank was set.
func (l *Ledger) RecordStatusRead(cycle uint64) {
	if cycle == l.lastSetCycle {
		l.lastRaceCycle = cycle
	}
	l.lastReadCycle = cycle
}

// IsActive reports whether the ledger is inside a VBlank span.
func (l *Ledger) IsActive() bool {
	return l.lastSetCycle > l.lastClearCycle
}

// HasRace reports whether the current span raced with a $2002 read.
func (l *Ledger) HasRace() bool {
	return l.lastRaceCycle >= l.lastSetCycle
}

// IsVisible reports the bit a $2002 read should actually observe: active,
// not raced, and not already consumed by an earlier read this span.
func (l *Ledger) IsVisible() bool {
	return l.IsActive() && !l.HasRace() && l.lastSetCycle > l.lastReadCycle
}

// LastSetCycle exposes the most recent VBlank-set timestamp for
// inspection; the exact-cycle race itself is decided by RecordStatusRead.
func (l *Ledger) LastSetCycle() uint64 {
	return l.lastSetCycle
}
