// Package debugger implements the non-intrusive introspection hooks the
// orchestrator consults every tick: PC breakpoints, memory watchpoints, and
// the step modes a front-end uses to pause emulation at instruction,
// scanline, or frame granularity. None of it has side effects on the
// emulated machine -- it only ever halts the tick loop or records events
// the core already produced.
package debugger

import "github.com/davecgh/go-spew/spew"

// StepMode names the granularity at which stepping halts the console.
type StepMode uint8

const (
	StepNone StepMode = iota
	StepInstruction
	StepOver
	StepOut
	StepScanline
	StepFrame
)

const (
	maxBreakpoints  = 64
	maxWatchpoints  = 64
	maxTraceEntries = 256
)

// TraceEntry is one recorded instruction boundary, used by a front-end to
// render a rolling execution history without re-deriving it from the bus.
type TraceEntry struct {
	PC    uint16
	A     uint8
	X     uint8
	Y     uint8
	SP    uint8
	P     uint8
	Cycle uint64
}

// Watchpoint fires when addr is accessed with the requested access kind.
type Watchpoint struct {
	Addr    uint16
	OnRead  bool
	OnWrite bool
}

// Debugger holds a fixed-capacity set of breakpoints/watchpoints and the
// current step-mode request. All storage is pre-allocated so stepping
// through a frame never allocates on the hot path.
type Debugger struct {
	enabled bool

	breakpoints   [maxBreakpoints]uint16
	breakpointSet [maxBreakpoints]bool

	watchpoints   [maxWatchpoints]Watchpoint
	watchpointSet [maxWatchpoints]bool

	trace     [maxTraceEntries]TraceEntry
	traceHead int
	traceLen  int

	mode          StepMode
	stopRequested bool
	callDepth     int
	stepOverDepth int

	halted          bool
	lastHaltPC      uint16
	lastWatchpoint  int
	onMemoryAccess  func(addr uint16, value uint8, isWrite bool)
}

// New returns a disabled debugger (no breakpoints, no stepping) so the
// orchestrator's hot path pays no cost unless a front-end opts in.
func New() *Debugger {
	return &Debugger{lastWatchpoint: -1}
}

func (d *Debugger) Enable(on bool)  { d.enabled = on }
func (d *Debugger) Enabled() bool   { return d.enabled }
func (d *Debugger) Halted() bool    { return d.halted }
func (d *Debugger) Resume()         { d.halted = false; d.mode = StepNone }
func (d *Debugger) LastHaltPC() uint16 { return d.lastHaltPC }

// SetMemoryAccessHook installs the callback invoked on every bus access
// while the debugger is enabled, used to drive watchpoint matching from
// outside (the bus itself doesn't know about the debugger).
func (d *Debugger) SetMemoryAccessHook(fn func(addr uint16, value uint8, isWrite bool)) {
	d.onMemoryAccess = fn
}

// AddBreakpoint installs a PC breakpoint, silently dropping it if the fixed
// table is already full.
func (d *Debugger) AddBreakpoint(pc uint16) {
	for i, set := range d.breakpointSet {
		if set && d.breakpoints[i] == pc {
			return
		}
	}
	for i, set := range d.breakpointSet {
		if !set {
			d.breakpoints[i] = pc
			d.breakpointSet[i] = true
			return
		}
	}
}

func (d *Debugger) RemoveBreakpoint(pc uint16) {
	for i, set := range d.breakpointSet {
		if set && d.breakpoints[i] == pc {
			d.breakpointSet[i] = false
		}
	}
}

func (d *Debugger) HasBreakpoint(pc uint16) bool {
	for i, set := range d.breakpointSet {
		if set && d.breakpoints[i] == pc {
			return true
		}
	}
	return false
}

func (d *Debugger) AddWatchpoint(w Watchpoint) {
	for i, set := range d.watchpointSet {
		if !set {
			d.watchpoints[i] = w
			d.watchpointSet[i] = true
			return
		}
	}
}

func (d *Debugger) RemoveWatchpoint(addr uint16) {
	for i, set := range d.watchpointSet {
		if set && d.watchpoints[i].Addr == addr {
			d.watchpointSet[i] = false
		}
	}
}

// NotifyMemoryAccess lets the orchestrator report every bus access so
// watchpoints can fire; it is a no-op while the debugger is disabled.
func (d *Debugger) NotifyMemoryAccess(addr uint16, value uint8, isWrite bool) {
	if !d.enabled {
		return
	}
	for i, set := range d.watchpointSet {
		if !set {
			continue
		}
		w := d.watchpoints[i]
		if w.Addr != addr {
			continue
		}
		if (isWrite && w.OnWrite) || (!isWrite && w.OnRead) {
			d.halted = true
			d.lastWatchpoint = i
		}
	}
	if d.onMemoryAccess != nil {
		d.onMemoryAccess(addr, value, isWrite)
	}
}

// SetStepMode arms a one-shot stop condition the orchestrator checks at the
// matching granularity (instruction boundary, scanline boundary, or frame
// boundary).
func (d *Debugger) SetStepMode(mode StepMode) {
	d.mode = mode
	d.stopRequested = false
	d.callDepth = 0
}

// NotifyInstructionBoundary is called once per retired instruction (queue
// drained back to empty) with the post-fetch PC and register snapshot.
func (d *Debugger) NotifyInstructionBoundary(pc, prevPC uint16, a, x, y, sp, p uint8, cycle uint64, isCall, isReturn bool) {
	d.recordTrace(pc, a, x, y, sp, p, cycle)

	if !d.enabled {
		return
	}
	if d.HasBreakpoint(pc) {
		d.halted = true
		d.lastHaltPC = pc
	}
	switch d.mode {
	case StepInstruction:
		d.halted = true
	case StepOver:
		if isCall {
			d.stepOverDepth++
		} else if isReturn {
			if d.stepOverDepth > 0 {
				d.stepOverDepth--
			} else {
				d.halted = true
			}
		} else if d.stepOverDepth == 0 {
			d.halted = true
		}
	case StepOut:
		if isReturn {
			if d.stepOverDepth > 0 {
				d.stepOverDepth--
			} else {
				d.halted = true
			}
		} else if isCall {
			d.stepOverDepth++
		}
	}
}

// NotifyScanlineBoundary is called once per PPU scanline completion.
func (d *Debugger) NotifyScanlineBoundary() {
	if d.enabled && d.mode == StepScanline {
		d.halted = true
	}
}

// NotifyFrameBoundary is called once per PPU frame completion.
func (d *Debugger) NotifyFrameBoundary() {
	if d.enabled && d.mode == StepFrame {
		d.halted = true
	}
}

func (d *Debugger) recordTrace(pc uint16, a, x, y, sp, p uint8, cycle uint64) {
	d.trace[d.traceHead] = TraceEntry{PC: pc, A: a, X: x, Y: y, SP: sp, P: p, Cycle: cycle}
	d.traceHead = (d.traceHead + 1) % maxTraceEntries
	if d.traceLen < maxTraceEntries {
		d.traceLen++
	}
}

// Trace returns the recorded instruction history, oldest first.
func (d *Debugger) Trace() []TraceEntry {
	out := make([]TraceEntry, d.traceLen)
	start := (d.traceHead - d.traceLen + maxTraceEntries) % maxTraceEntries
	for i := 0; i < d.traceLen; i++ {
		out[i] = d.trace[(start+i)%maxTraceEntries]
	}
	return out
}

// DumpTrace renders the recorded instruction history as a multi-line
// struct dump, the format a front-end's break-reason log or a failing
// test's diagnostic output wants -- not something worth hand-rolling a
// formatter for.
func (d *Debugger) DumpTrace() string {
	return spew.Sdump(d.Trace())
}

// DumpBreakState renders the halted PC, the last watchpoint index, and
// the full breakpoint/watchpoint tables for a break-reason report.
func (d *Debugger) DumpBreakState() string {
	return spew.Sdump(struct {
		LastHaltPC      uint16
		LastWatchpoint  int
		Breakpoints     []uint16
		Watchpoints     []Watchpoint
	}{
		LastHaltPC:     d.lastHaltPC,
		LastWatchpoint: d.lastWatchpoint,
		Breakpoints:    d.activeBreakpoints(),
		Watchpoints:    d.activeWatchpoints(),
	})
}

func (d *Debugger) activeBreakpoints() []uint16 {
	out := make([]uint16, 0, maxBreakpoints)
	for i, set := range d.breakpointSet {
		if set {
			out = append(out, d.breakpoints[i])
		}
	}
	return out
}

func (d *Debugger) activeWatchpoints() []Watchpoint {
	out := make([]Watchpoint, 0, maxWatchpoints)
	for i, set := range d.watchpointSet {
		if set {
			out = append(out, d.watchpoints[i])
		}
	}
	return out
}
