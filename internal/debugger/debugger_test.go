package debugger

import (
	"strings"
	"testing"
)

func TestDebugger_BreakpointHaltsOnMatchingPC(t *testing.T) {
	d := New()
	d.Enable(true)
	d.AddBreakpoint(0x8010)

	d.NotifyInstructionBoundary(0x8010, 0x800E, 0, 0, 0, 0xFD, 0, 100, false, false)

	if !d.Halted() {
		t.Fatal("Halted() false, want true")
	}
	if got := d.LastHaltPC(); got != 0x8010 {
		t.Errorf("LastHaltPC() = %#04x, want 0x8010", got)
	}
}

func TestDebugger_DisabledDebuggerNeverHalts(t *testing.T) {
	d := New()
	d.AddBreakpoint(0x8010)

	d.NotifyInstructionBoundary(0x8010, 0x800E, 0, 0, 0, 0xFD, 0, 100, false, false)

	if d.Halted() {
		t.Error("Halted() true while disabled, want false")
	}
}

func TestDebugger_StepInstructionHaltsAfterOneInstruction(t *testing.T) {
	d := New()
	d.Enable(true)
	d.SetStepMode(StepInstruction)

	d.NotifyInstructionBoundary(0x8002, 0x8000, 0, 0, 0, 0xFD, 0, 1, false, false)

	if !d.Halted() {
		t.Error("Halted() false, want true")
	}
}

func TestDebugger_StepOverSkipsSubroutineBody(t *testing.T) {
	d := New()
	d.Enable(true)
	d.SetStepMode(StepOver)

	d.NotifyInstructionBoundary(0x9000, 0x8005, 0, 0, 0, 0xFD, 0, 1, true, false) // JSR
	if d.Halted() {
		t.Fatal("Halted() true after JSR, want false")
	}

	d.NotifyInstructionBoundary(0x9010, 0x900E, 0, 0, 0, 0xFD, 0, 2, false, false) // inside callee
	if d.Halted() {
		t.Fatal("Halted() true inside callee, want false")
	}

	d.NotifyInstructionBoundary(0x8008, 0x9020, 0, 0, 0, 0xFD, 0, 3, false, true) // RTS back
	if d.Halted() {
		t.Fatal("Halted() true on RTS, want false")
	}

	d.NotifyInstructionBoundary(0x800A, 0x8008, 0, 0, 0, 0xFD, 0, 4, false, false)
	if !d.Halted() {
		t.Error("Halted() false after returning to caller, want true")
	}
}

func TestDebugger_WatchpointFiresOnMatchingWrite(t *testing.T) {
	d := New()
	d.Enable(true)
	d.AddWatchpoint(Watchpoint{Addr: 0x0300, OnWrite: true})

	d.NotifyMemoryAccess(0x0300, 0x42, true)

	if !d.Halted() {
		t.Error("Halted() false, want true")
	}
}

func TestDebugger_WatchpointIgnoresNonMatchingAddress(t *testing.T) {
	d := New()
	d.Enable(true)
	d.AddWatchpoint(Watchpoint{Addr: 0x0300, OnWrite: true})

	d.NotifyMemoryAccess(0x0301, 0x42, true)

	if d.Halted() {
		t.Error("Halted() true for a non-matching address, want false")
	}
}

func TestDebugger_BreakpointTableCapsAtFixedSize(t *testing.T) {
	d := New()
	for i := 0; i < maxBreakpoints+10; i++ {
		d.AddBreakpoint(uint16(i))
	}

	count := 0
	for _, set := range d.breakpointSet {
		if set {
			count++
		}
	}
	if count != maxBreakpoints {
		t.Errorf("count = %d, want %d", count, maxBreakpoints)
	}
}

func TestDebugger_TraceRingBufferWrapsWithoutGrowing(t *testing.T) {
	d := New()
	for i := 0; i < maxTraceEntries+5; i++ {
		d.NotifyInstructionBoundary(uint16(i), uint16(i-1), 0, 0, 0, 0, 0, uint64(i), false, false)
	}

	trace := d.Trace()
	if len(trace) != maxTraceEntries {
		t.Fatalf("len(trace) = %d, want %d", len(trace), maxTraceEntries)
	}
	if trace[0].PC != 5 {
		t.Errorf("trace[0].PC = %#04x, want 5", trace[0].PC)
	}
}

func TestDebugger_DumpTraceAndBreakStateRenderNonEmptyReports(t *testing.T) {
	d := New()
	d.Enable(true)
	d.AddBreakpoint(0x8010)
	d.AddWatchpoint(Watchpoint{Addr: 0x10, OnWrite: true})
	d.NotifyInstructionBoundary(0x8010, 0x800E, 1, 2, 3, 0xFD, 0, 100, false, false)

	if !strings.Contains(d.DumpTrace(), "PC") {
		t.Error("DumpTrace() does not mention PC")
	}
	if !strings.Contains(d.DumpBreakState(), "LastHaltPC") {
		t.Error("DumpBreakState() does not mention LastHaltPC")
	}
}
