package dma

// MemReader is the narrow read port the DMA engines need from the bus.
type MemReader interface {
	Read(addr uint16) uint8
}

// OAMWriter receives the 256 bytes an OAM DMA transfer copies, one per
// call, writing to the PPU's current OAMADDR and auto-incrementing it --
// the same behavior a CPU-driven $2004 write would have.
type OAMWriter interface {
	WriteOAM(value uint8)
}

// Engine arbitrates the CPU bus between normal execution, an OAM DMA
// transfer, and a DMC sample fetch. Only one of OAM or DMC actually moves a
// byte on any given cycle; a DMC fetch that falls due mid-transfer preempts
// OAM for its duration and forces OAM to re-align for one cycle before
// resuming, matching the real RDY-line arbitration between the two engines.
type Engine struct {
	ledger *Ledger

	oamRequested   bool
	oamPage        uint8
	active         bool
	byteIndex      int
	hasLatch       bool
	latch          uint8
	needsAlign     bool
	needsRealign   bool
	suspended      bool

	dmcRequested bool
	dmcAddr      uint16
	dmcActive    bool
	dmcStall     int
}

// NewEngine returns an idle engine backed by the given ledger.
func NewEngine(ledger *Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// Reset clears all in-flight and pending transfers.
func (e *Engine) Reset() {
	ledger := e.ledger
	*e = Engine{ledger: ledger}
}

// RequestOAM schedules an OAM DMA transfer from the given CPU page,
// triggered by a $4014 write. A transfer already in flight is not
// interrupted; the hardware itself ignores a second $4014 write mid-copy.
func (e *Engine) RequestOAM(page uint8) {
	if e.active {
		return
	}
	e.oamRequested = true
	e.oamPage = page
}

// RequestDMC schedules a DMC sample-byte fetch from the given CPU address.
func (e *Engine) RequestDMC(addr uint16) {
	e.dmcRequested = true
	e.dmcAddr = addr
}

// Busy reports whether any DMA activity is pending or in flight.
func (e *Engine) Busy() bool {
	return e.active || e.dmcActive || e.oamRequested || e.dmcRequested
}

// Tick advances the DMA engines by one CPU cycle. It returns true when the
// CPU bus is held this cycle -- the orchestrator must not step the CPU on a
// cycle where Tick returns true. dmcSink receives the fetched sample byte
// the cycle a DMC fetch completes.
func (e *Engine) Tick(cycle uint64, mem MemReader, oam OAMWriter, dmcSink func(uint8)) bool {
	if e.dmcRequested && !e.dmcActive {
		e.startDMC(cycle)
	}
	if e.dmcActive {
		e.dmcStall--
		if e.dmcStall <= 0 {
			data := mem.Read(e.dmcAddr)
			e.dmcActive = false
			e.dmcRequested = false
			e.ledger.RecordDMCComplete(cycle)
			if dmcSink != nil {
				dmcSink(data)
			}
			if e.suspended {
				e.suspended = false
				e.needsRealign = true
			}
		}
		return true
	}

	if e.oamRequested && !e.active {
		e.active = true
		e.byteIndex = 0
		e.hasLatch = false
		e.needsAlign = cycle%2 == 1
		e.oamRequested = false
		e.ledger.RecordOAMStart(cycle)
		return true // halt cycle: the CPU is stalled before the first read
	}

	if !e.active {
		return false
	}

	if e.suspended {
		return true
	}
	if e.needsRealign {
		e.needsRealign = false
		return true
	}
	if e.needsAlign {
		e.needsAlign = false
		return true
	}

	if !e.hasLatch {
		addr := uint16(e.oamPage)<<8 | uint16(e.byteIndex)
		e.latch = mem.Read(addr)
		e.hasLatch = true
	} else {
		oam.WriteOAM(e.latch)
		e.hasLatch = false
		e.byteIndex++
		if e.byteIndex == 256 {
			e.active = false
			e.ledger.RecordOAMComplete(cycle)
		}
	}
	return true
}

// startDMC commits a requested DMC fetch to its stall-cycle countdown. A
// fetch landing while OAM DMA is mid-transfer preempts it for the duration
// of the fetch: real hardware interleaves the DMC's own alignment cycles
// with OAM's, so the preempting fetch costs fewer cycles than a standalone
// one.
func (e *Engine) startDMC(cycle uint64) {
	e.dmcActive = true
	e.ledger.RecordDMCStart(cycle)

	switch {
	case e.active && !e.suspended:
		e.suspended = true
		e.ledger.RecordPreemption(cycle)
		e.dmcStall = 2
	case cycle%2 == 1:
		e.dmcStall = 3
	default:
		e.dmcStall = 4
	}
}
