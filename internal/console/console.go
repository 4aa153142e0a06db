// Package console implements the Orchestrator: the single synchronous
// scheduling loop that owns every subsystem (clock, PPU, APU, DMA, CPU,
// bus, cartridge, debugger) and advances them one master cycle at a time.
// No subsystem here suspends, blocks, allocates on the hot path, or spawns
// a goroutine -- tick() is the only scheduling primitive, as required of a
// cycle-accurate core shared with a single-threaded caller.
package console

import (
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/apu"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/bus"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/cartridge"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/controller"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/cpu"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/debugger"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/dma"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/ppu"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/timing"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/vblank"
)

// maxEmulateCycles bounds emulate_frame/emulate_cpu_cycles so a stuck
// cartridge or a host bug can never hang the caller's thread.
const maxEmulateCycles = 110_000

// oamWriterAdapter lets the DMA engine's OAMWriter contract reach the PPU's
// WriteOAM entry point without the dma package importing ppu.
type oamWriterAdapter struct{ p *ppu.PPU }

func (a oamWriterAdapter) WriteOAM(value uint8) { a.p.WriteOAM(value) }

// Console is the Orchestrator: it owns every subsystem value directly (no
// back-pointers, no cyclic references) and reaches across its own fields
// from tick().
type Console struct {
	config Config

	clock      *timing.Clock
	vblank     *vblank.Ledger
	ppu        *ppu.PPU
	apu        *apu.APU
	dmaLedger  *dma.Ledger
	dma        *dma.Engine
	cpu        *cpu.CPU
	bus        *bus.Bus
	debugger   *debugger.Debugger
	pad1, pad2 *controller.Controller
	mapper     cartridge.Mapper

	frameComplete bool
	lastPC        uint16
}

// New constructs a Console with every subsystem wired together, matching
// §4.9's signal-flow graph: PPU NMI / APU IRQ / mapper IRQ feed the CPU;
// DMA RDY stalls it; CPU bus accesses reach back into PPU/APU/controller.
func New(cfg Config) *Console {
	c := &Console{config: cfg}

	c.clock = timing.New()
	c.vblank = vblank.New()
	c.ppu = ppu.New(c.vblank)
	c.apu = apu.New()
	c.dmaLedger = dma.NewLedger()
	c.dma = dma.NewEngine(c.dmaLedger)
	c.bus = bus.New()
	c.cpu = cpu.New(c.bus)
	c.debugger = debugger.New()
	c.pad1 = controller.New()
	c.pad2 = controller.New()

	c.apu.SetDMARequester(c.dma)
	c.ppu.SetFrameCompleteCallback(func() { c.frameComplete = true })
	c.bus.SetPPU(c.ppu)
	c.bus.SetAPU(c.apu)
	c.bus.SetDMA(c.dma)
	c.bus.SetController(0, c.pad1)
	c.bus.SetController(1, c.pad2)
	c.cpu.SetAckNMI(c.ppu.AckNMI)

	return c
}

// LoadCartridge installs mapper as the cartridge, sets PPU mirroring from
// it, and wires it into the bus.
func (c *Console) LoadCartridge(mapper cartridge.Mapper) {
	c.mapper = mapper
	c.bus.SetMapper(mapper)
	c.ppu.SetMapper(mapper)
}

// PowerOn performs a cold reset: RAM is re-seeded, PPU warmup is marked
// incomplete, everything else returns to its power-up state.
func (c *Console) PowerOn() {
	c.clock.Reset()
	c.vblank.Reset()
	c.ppu.Reset(false)
	c.apu.Reset()
	c.dmaLedger.Reset()
	c.dma.Reset()
	c.pad1.Reset()
	c.pad2.Reset()
	c.bus.ReseedRAM()
	c.cpu.PowerOn()
	c.frameComplete = false
}

// Reset performs a warm reset: RAM contents survive, PPU warmup is already
// considered complete, and the CPU runs its 7-cycle RESET sequence rather
// than jumping straight to the vector.
func (c *Console) Reset() {
	c.clock.Reset()
	c.ppu.Reset(true)
	c.apu.Reset()
	c.dmaLedger.Reset()
	c.dma.Reset()
	c.cpu.RequestReset()
	c.frameComplete = false
}

// FrameBuffer returns the PPU's 256x240 ARGB pixel buffer.
func (c *Console) FrameBuffer() *[256 * 240]uint32 { return c.ppu.FrameBuffer() }

// FrameComplete reports whether the last dot of the pre-render scanline
// has fired since the flag was last cleared.
func (c *Console) FrameComplete() bool { return c.frameComplete }

// ClearFrameComplete lets the caller acknowledge FrameComplete manually.
// EmulateFrame, PowerOn and Reset also clear it; Tick never does, so the
// flag stays set across later frames until one of these clears it.
func (c *Console) ClearFrameComplete() { c.frameComplete = false }

// SetControllerButtons loads the full 8-bit button state for port 0 or 1.
func (c *Console) SetControllerButtons(port int, buttons uint8) {
	switch port {
	case 0:
		c.pad1.SetButtons(buttons)
	case 1:
		c.pad2.SetButtons(buttons)
	}
}

// Debugger exposes the debugger collaborator for breakpoint/watchpoint
// configuration.
func (c *Console) Debugger() *debugger.Debugger { return c.debugger }

// MixSample pulls the APU's instantaneous mixer output in [0,1].
func (c *Console) MixSample() float32 { return c.apu.Mix() }

// Tick advances the console by exactly one master cycle, following §4.9's
// ordering: debugger halt check, PPU dot, CPU-tick-gated APU/DMA/signal
// wiring/CPU microstep, then master clock advance.
func (c *Console) Tick() {
	if c.debugger.Halted() {
		return
	}

	cycle := c.clock.MasterCycles()
	framesBefore := c.ppu.FrameCount()
	c.ppu.Tick(cycle)

	if c.clock.IsCPUTick() {
		cpuCycle := c.clock.CPUCycles()
		c.bus.SetCPUCycle(cpuCycle)

		c.apu.Tick(cpuCycle)

		halted := c.dma.Tick(cpuCycle, dmaMemAdapter{c.bus}, oamWriterAdapter{c.ppu}, c.apu.DeliverDMCSample)
		c.cpu.SetRDYLine(halted)

		irq := c.apu.FrameIRQ() || c.apu.DMCIRQ()
		if c.mapper != nil {
			irq = irq || c.mapper.TickIRQ()
		}
		c.cpu.SetIRQLine(irq)
		if c.ppu.NMILine() {
			c.cpu.SignalNMI()
		}

		wasAtBoundary := c.cpu.AtBoundary()
		prevPC := c.lastPC
		c.cpu.Tick()
		if !wasAtBoundary && c.cpu.AtBoundary() {
			c.notifyInstructionRetired(prevPC, cpuCycle)
		}
		c.lastPC = c.cpu.PC
	}

	if c.ppu.Dot() == 0 {
		c.debugger.NotifyScanlineBoundary()
	}
	if c.ppu.FrameCount() != framesBefore {
		c.debugger.NotifyFrameBoundary()
	}

	c.clock.Advance()
}

func (c *Console) notifyInstructionRetired(prevPC uint16, cycle uint64) {
	op := c.cpu.LastOpcode()
	isCall := op == 0x20 // JSR
	isReturn := op == 0x60 || op == 0x40 // RTS, RTI
	c.debugger.NotifyInstructionBoundary(c.cpu.PC, prevPC, c.cpu.A, c.cpu.X, c.cpu.Y, c.cpu.SP, c.cpu.P, cycle, isCall, isReturn)
}

// dmaMemAdapter satisfies dma.MemReader against the bus's CPU-address-space
// read, so OAM DMA observes exactly what the CPU would see.
type dmaMemAdapter struct{ b *bus.Bus }

func (a dmaMemAdapter) Read(addr uint16) uint8 { return a.b.ReadOAMDMASource(addr) }

// EmulateFrame ticks until a frame completes or the safety cap is hit,
// returning whether a frame actually completed.
func (c *Console) EmulateFrame() bool {
	c.frameComplete = false
	for i := 0; i < maxEmulateCycles*3; i++ {
		c.Tick()
		if c.frameComplete {
			return true
		}
		if c.debugger.Halted() {
			return false
		}
	}
	return false
}

// EmulateCPUCycles ticks for approximately n CPU cycles (n*3 master
// cycles), capped at the same safety limit as EmulateFrame.
func (c *Console) EmulateCPUCycles(n int) {
	if n > maxEmulateCycles {
		n = maxEmulateCycles
	}
	for i := 0; i < n*3; i++ {
		c.Tick()
		if c.debugger.Halted() {
			return
		}
	}
}
