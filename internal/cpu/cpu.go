// Package cpu implements a cycle-accurate 6502 core built as a microstep
// state machine: each call to Tick consumes exactly one CPU cycle, either
// fetching the next opcode (or starting an interrupt sequence) or popping
// one scheduled bus access off the current instruction's step queue.
package cpu

// Memory is the narrow bus contract the CPU needs: byte-addressed read and
// write. Implemented by internal/bus.Bus.
type Memory interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Flag bits within the P status register.
const (
	FlagCarry            uint8 = 0x01
	FlagZero             uint8 = 0x02
	FlagInterruptDisable uint8 = 0x04
	FlagDecimal          uint8 = 0x08
	FlagBreak            uint8 = 0x10
	FlagUnused           uint8 = 0x20
	FlagOverflow         uint8 = 0x40
	FlagNegative         uint8 = 0x80
)

const stackBase uint16 = 0x0100

const (
	vectorNMI   uint16 = 0xFFFA
	vectorReset uint16 = 0xFFFC
	vectorIRQ   uint16 = 0xFFFE
)

// State names the microstep phase the CPU is currently in, mirroring the
// interrupt_sequence / fetch_opcode / execute phases of the core's timing
// model.
type State uint8

const (
	StateFetchOpcode State = iota
	StateInterruptSequence
	StateExecute
)

type microStep func(c *CPU)

// CPU is the 6502 register file plus the in-flight microstep queue for
// whatever instruction or interrupt sequence is currently executing.
type CPU struct {
	A, X, Y, SP uint8
	PC          uint16
	P           uint8

	mem Memory

	rdyLine    bool
	irqLine    bool
	nmiPending bool
	ackNMI     func()

	resetPending bool

	queue []microStep
	qPos  int
	state State

	opcode      uint8
	addr        uint16
	operand     uint8
	baseAddr    uint16
	pointerAddr uint16
	branchTaken bool
	brkIsReset  bool

	halted bool
	jammed bool
}

// New constructs a CPU wired to mem. PowerOn/Reset must be called before
// the first Tick to establish the initial register state.
func New(mem Memory) *CPU {
	return &CPU{mem: mem, SP: 0xFD, P: FlagInterruptDisable | FlagUnused}
}

// SetAckNMI installs the callback invoked once an NMI sequence begins
// servicing, letting the orchestrator clear the PPU's latched NMI line.
func (c *CPU) SetAckNMI(fn func()) { c.ackNMI = fn }

// SetRDYLine, when held true, freezes the instruction state machine for
// this cycle -- used by the DMA engine to steal bus cycles.
func (c *CPU) SetRDYLine(held bool) { c.rdyLine = held }

// SetIRQLine sets the level-sensitive IRQ line, the logical OR of the APU
// frame/DMC IRQ flags and the cartridge mapper's TickIRQ output.
func (c *CPU) SetIRQLine(asserted bool) { c.irqLine = asserted }

// SignalNMI latches a pending NMI. The PPU's NMI line is itself latched
// until acknowledged; the orchestrator calls this on every CPU tick while
// that line is high, and repeated calls only re-set the same pending flag.
func (c *CPU) SignalNMI() { c.nmiPending = true }

// RequestReset schedules a reset sequence to run on the next instruction
// boundary, matching the RESET > NMI > IRQ priority ordering.
func (c *CPU) RequestReset() { c.resetPending = true }

// PowerOn loads the reset vector immediately, without running the
// 7-cycle sequence, for cold-start setup in tests and power_on().
func (c *CPU) PowerOn() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.P = FlagInterruptDisable | FlagUnused
	c.PC = c.readWord(vectorReset)
	c.queue = nil
	c.qPos = 0
	c.halted = false
	c.jammed = false
}

func (c *CPU) Halted() bool { return c.halted || c.jammed }
func (c *CPU) State() State { return c.state }

// AtBoundary reports whether the instruction/interrupt sequence in flight
// has fully retired -- the next Tick will fetch a new opcode (or begin a
// new interrupt sequence).
func (c *CPU) AtBoundary() bool { return len(c.queue) == 0 }

// LastOpcode returns the most recently fetched opcode byte, used by the
// debugger to classify call/return instructions for step-over/step-out.
func (c *CPU) LastOpcode() uint8 { return c.opcode }

// Tick executes exactly one CPU cycle: either the first cycle of the next
// instruction/interrupt (opcode fetch) or the next queued microstep of the
// instruction already in flight.
func (c *CPU) Tick() {
	if c.rdyLine || c.halted {
		return
	}
	if len(c.queue) == 0 {
		c.begin()
		return
	}
	step := c.queue[c.qPos]
	c.qPos++
	step(c)
	if c.qPos >= len(c.queue) {
		c.queue = nil
		c.qPos = 0
	}
}

func (c *CPU) begin() {
	switch {
	case c.resetPending:
		c.resetPending = false
		c.state = StateInterruptSequence
		c.scheduleInterrupt(vectorReset, true)
	case c.nmiPending:
		c.nmiPending = false
		c.state = StateInterruptSequence
		if c.ackNMI != nil {
			c.ackNMI()
		}
		c.scheduleInterrupt(vectorNMI, false)
	case c.irqLine && c.P&FlagInterruptDisable == 0:
		c.state = StateInterruptSequence
		c.scheduleInterrupt(vectorIRQ, false)
	default:
		c.state = StateFetchOpcode
		c.opcode = c.mem.Read(c.PC)
		c.PC++
		c.scheduleInstruction(c.opcode)
		c.state = StateExecute
	}
}

func (c *CPU) push(v uint8) {
	c.mem.Write(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.mem.Read(stackBase + uint16(c.SP))
}

func (c *CPU) readWord(addr uint16) uint16 {
	lo := uint16(c.mem.Read(addr))
	hi := uint16(c.mem.Read(addr + 1))
	return lo | hi<<8
}

func (c *CPU) setZN(v uint8) {
	if v == 0 {
		c.P |= FlagZero
	} else {
		c.P &^= FlagZero
	}
	if v&0x80 != 0 {
		c.P |= FlagNegative
	} else {
		c.P &^= FlagNegative
	}
}

// scheduleInterrupt builds the 6-cycle tail (7 total with begin) of a
// RESET/NMI/IRQ/BRK sequence: two PC pushes, one P push (skipped and
// replaced with SP decrements for reset, since reset's bus isn't wired to
// RAM on real hardware), then the vector fetch.
func (c *CPU) scheduleInterrupt(vector uint16, isReset bool) {
	c.queue = nil
	c.qPos = 0
	if isReset {
		c.queue = []microStep{
			func(c *CPU) { c.mem.Read(c.PC) },
			func(c *CPU) { c.SP-- },
			func(c *CPU) { c.SP-- },
			func(c *CPU) { c.SP-- },
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(vector)) },
			func(c *CPU) {
				hi := uint16(c.mem.Read(vector + 1))
				c.PC = c.baseAddr | hi<<8
			},
		}
		return
	}
	c.queue = []microStep{
		func(c *CPU) { c.mem.Read(c.PC) },
		func(c *CPU) { c.push(uint8(c.PC >> 8)) },
		func(c *CPU) { c.push(uint8(c.PC)) },
		func(c *CPU) {
			flags := c.P | FlagUnused
			flags &^= FlagBreak
			c.push(flags)
			c.P |= FlagInterruptDisable
		},
		func(c *CPU) { c.baseAddr = uint16(c.mem.Read(vector)) },
		func(c *CPU) {
			hi := uint16(c.mem.Read(vector + 1))
			c.PC = c.baseAddr | hi<<8
		},
	}
}
