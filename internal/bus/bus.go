// Package bus implements the CPU-visible address map: pure routing between
// RAM, the PPU/APU register windows, the controller ports, and the
// cartridge mapper. It owns no timing of its own -- the orchestrator drives
// every tick and decides when OAM DMA or DMC DMA steals the bus.
package bus

import "github.com/RAMJAC-digital/RAMBO-sub012/internal/cartridge"

// PPU is the register window contract the bus routes $2000-$3FFF through.
type PPU interface {
	ReadRegister(reg uint8, cpuCycle uint64) uint8
	WriteRegister(reg uint8, value uint8)
}

// APU is the register window contract the bus routes $4000-$4017 through.
type APU interface {
	WriteRegister(addr uint16, value uint8)
	ReadStatus() uint8
}

// Controller is the contract for each of the two controller ports.
type Controller interface {
	WriteStrobe(value uint8)
	Read() uint8
}

// DMA is the contract the bus uses to kick off an OAM DMA transfer; the
// orchestrator's DMA engine actually executes the transfer cycle by cycle.
type DMA interface {
	RequestOAM(page uint8)
}

// openBus models the NES's floating data bus: the last byte driven onto it
// lingers and is returned by reads of unmapped or write-only locations.
// Internal-only writers (the APU status register's own IRQ-flag side
// effects) must not disturb the value external reads observe.
type openBus struct {
	value uint8
}

func (o *openBus) get() uint8          { return o.value }
func (o *openBus) set(v uint8)         { o.value = v }
func (o *openBus) setInternal(v uint8) { _ = v } // internal-only path never touches the external latch

// Bus wires the CPU's 16-bit address space to its components.
type Bus struct {
	ram [0x800]uint8

	ppu         PPU
	apu         APU
	mapper      cartridge.Mapper
	dma         DMA
	controllers [2]Controller

	ob         openBus
	cpuCycle   uint64
	testRAM    [0x2000]uint8 // $4020-$5FFF scratch, used by cartridge-less tests
	useTestRAM bool
}

// New constructs a Bus with a deterministic power-up RAM pattern. The PPU,
// APU, mapper, DMA engine, and controllers are constructed separately and
// wired in afterward through the Set* methods.
func New() *Bus {
	b := &Bus{}
	b.initRAM()
	return b
}

func (b *Bus) SetPPU(p PPU)                    { b.ppu = p }
func (b *Bus) SetAPU(a APU)                    { b.apu = a }
func (b *Bus) SetMapper(m cartridge.Mapper)    { b.mapper = m }
func (b *Bus) SetDMA(d DMA)                    { b.dma = d }
func (b *Bus) SetController(port int, c Controller) {
	if port >= 0 && port < len(b.controllers) {
		b.controllers[port] = c
	}
}

// SetCPUCycle lets the orchestrator stamp the current master-derived CPU
// cycle count so $2002 reads can be timestamped into the VBlank ledger via
// the PPU's own ReadRegister.
func (b *Bus) SetCPUCycle(cycle uint64) { b.cpuCycle = cycle }

// EnableTestRAM backs $4020-$5FFF with plain RAM instead of open bus, for
// unit tests that don't wire a full cartridge.
func (b *Bus) EnableTestRAM() { b.useTestRAM = true }

// ReseedRAM restores the deterministic power-up RAM pattern, as on a cold
// power-on.
func (b *Bus) ReseedRAM() { b.initRAM() }

// initRAM seeds the 2KB internal RAM with a biased, non-uniform pattern
// (roughly 87.5% zero bytes) using a small linear congruential generator
// seeded with a fixed constant so every cold boot is reproducible. The
// generator's low three bits repeat with period 8, so every eighth byte
// takes the generator's top byte and the other seven are zero.
func (b *Bus) initRAM() {
	var lcg uint32 = 0x2A2A2A2A
	next := func() uint32 {
		lcg = lcg*1664525 + 1013904223
		return lcg
	}
	for i := range b.ram {
		r := next()
		if r%8 != 0 {
			b.ram[i] = 0x00
		} else {
			b.ram[i] = uint8(r >> 24)
		}
	}
}

// Read implements cpu.Memory.
func (b *Bus) Read(addr uint16) uint8 {
	// $4015 is read internally-only: its status byte must never overwrite
	// the external open-bus latch, so it bypasses the general set() call
	// below entirely.
	if addr == 0x4015 {
		var value uint8
		if b.apu != nil {
			value = b.apu.ReadStatus()
		} else {
			value = b.ob.get()
		}
		b.ob.setInternal(value)
		return value
	}

	var value uint8
	switch {
	case addr < 0x2000:
		value = b.ram[addr&0x07FF]
	case addr < 0x4000:
		reg := uint8(addr & 0x0007)
		if b.ppu != nil {
			value = b.ppu.ReadRegister(reg, b.cpuCycle)
		} else {
			value = b.ob.get()
		}
	case addr == 0x4016 || addr == 0x4017:
		port := int(addr - 0x4016)
		if b.controllers[port] != nil {
			value = (b.ob.get() & 0xE0) | (b.controllers[port].Read() & 0x1F)
		} else {
			value = b.ob.get()
		}
	case addr < 0x4018:
		value = b.ob.get() // write-only APU registers
	case addr < 0x4020:
		value = b.ob.get() // disabled test-mode registers
	case addr >= 0x4020 && addr < 0x6000:
		if b.useTestRAM {
			value = b.testRAM[addr-0x4020]
		} else if b.mapper != nil {
			value = b.mapper.CPURead(addr)
		} else {
			value = b.ob.get()
		}
	default:
		if b.mapper != nil {
			value = b.mapper.CPURead(addr)
		} else {
			value = b.ob.get()
		}
	}
	b.ob.set(value)
	return value
}

// Write implements cpu.Memory.
func (b *Bus) Write(addr uint16, value uint8) {
	b.ob.set(value)
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = value
	case addr < 0x4000:
		reg := uint8(addr & 0x0007)
		if b.ppu != nil {
			b.ppu.WriteRegister(reg, value)
		}
	case addr == 0x4014:
		if b.dma != nil {
			b.dma.RequestOAM(value)
		}
	case addr == 0x4016:
		if b.controllers[0] != nil {
			b.controllers[0].WriteStrobe(value)
		}
		if b.controllers[1] != nil {
			b.controllers[1].WriteStrobe(value)
		}
	case addr <= 0x4013 || addr == 0x4015 || addr == 0x4017:
		if b.apu != nil {
			b.apu.WriteRegister(addr, value)
		}
	case addr < 0x4020:
		// test-mode registers, ignored
	case addr >= 0x4020 && addr < 0x6000:
		if b.useTestRAM {
			b.testRAM[addr-0x4020] = value
		} else if b.mapper != nil {
			b.mapper.CPUWrite(addr, value)
		}
	default:
		if b.mapper != nil {
			b.mapper.CPUWrite(addr, value)
		}
	}
}

// ReadOAMDMASource is the CPU-address-space read used by the DMA engine to
// fetch each of the 256 bytes an OAM DMA transfer copies; it is a plain bus
// read so the engine observes the same memory map the CPU would.
func (b *Bus) ReadOAMDMASource(addr uint16) uint8 { return b.Read(addr) }
