package cartridge

// MMC3 implements the scanline-counter family (mapper 4): switchable 8KB
// PRG banks, switchable CHR banks, and an IRQ counter clocked by PPU A12
// rising edges rather than by scanline position -- the core notifies the
// mapper directly via PPUA12Rising instead of the PPU counting scanlines
// itself.
type MMC3 struct {
	prg []uint8
	chr []uint8

	chrIsRAM bool
	prgBanks uint8 // number of 8KB PRG banks
	mirror   Mirroring

	bankSelect uint8
	prgMode    uint8
	chrMode    uint8
	regs       [8]uint8

	prgRAM        [0x2000]uint8
	prgRAMEnabled bool

	irqLatch      uint8
	irqCounter    uint8
	irqReloadFlag bool
	irqEnabled    bool
	irqPending    bool
}

// NewMMC3 builds an MMC3 cartridge from raw PRG/CHR images.
func NewMMC3(prg, chr []uint8, mirror Mirroring) *MMC3 {
	m := &MMC3{
		mirror:        mirror,
		prgBanks:      uint8(len(prg) / 0x2000),
		prgRAMEnabled: true,
	}
	m.prg = append([]uint8(nil), prg...)
	if len(chr) == 0 {
		m.chr = make([]uint8, 0x2000)
		m.chrIsRAM = true
	} else {
		m.chr = append([]uint8(nil), chr...)
	}
	return m
}

func (m *MMC3) prgOffset(addr uint16) (uint32, bool) {
	switch {
	case addr >= 0x8000 && addr < 0xA000:
		bank := m.regs[6]
		if m.prgMode == 1 {
			bank = m.prgBanks - 2
		}
		return uint32(bank)*0x2000 + uint32(addr-0x8000), true
	case addr >= 0xA000 && addr < 0xC000:
		return uint32(m.regs[7])*0x2000 + uint32(addr-0xA000), true
	case addr >= 0xC000 && addr < 0xE000:
		bank := m.prgBanks - 2
		if m.prgMode == 1 {
			bank = m.regs[6]
		}
		return uint32(bank)*0x2000 + uint32(addr-0xC000), true
	case addr >= 0xE000:
		return uint32(m.prgBanks-1)*0x2000 + uint32(addr-0xE000), true
	default:
		return 0, false
	}
}

func (m *MMC3) CPURead(addr uint16) uint8 {
	if addr >= 0x6000 && addr < 0x8000 {
		if m.prgRAMEnabled {
			return m.prgRAM[addr-0x6000]
		}
		return 0
	}
	if offset, ok := m.prgOffset(addr); ok && int(offset) < len(m.prg) {
		return m.prg[offset]
	}
	return 0
}

func (m *MMC3) CPUWrite(addr uint16, value uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		if m.prgRAMEnabled {
			m.prgRAM[addr-0x6000] = value
		}
	case addr >= 0x8000 && addr < 0xA000:
		if addr&1 == 0 {
			m.bankSelect = value & 0x07
			m.prgMode = (value >> 6) & 0x01
			m.chrMode = (value >> 7) & 0x01
		} else {
			m.regs[m.bankSelect] = value
		}
	case addr >= 0xA000 && addr < 0xC000:
		if addr&1 == 0 {
			if value&1 == 0 {
				m.mirror = MirrorVertical
			} else {
				m.mirror = MirrorHorizontal
			}
		}
	case addr >= 0xC000 && addr < 0xE000:
		if addr&1 == 0 {
			m.irqLatch = value
		} else {
			m.irqCounter = 0
			m.irqReloadFlag = true
		}
	case addr >= 0xE000:
		if addr&1 == 0 {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
}

func (m *MMC3) chrOffset(addr uint16) uint32 {
	if m.chrMode == 0 {
		switch {
		case addr < 0x0800:
			return uint32(m.regs[0]&0xFE)*0x400 + uint32(addr)
		case addr < 0x1000:
			return uint32(m.regs[1]&0xFE)*0x400 + uint32(addr-0x0800)
		case addr < 0x1400:
			return uint32(m.regs[2])*0x400 + uint32(addr-0x1000)
		case addr < 0x1800:
			return uint32(m.regs[3])*0x400 + uint32(addr-0x1400)
		case addr < 0x1C00:
			return uint32(m.regs[4])*0x400 + uint32(addr-0x1800)
		default:
			return uint32(m.regs[5])*0x400 + uint32(addr-0x1C00)
		}
	}
	switch {
	case addr < 0x0400:
		return uint32(m.regs[2])*0x400 + uint32(addr)
	case addr < 0x0800:
		return uint32(m.regs[3])*0x400 + uint32(addr-0x0400)
	case addr < 0x0C00:
		return uint32(m.regs[4])*0x400 + uint32(addr-0x0800)
	case addr < 0x1000:
		return uint32(m.regs[5])*0x400 + uint32(addr-0x0C00)
	case addr < 0x1800:
		return uint32(m.regs[0]&0xFE)*0x400 + uint32(addr-0x1000)
	default:
		return uint32(m.regs[1]&0xFE)*0x400 + uint32(addr-0x1800)
	}
}

func (m *MMC3) PPURead(addr uint16) uint8 {
	if addr >= 0x2000 {
		return 0
	}
	offset := m.chrOffset(addr)
	if int(offset) < len(m.chr) {
		return m.chr[offset]
	}
	return 0
}

func (m *MMC3) PPUWrite(addr uint16, value uint8) {
	if !m.chrIsRAM || addr >= 0x2000 {
		return
	}
	offset := m.chrOffset(addr)
	if int(offset) < len(m.chr) {
		m.chr[offset] = value
	}
}

func (m *MMC3) Mirroring() Mirroring { return m.mirror }

// PPUA12Rising clocks the scanline counter exactly as real MMC3 silicon
// does: once per PPU A12 rising edge, which coincides with the boundary
// between the sprite and background pattern fetch regions on a rendered
// scanline.
func (m *MMC3) PPUA12Rising() {
	if m.irqCounter == 0 || m.irqReloadFlag {
		m.irqCounter = m.irqLatch
		m.irqReloadFlag = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

// TickIRQ reports a pending MMC3 IRQ; the flag stays set until a $E000
// write acknowledges it.
func (m *MMC3) TickIRQ() bool {
	return m.irqPending
}
