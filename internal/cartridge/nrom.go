package cartridge

// NROM implements mapper 0: no bank switching. PRG-ROM is 16KB (mirrored to
// fill the 32KB window) or 32KB; CHR is 8KB of ROM or RAM. NROM has no IRQ
// source, so TickIRQ and PPUA12Rising are no-ops.
type NROM struct {
	prg      []uint8
	chr      []uint8
	chrIsRAM bool
	sram     [0x2000]uint8
	mirror   Mirroring
}

// NewNROM builds an NROM cartridge from raw PRG/CHR images. An empty chr
// slice means the cartridge uses 8KB of CHR-RAM instead of CHR-ROM.
func NewNROM(prg, chr []uint8, mirror Mirroring) *NROM {
	m := &NROM{mirror: mirror}
	m.prg = append([]uint8(nil), prg...)
	if len(chr) == 0 {
		m.chr = make([]uint8, 0x2000)
		m.chrIsRAM = true
	} else {
		m.chr = append([]uint8(nil), chr...)
	}
	return m
}

func (m *NROM) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		if len(m.prg) == 0 {
			return 0
		}
		offset := addr - 0x8000
		if len(m.prg) == 0x4000 {
			offset &= 0x3FFF
		}
		if int(offset) < len(m.prg) {
			return m.prg[offset]
		}
		return 0
	case addr >= 0x6000:
		return m.sram[addr-0x6000]
	default:
		return 0
	}
}

func (m *NROM) CPUWrite(addr uint16, value uint8) {
	if addr >= 0x6000 && addr < 0x8000 {
		m.sram[addr-0x6000] = value
	}
	// Writes into the ROM window are ignored: NROM has no registers.
}

func (m *NROM) PPURead(addr uint16) uint8 {
	if addr < 0x2000 && int(addr) < len(m.chr) {
		return m.chr[addr]
	}
	return 0
}

func (m *NROM) PPUWrite(addr uint16, value uint8) {
	if m.chrIsRAM && addr < 0x2000 && int(addr) < len(m.chr) {
		m.chr[addr] = value
	}
}

func (m *NROM) Mirroring() Mirroring { return m.mirror }
func (m *NROM) TickIRQ() bool        { return false }
func (m *NROM) PPUA12Rising()        {}
