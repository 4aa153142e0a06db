package cartridge

import "testing"

func TestNROM_16KBMirrors(t *testing.T) {
	prg := make([]uint8, 0x4000)
	for i := range prg {
		prg[i] = uint8(i & 0xFF)
	}
	m := NewNROM(prg, nil, MirrorHorizontal)

	if m.CPURead(0x8000) != m.CPURead(0xC000) {
		t.Errorf("CPURead(0x8000)=%#02x != CPURead(0xC000)=%#02x", m.CPURead(0x8000), m.CPURead(0xC000))
	}
	if got := m.CPURead(0x8123); got != 0x23 {
		t.Errorf("CPURead(0x8123) = %#02x, want 0x23", got)
	}
	if got := m.CPURead(0xC123); got != 0x23 {
		t.Errorf("CPURead(0xC123) = %#02x, want 0x23", got)
	}
}

func TestNROM_32KBNoMirror(t *testing.T) {
	prg := make([]uint8, 0x8000)
	for i := range prg {
		prg[i] = uint8((i >> 8) & 0xFF)
	}
	m := NewNROM(prg, nil, MirrorVertical)

	if got := m.CPURead(0x8000); got != 0x00 {
		t.Errorf("CPURead(0x8000) = %#02x, want 0x00", got)
	}
	if got := m.CPURead(0xC000); got != 0x40 {
		t.Errorf("CPURead(0xC000) = %#02x, want 0x40", got)
	}
}

func TestNROM_CHRRAMWritable(t *testing.T) {
	m := NewNROM(make([]uint8, 0x4000), nil, MirrorHorizontal)

	m.PPUWrite(0x0010, 0x42)
	if got := m.PPURead(0x0010); got != 0x42 {
		t.Errorf("PPURead(0x0010) = %#02x, want 0x42", got)
	}
}

func TestNROM_CHRROMReadOnly(t *testing.T) {
	chr := make([]uint8, 0x2000)
	chr[0x10] = 0x77
	m := NewNROM(make([]uint8, 0x4000), chr, MirrorHorizontal)

	m.PPUWrite(0x0010, 0x42)
	if got := m.PPURead(0x0010); got != 0x77 {
		t.Errorf("PPURead(0x0010) = %#02x, want 0x77 (CHR ROM write ignored)", got)
	}
}

func TestNROM_SRAMRoundtrip(t *testing.T) {
	m := NewNROM(make([]uint8, 0x4000), nil, MirrorHorizontal)

	m.CPUWrite(0x6123, 0x99)
	if got := m.CPURead(0x6123); got != 0x99 {
		t.Errorf("CPURead(0x6123) = %#02x, want 0x99", got)
	}
}

func TestNROM_NoIRQSource(t *testing.T) {
	m := NewNROM(make([]uint8, 0x4000), nil, MirrorHorizontal)

	m.PPUA12Rising()
	if m.TickIRQ() {
		t.Error("TickIRQ() true for NROM, want false (no IRQ source)")
	}
}
