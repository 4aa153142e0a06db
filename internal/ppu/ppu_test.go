package ppu

import (
	"testing"

	"github.com/RAMJAC-digital/RAMBO-sub012/internal/cartridge"
	"github.com/RAMJAC-digital/RAMBO-sub012/internal/vblank"
)

type stubMapper struct {
	chr      [0x2000]uint8
	mirror   cartridge.Mirroring
	a12Rises int
}

func (m *stubMapper) PPURead(addr uint16) uint8         { return m.chr[addr&0x1FFF] }
func (m *stubMapper) PPUWrite(addr uint16, value uint8) { m.chr[addr&0x1FFF] = value }
func (m *stubMapper) Mirroring() cartridge.Mirroring    { return m.mirror }
func (m *stubMapper) PPUA12Rising()                     { m.a12Rises++ }

func newTestPPU() (*PPU, *vblank.Ledger) {
	ledger := vblank.New()
	p := New(ledger)
	p.warmupComplete = true
	p.SetMapper(&stubMapper{})
	return p, ledger
}

func TestPPU_StatusReadClearsWriteLatchAndUsesOpenBusLowBits(t *testing.T) {
	p, _ := newTestPPU()
	p.setOpenBus(0x17)
	p.w = true

	status := p.ReadRegister(2, 100)

	if got := status & 0x1F; got != 0x17 {
		t.Errorf("status low bits = %#02x, want 0x17", got)
	}
	if p.w {
		t.Error("write latch still set after $2002 read")
	}
}

func TestPPU_VBlankSetAtScanline241Dot1FiresNMI(t *testing.T) {
	p, ledger := newTestPPU()
	p.ctrl = ctrlNMIEnable
	p.scanline = 241
	p.dot = 0

	p.Tick(1000)

	if !p.NMILine() {
		t.Error("NMILine() false, want true")
	}
	if got := ledger.LastSetCycle(); got != 1000 {
		t.Errorf("LastSetCycle() = %d, want 1000", got)
	}
}

func TestPPU_OAMAddrAutoIncrementsOnWrite(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(3, 0x10)
	p.WriteRegister(4, 0xAB)

	if p.oamAddr != 0x11 {
		t.Errorf("oamAddr = %#02x, want 0x11", p.oamAddr)
	}
	if p.oam[0x10] != 0xAB {
		t.Errorf("oam[0x10] = %#02x, want 0xAB", p.oam[0x10])
	}
}

func TestPPU_ScrollWriteSetsCoarseXAndFineX(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(5, 0b01111101) // coarse X=15, fine X=5

	if got := p.t & 0x1F; got != 15 {
		t.Errorf("coarse X = %d, want 15", got)
	}
	if p.x != 5 {
		t.Errorf("fine X = %d, want 5", p.x)
	}
	if !p.w {
		t.Error("write latch not set after first scroll write")
	}
}

func TestPPU_AddrWriteLoadsVOnSecondWrite(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(6, 0x21)
	p.WriteRegister(6, 0x05)

	if p.v != 0x2105 {
		t.Errorf("v = %#04x, want 0x2105", p.v)
	}
}

func TestPPU_PaletteMirrorsBackgroundColorEntries(t *testing.T) {
	p, _ := newTestPPU()
	p.writePalette(0x3F00, 0x0A)

	if got := p.readPalette(0x3F10); got != 0x0A {
		t.Errorf("mirrored palette read = %#02x, want 0x0A", got)
	}
}

func TestPPU_SpriteEvaluationTracksSourceIndexNotSlot(t *testing.T) {
	p, _ := newTestPPU()
	// Sprites 0 and 5 both occupy scanline 10; sprite 5 lands in slot 1, so
	// that slot must record OAM index 5 rather than its slot number.
	p.oam[5*4] = 9 // Y=9 -> visible on scanline 10
	p.oam[0] = 9   // sprite 0 also at Y=9

	p.scanline = 9 // evaluate targets scanline+1 = 10
	p.evaluateSprites()

	found := false
	for _, idx := range p.oamIndices {
		if idx == 0 {
			found = true
		}
	}
	if !found {
		t.Error("sprite 0's OAM source index not tracked in oamIndices")
	}
	if p.oamIndices[1] != 5 {
		t.Errorf("oamIndices[1] = %d, want 5 (sprite 5's OAM index, not slot 1)", p.oamIndices[1])
	}
}

func TestPPU_SpriteOverflowSetWhenMoreThanEightInRange(t *testing.T) {
	p, _ := newTestPPU()
	for i := 0; i < 9; i++ {
		p.oam[i*4] = 19 // Y=19 -> visible on scanline 20
	}
	p.scanline = 19

	p.evaluateSprites()

	if !p.statusOverflow {
		t.Error("statusOverflow false with 9 sprites in range, want true")
	}
}

func TestPPU_A12RisingEdgeNotifiesMapper(t *testing.T) {
	p, _ := newTestPPU()
	m := &stubMapper{}
	p.SetMapper(m)

	p.readVRAM(0x0100) // A12 low
	p.readVRAM(0x1100) // A12 rising edge

	if m.a12Rises != 1 {
		t.Errorf("a12Rises = %d, want 1", m.a12Rises)
	}
}

func TestPPU_OddFrameSkipsLastPreRenderDot(t *testing.T) {
	p, _ := newTestPPU()
	p.mask = maskShowBG
	p.oddFrame = true
	p.scanline = 261
	p.dot = 339

	p.Tick(0)

	if p.dot != 0 {
		t.Errorf("dot = %d, want 0 (idle dot 340 skipped, wrapped to the next line)", p.dot)
	}
}
