package dma

import "testing"

type fakeMem struct {
	data [0x10000]uint8
}

func (m *fakeMem) Read(addr uint16) uint8 { return m.data[addr] }

type fakeOAM struct {
	bytes []uint8
}

func (o *fakeOAM) WriteOAM(v uint8) { o.bytes = append(o.bytes, v) }

func runEngine(e *Engine, mem *fakeMem, oam *fakeOAM, startCycle uint64, maxCycles int) uint64 {
	cycle := startCycle
	for i := 0; i < maxCycles && e.Busy(); i++ {
		e.Tick(cycle, mem, oam, nil)
		cycle++
	}
	return cycle - startCycle
}

func TestEngine_OAMDMAEvenStartTakes513Cycles(t *testing.T) {
	mem := &fakeMem{}
	for i := 0; i < 256; i++ {
		mem.data[0x0200+i] = uint8(i)
	}
	oam := &fakeOAM{}
	e := NewEngine(NewLedger())
	e.RequestOAM(0x02)

	spent := runEngine(e, mem, oam, 0, 600)

	if spent != 513 {
		t.Errorf("spent = %d, want 513", spent)
	}
	if len(oam.bytes) != 256 {
		t.Fatalf("len(oam.bytes) = %d, want 256", len(oam.bytes))
	}
	if oam.bytes[0] != 0 {
		t.Errorf("oam.bytes[0] = %d, want 0", oam.bytes[0])
	}
	if oam.bytes[255] != 255 {
		t.Errorf("oam.bytes[255] = %d, want 255", oam.bytes[255])
	}
}

func TestEngine_OAMDMAOddStartTakes514Cycles(t *testing.T) {
	mem := &fakeMem{}
	oam := &fakeOAM{}
	e := NewEngine(NewLedger())
	e.RequestOAM(0x03)

	spent := runEngine(e, mem, oam, 1, 600)

	if spent != 514 {
		t.Errorf("spent = %d, want 514", spent)
	}
}

func TestEngine_DMCPreemptsInFlightOAM(t *testing.T) {
	mem := &fakeMem{}
	mem.data[0x8000] = 0xAB
	oam := &fakeOAM{}
	ledger := NewLedger()
	e := NewEngine(ledger)
	e.RequestOAM(0x02)

	// Run a few cycles into the transfer, then request a DMC fetch mid-copy.
	cycle := uint64(0)
	for i := 0; i < 10; i++ {
		e.Tick(cycle, mem, oam, nil)
		cycle++
	}
	var fetched uint8
	e.RequestDMC(0x8000)
	for e.Busy() {
		e.Tick(cycle, mem, oam, func(v uint8) { fetched = v })
		cycle++
	}

	if fetched != 0xAB {
		t.Errorf("fetched = %#02x, want 0xAB", fetched)
	}
	if len(oam.bytes) != 256 {
		t.Errorf("len(oam.bytes) = %d, want 256", len(oam.bytes))
	}
	if got := ledger.PreemptionCount(); got != 1 {
		t.Errorf("PreemptionCount() = %d, want 1", got)
	}
}

func TestEngine_StandaloneDMCFetchCostsFourCycles(t *testing.T) {
	mem := &fakeMem{}
	mem.data[0x9000] = 0x55
	oam := &fakeOAM{}
	e := NewEngine(NewLedger())
	e.RequestDMC(0x9000)

	var fetched uint8
	cycle := uint64(0)
	for e.Busy() {
		e.Tick(cycle, mem, oam, func(v uint8) { fetched = v })
		cycle++
	}

	if cycle != 4 {
		t.Errorf("cycle = %d, want 4", cycle)
	}
	if fetched != 0x55 {
		t.Errorf("fetched = %#02x, want 0x55", fetched)
	}
}

func TestEngine_IdleTickDoesNotHaltCPU(t *testing.T) {
	mem := &fakeMem{}
	oam := &fakeOAM{}
	e := NewEngine(NewLedger())

	halted := e.Tick(0, mem, oam, nil)

	if halted {
		t.Error("Tick() returned true on an idle engine, want false")
	}
}

func TestEngine_SecondOAMRequestIgnoredMidTransfer(t *testing.T) {
	mem := &fakeMem{}
	oam := &fakeOAM{}
	e := NewEngine(NewLedger())
	e.RequestOAM(0x02)
	e.Tick(0, mem, oam, nil)

	e.RequestOAM(0x04) // hardware ignores a second $4014 write mid-copy
	if e.oamRequested {
		t.Error("oamRequested true after a mid-transfer request, want unchanged")
	}
}
