package ppu

// Tick advances the PPU by exactly one dot and then runs the dot it lands
// on, as driven by the orchestrator three times per CPU tick. cycle is the
// current master cycle: it timestamps VBlank ledger events and ends the
// cold-boot warmup window once 29,658 CPU cycles (cycle/3) have elapsed.
func (p *PPU) Tick(cycle uint64) {
	if !p.warmupComplete && cycle/3 >= 29658 {
		p.warmupComplete = true
	}
	p.advanceDot()
	p.runDot(cycle)
}

func (p *PPU) advanceDot() {
	p.dot++
	if p.preRender() && p.dot == 340 && p.oddFrame && p.renderingEnabled() {
		p.dot = 341 // odd-frame skip: the idle dot 340 is skipped entirely
	}
	if p.dot > 340 {
		p.dot = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1 // pre-render
		} else if p.scanline == 0 {
			// leaving the pre-render line completes the frame
			p.frame++
			p.oddFrame = !p.oddFrame
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}
	if p.obDecay > 0 {
		p.obDecay--
		if p.obDecay == 0 {
			p.obValue = 0
		}
	}
}

func (p *PPU) preRender() bool { return p.scanline == -1 || p.scanline == 261 }

func (p *PPU) runDot(cycle uint64) {
	switch {
	case p.scanline == 241 && p.dot == 1:
		p.ledger.RecordVBlankSet(cycle)
		if p.ctrl&ctrlNMIEnable != 0 {
			p.nmiLine = true
		}
		return
	case p.preRender() && p.dot == 1:
		p.ledger.RecordVBlankSpanEnd(cycle)
		p.statusSprite0 = false
		p.statusOverflow = false
	}

	visible := p.scanline >= 0 && p.scanline < 240
	if !visible && !p.preRender() {
		return
	}

	if !p.renderingEnabled() {
		return
	}

	if p.dot >= 1 && p.dot <= 64 {
		p.secondaryOAM[(p.dot-1)/2] = 0xFF // dots 1..64 clear secondary OAM
	}
	if (visible || p.preRender()) && p.dot == 65 {
		// Real hardware also evaluates on the pre-render line so scanline 0
		// has a populated secondary OAM; the pre-render pass targets
		// scanline 0 via evaluateSprites' scanline+1 convention.
		p.evaluateSprites()
	}

	p.backgroundPipeline()

	if p.dot == 256 {
		p.incrementY()
	}
	if p.dot == 257 {
		p.copyHorizontal()
		p.fetchSprites()
	}
	if p.preRender() && p.dot >= 280 && p.dot <= 304 {
		p.copyVertical()
	}

	if visible && p.dot >= 1 && p.dot <= 256 {
		p.renderPixel(p.dot-1, p.scanline)
	}
}

// backgroundPipeline runs the 8-cycle nametable/attribute/pattern fetch
// cadence across dots 1..256 and 321..336, reloading the shift registers
// every 8th dot and shifting them every dot.
func (p *PPU) backgroundPipeline() {
	inFetchWindow := (p.dot >= 1 && p.dot <= 256) || (p.dot >= 321 && p.dot <= 336)
	if inFetchWindow {
		switch p.dot % 8 {
		case 1:
			p.reloadShifters()
			p.nextTileID = p.readVRAM(0x2000 | (p.v & 0x0FFF))
		case 3:
			addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
			attr := p.readVRAM(addr)
			shift := ((p.v >> 4) & 4) | (p.v & 2)
			p.nextAttribute = (attr >> shift) & 0x03
		case 5:
			base := uint16(0)
			if p.ctrl&ctrlBGTable != 0 {
				base = 0x1000
			}
			fineY := (p.v >> 12) & 7
			p.nextPatternLow = p.readVRAM(base + uint16(p.nextTileID)*16 + fineY)
		case 7:
			base := uint16(0)
			if p.ctrl&ctrlBGTable != 0 {
				base = 0x1000
			}
			fineY := (p.v >> 12) & 7
			p.nextPatternHigh = p.readVRAM(base + uint16(p.nextTileID)*16 + fineY + 8)
		case 0:
			p.incrementX()
		}
	}
	if (p.dot >= 2 && p.dot <= 257) || (p.dot >= 322 && p.dot <= 337) {
		p.bgShiftLow <<= 1
		p.bgShiftHigh <<= 1
		p.attrShiftLow = (p.attrShiftLow << 1) | uint16(p.attrLatchLow)
		p.attrShiftHigh = (p.attrShiftHigh << 1) | uint16(p.attrLatchHigh)
	}
	if p.dot == 338 || p.dot == 340 {
		p.readVRAM(0x2000 | (p.v & 0x0FFF)) // dummy nametable reads
	}
}

func (p *PPU) reloadShifters() {
	p.bgShiftLow = (p.bgShiftLow & 0xFF00) | uint16(p.nextPatternLow)
	p.bgShiftHigh = (p.bgShiftHigh & 0xFF00) | uint16(p.nextPatternHigh)
	if p.nextAttribute&1 != 0 {
		p.attrLatchLow = 0xFF
	} else {
		p.attrLatchLow = 0
	}
	if p.nextAttribute&2 != 0 {
		p.attrLatchHigh = 0xFF
	} else {
		p.attrLatchHigh = 0
	}
}

func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &= ^uint16(0x001F)
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &= ^uint16(0x7000)
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v & ^uint16(0x03E0)) | (y << 5)
}

func (p *PPU) copyHorizontal() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}

func (p *PPU) copyVertical() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}

// evaluateSprites fills secondaryOAM with up to 8 sprites visible on the
// NEXT scanline, recording each entry's original OAM index (0..63) rather
// than its slot position so sprite-0 tracking survives reordering.
func (p *PPU) evaluateSprites() {
	height := 8
	if p.ctrl&ctrlSpriteHeight != 0 {
		height = 16
	}
	target := p.scanline + 1
	found := 0
	p.statusOverflow = false
	for i := range p.oamIndices {
		p.oamIndices[i] = -1
	}
	for n := 0; n < 64; n++ {
		base := n * 4
		y := int(p.oam[base])
		if target < y+1 || target >= y+1+height {
			continue
		}
		if found < 8 {
			slot := found * 4
			copy(p.secondaryOAM[slot:slot+4], p.oam[base:base+4])
			p.oamIndices[found] = n
			found++
		} else {
			p.statusOverflow = true
			break
		}
	}
}

// fetchSprites runs dots 257..320's sprite pattern fetch for the 8 entries
// evaluateSprites produced, honoring 8x8/8x16 mode and both flip bits.
func (p *PPU) fetchSprites() {
	height := 8
	if p.ctrl&ctrlSpriteHeight != 0 {
		height = 16
	}
	for i := 0; i < 8; i++ {
		idx := p.oamIndices[i]
		unit := &p.nextSprites[i]
		unit.oamIndex = idx
		if idx < 0 {
			unit.patternLow, unit.patternHigh = 0, 0
			unit.xCounter = 0xFF
			continue
		}
		slot := i * 4
		y := int(p.secondaryOAM[slot])
		tile := p.secondaryOAM[slot+1]
		attr := p.secondaryOAM[slot+2]
		x := p.secondaryOAM[slot+3]

		row := p.scanline + 1 - (y + 1)
		flipV := attr&0x80 != 0
		flipH := attr&0x40 != 0
		if flipV {
			row = height - 1 - row
		}

		var base uint16
		var patTile = tile
		if height == 16 {
			base = uint16(tile&1) * 0x1000
			patTile = tile &^ 1
			if row >= 8 {
				patTile++
				row -= 8
			}
		} else {
			base = 0
			if p.ctrl&ctrlSpriteTable != 0 {
				base = 0x1000
			}
		}
		addr := base + uint16(patTile)*16 + uint16(row)
		low := p.readVRAM(addr)
		high := p.readVRAM(addr + 8)
		if flipH {
			low = reverseBits(low)
			high = reverseBits(high)
		}
		unit.patternLow = low
		unit.patternHigh = high
		unit.attr = attr
		unit.xCounter = x
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// renderPixel composes the background and sprite pixel at (x, scanline)
// into the frame buffer and updates sprite-0 hit.
func (p *PPU) renderPixel(x, y int) {
	if p.dot == 1 {
		p.spriteUnits = p.nextSprites
	}

	bgColor, bgOpaque := p.backgroundPixel(x)
	spColor, spOpaque, spPriority, spIsZero := p.spritePixel(x)

	for i := range p.spriteUnits {
		if p.spriteUnits[i].xCounter > 0 && p.spriteUnits[i].xCounter != 0xFF {
			p.spriteUnits[i].xCounter--
		}
	}

	if bgOpaque && spOpaque && spIsZero && x < 255 && p.dot >= 2 && p.mask&(maskShowBG|maskShowSprites) == (maskShowBG|maskShowSprites) {
		p.statusSprite0 = true
	}

	var final uint8
	switch {
	case !bgOpaque && !spOpaque:
		final = p.readPalette(0x3F00)
	case !bgOpaque:
		final = spColor
	case !spOpaque:
		final = bgColor
	case spPriority:
		final = bgColor
	default:
		final = spColor
	}
	p.frameBuffer[y*256+x] = nesColorToARGB(final)
}

func (p *PPU) backgroundPixel(x int) (uint8, bool) {
	if p.mask&maskShowBG == 0 {
		return 0, false
	}
	if x < 8 && p.mask&maskShowBGLeft == 0 {
		return 0, false
	}
	shift := uint(15 - p.x)
	bit0 := (p.bgShiftLow >> shift) & 1
	bit1 := (p.bgShiftHigh >> shift) & 1
	colorIdx := uint8((bit1 << 1) | bit0)
	attrBit0 := (p.attrShiftLow >> shift) & 1
	attrBit1 := (p.attrShiftHigh >> shift) & 1
	palette := uint8((attrBit1 << 1) | attrBit0)
	if colorIdx == 0 {
		return p.readPalette(0x3F00), false
	}
	return p.readPalette(0x3F00 + uint16(palette)*4 + uint16(colorIdx)), true
}

func (p *PPU) spritePixel(x int) (color uint8, opaque bool, priority bool, isZero bool) {
	if p.mask&maskShowSprites == 0 {
		return 0, false, false, false
	}
	if x < 8 && p.mask&maskShowSpriteLt == 0 {
		return 0, false, false, false
	}
	for i := range p.spriteUnits {
		u := &p.spriteUnits[i]
		if u.oamIndex < 0 || u.xCounter != 0 {
			continue
		}
		bit0 := (u.patternLow >> 7) & 1
		bit1 := (u.patternHigh >> 7) & 1
		colorIdx := (bit1 << 1) | bit0
		u.patternLow <<= 1
		u.patternHigh <<= 1
		if colorIdx == 0 {
			continue
		}
		palette := u.attr & 0x03
		c := p.readPalette(0x3F10 + uint16(palette)*4 + uint16(colorIdx))
		return c, true, u.attr&0x20 != 0, u.oamIndex == 0
	}
	return 0, false, false, false
}
