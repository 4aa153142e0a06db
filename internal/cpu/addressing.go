package cpu

// Mode names a 6502 addressing mode.
type Mode uint8

const (
	Implied Mode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Absolute
	AbsoluteX
	AbsoluteY
	IndirectX
	IndirectY
	Indirect
	Relative
)

// scheduleInstruction builds the microstep queue for the cycles following
// opcode fetch. The opcode byte has already advanced PC.
func (c *CPU) scheduleInstruction(opcode uint8) {
	info := opcodeTable[opcode]
	c.queue = nil
	c.qPos = 0

	switch info.mnemonic {
	case "JAM":
		c.halted = true
		return
	case "BRK":
		c.scheduleBRK()
		return
	case "JSR":
		c.scheduleJSR()
		return
	case "RTS":
		c.scheduleRTS()
		return
	case "RTI":
		c.scheduleRTI()
		return
	case "JMP":
		if info.mode == Indirect {
			c.scheduleJMPIndirect()
		} else {
			c.scheduleJMPAbsolute()
		}
		return
	case "PHA", "PHP", "PLA", "PLP":
		c.scheduleStackOp(info.mnemonic)
		return
	}

	if isBranch(info.mnemonic) {
		c.scheduleBranch(info.mnemonic)
		return
	}

	if info.mode == Implied {
		c.scheduleImplied(info.mnemonic)
		return
	}
	if info.mode == Accumulator {
		c.scheduleAccumulator(info.mnemonic)
		return
	}
	if info.mode == Immediate {
		c.scheduleImmediate(info.mnemonic)
		return
	}

	switch classify(info.mnemonic) {
	case classRMW:
		c.scheduleRMW(info.mode, info.mnemonic)
	case classWrite:
		c.scheduleWrite(info.mode, info.mnemonic)
	default:
		c.scheduleRead(info.mode, info.mnemonic)
	}
}

func (c *CPU) indexFor(mode Mode) uint8 {
	switch mode {
	case ZeroPageX, AbsoluteX, IndirectX:
		return c.X
	default:
		return c.Y
	}
}

func (c *CPU) scheduleImplied(mnemonic string) {
	c.queue = []microStep{
		func(c *CPU) {
			c.mem.Read(c.PC)
			c.executeImplied(mnemonic)
		},
	}
}

func (c *CPU) scheduleAccumulator(mnemonic string) {
	c.queue = []microStep{
		func(c *CPU) {
			c.mem.Read(c.PC)
			c.A = c.rmwCompute(mnemonic, c.A)
		},
	}
}

func (c *CPU) scheduleImmediate(mnemonic string) {
	c.queue = []microStep{
		func(c *CPU) {
			c.operand = c.mem.Read(c.PC)
			c.PC++
			c.executeRead(mnemonic, c.operand)
		},
	}
}

// scheduleRead builds a queue for an instruction that only reads a memory
// operand (LDA/AND/ADC/CMP/BIT/...).
func (c *CPU) scheduleRead(mode Mode, mnemonic string) {
	switch mode {
	case ZeroPage:
		c.queue = []microStep{
			func(c *CPU) { c.addr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.executeRead(mnemonic, c.mem.Read(c.addr)) },
		}
	case ZeroPageX, ZeroPageY:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				c.mem.Read(c.baseAddr)
				c.addr = uint16(uint8(c.baseAddr) + c.indexFor(mode))
			},
			func(c *CPU) { c.executeRead(mnemonic, c.mem.Read(c.addr)) },
		}
	case Absolute:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				hi := uint16(c.mem.Read(c.PC))
				c.PC++
				c.addr = c.baseAddr | hi<<8
			},
			func(c *CPU) { c.executeRead(mnemonic, c.mem.Read(c.addr)) },
		}
	case AbsoluteX, AbsoluteY:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				hi := uint16(c.mem.Read(c.PC))
				c.PC++
				c.baseAddr |= hi << 8
				c.addr = c.baseAddr + uint16(c.indexFor(mode))
			},
			func(c *CPU) {
				wrong := (c.baseAddr & 0xFF00) | (c.addr & 0x00FF)
				c.mem.Read(wrong)
			},
			func(c *CPU) { c.executeRead(mnemonic, c.mem.Read(c.addr)) },
		}
	case IndirectX:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.mem.Read(c.baseAddr) },
			func(c *CPU) {
				ptr := uint8(c.baseAddr) + c.X
				c.pointerAddr = uint16(c.mem.Read(uint16(ptr)))
				c.baseAddr = uint16(ptr)
			},
			func(c *CPU) {
				hi := uint16(c.mem.Read(uint16(uint8(c.baseAddr) + 1)))
				c.addr = c.pointerAddr | hi<<8
			},
			func(c *CPU) { c.executeRead(mnemonic, c.mem.Read(c.addr)) },
		}
	case IndirectY:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.pointerAddr = uint16(c.mem.Read(c.baseAddr)) },
			func(c *CPU) {
				hi := uint16(c.mem.Read(uint16(uint8(c.baseAddr) + 1)))
				c.baseAddr = c.pointerAddr | hi<<8
				c.addr = c.baseAddr + uint16(c.Y)
			},
			func(c *CPU) {
				wrong := (c.baseAddr & 0xFF00) | (c.addr & 0x00FF)
				c.mem.Read(wrong)
			},
			func(c *CPU) { c.executeRead(mnemonic, c.mem.Read(c.addr)) },
		}
	}
}

func (c *CPU) scheduleWrite(mode Mode, mnemonic string) {
	switch mode {
	case ZeroPage:
		c.queue = []microStep{
			func(c *CPU) { c.addr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.mem.Write(c.addr, c.storeValue(mnemonic)) },
		}
	case ZeroPageX, ZeroPageY:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				c.mem.Read(c.baseAddr)
				c.addr = uint16(uint8(c.baseAddr) + c.indexFor(mode))
			},
			func(c *CPU) { c.mem.Write(c.addr, c.storeValue(mnemonic)) },
		}
	case Absolute:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				hi := uint16(c.mem.Read(c.PC))
				c.PC++
				c.addr = c.baseAddr | hi<<8
			},
			func(c *CPU) { c.mem.Write(c.addr, c.storeValue(mnemonic)) },
		}
	case AbsoluteX, AbsoluteY:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				hi := uint16(c.mem.Read(c.PC))
				c.PC++
				c.baseAddr |= hi << 8
				c.addr = c.baseAddr + uint16(c.indexFor(mode))
			},
			func(c *CPU) {
				wrong := (c.baseAddr & 0xFF00) | (c.addr & 0x00FF)
				c.mem.Read(wrong)
			},
			func(c *CPU) { c.mem.Write(c.addr, c.storeValue(mnemonic)) },
		}
	case IndirectX:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.mem.Read(c.baseAddr) },
			func(c *CPU) {
				ptr := uint8(c.baseAddr) + c.X
				c.pointerAddr = uint16(c.mem.Read(uint16(ptr)))
				c.baseAddr = uint16(ptr)
			},
			func(c *CPU) {
				hi := uint16(c.mem.Read(uint16(uint8(c.baseAddr) + 1)))
				c.addr = c.pointerAddr | hi<<8
			},
			func(c *CPU) { c.mem.Write(c.addr, c.storeValue(mnemonic)) },
		}
	case IndirectY:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.pointerAddr = uint16(c.mem.Read(c.baseAddr)) },
			func(c *CPU) {
				hi := uint16(c.mem.Read(uint16(uint8(c.baseAddr) + 1)))
				c.baseAddr = c.pointerAddr | hi<<8
				c.addr = c.baseAddr + uint16(c.Y)
			},
			func(c *CPU) {
				wrong := (c.baseAddr & 0xFF00) | (c.addr & 0x00FF)
				c.mem.Read(wrong)
			},
			func(c *CPU) { c.mem.Write(c.addr, c.storeValue(mnemonic)) },
		}
	}
}

func (c *CPU) scheduleRMW(mode Mode, mnemonic string) {
	switch mode {
	case ZeroPage:
		c.queue = []microStep{
			func(c *CPU) { c.addr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.operand = c.mem.Read(c.addr) },
			func(c *CPU) { c.mem.Write(c.addr, c.operand) },
			func(c *CPU) { c.mem.Write(c.addr, c.rmwCompute(mnemonic, c.operand)) },
		}
	case ZeroPageX:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				c.mem.Read(c.baseAddr)
				c.addr = uint16(uint8(c.baseAddr) + c.X)
			},
			func(c *CPU) { c.operand = c.mem.Read(c.addr) },
			func(c *CPU) { c.mem.Write(c.addr, c.operand) },
			func(c *CPU) { c.mem.Write(c.addr, c.rmwCompute(mnemonic, c.operand)) },
		}
	case Absolute:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				hi := uint16(c.mem.Read(c.PC))
				c.PC++
				c.addr = c.baseAddr | hi<<8
			},
			func(c *CPU) { c.operand = c.mem.Read(c.addr) },
			func(c *CPU) { c.mem.Write(c.addr, c.operand) },
			func(c *CPU) { c.mem.Write(c.addr, c.rmwCompute(mnemonic, c.operand)) },
		}
	case AbsoluteX:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				hi := uint16(c.mem.Read(c.PC))
				c.PC++
				c.baseAddr |= hi << 8
				c.addr = c.baseAddr + uint16(c.X)
			},
			func(c *CPU) {
				wrong := (c.baseAddr & 0xFF00) | (c.addr & 0x00FF)
				c.mem.Read(wrong)
			},
			func(c *CPU) { c.operand = c.mem.Read(c.addr) },
			func(c *CPU) { c.mem.Write(c.addr, c.operand) },
			func(c *CPU) { c.mem.Write(c.addr, c.rmwCompute(mnemonic, c.operand)) },
		}
	// AbsoluteY/IndirectX/IndirectY RMW only occur among the illegal
	// opcodes (DCP/ISB/SLO/RLA/SRE/RRA); as with the indexed read-class
	// modes in this file, RMW addressing never skips the fixup cycle on a
	// page cross, since the write-back happens regardless.
	case AbsoluteY:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) {
				hi := uint16(c.mem.Read(c.PC))
				c.PC++
				c.baseAddr |= hi << 8
				c.addr = c.baseAddr + uint16(c.Y)
			},
			func(c *CPU) {
				wrong := (c.baseAddr & 0xFF00) | (c.addr & 0x00FF)
				c.mem.Read(wrong)
			},
			func(c *CPU) { c.operand = c.mem.Read(c.addr) },
			func(c *CPU) { c.mem.Write(c.addr, c.operand) },
			func(c *CPU) { c.mem.Write(c.addr, c.rmwCompute(mnemonic, c.operand)) },
		}
	case IndirectX:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.mem.Read(c.baseAddr) },
			func(c *CPU) {
				ptr := uint8(c.baseAddr) + c.X
				c.pointerAddr = uint16(c.mem.Read(uint16(ptr)))
				c.baseAddr = uint16(ptr)
			},
			func(c *CPU) {
				hi := uint16(c.mem.Read(uint16(uint8(c.baseAddr) + 1)))
				c.addr = c.pointerAddr | hi<<8
			},
			func(c *CPU) { c.operand = c.mem.Read(c.addr) },
			func(c *CPU) { c.mem.Write(c.addr, c.operand) },
			func(c *CPU) { c.mem.Write(c.addr, c.rmwCompute(mnemonic, c.operand)) },
		}
	case IndirectY:
		c.queue = []microStep{
			func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.pointerAddr = uint16(c.mem.Read(c.baseAddr)) },
			func(c *CPU) {
				hi := uint16(c.mem.Read(uint16(uint8(c.baseAddr) + 1)))
				c.baseAddr = c.pointerAddr | hi<<8
				c.addr = c.baseAddr + uint16(c.Y)
			},
			func(c *CPU) {
				wrong := (c.baseAddr & 0xFF00) | (c.addr & 0x00FF)
				c.mem.Read(wrong)
			},
			func(c *CPU) { c.operand = c.mem.Read(c.addr) },
			func(c *CPU) { c.mem.Write(c.addr, c.operand) },
			func(c *CPU) { c.mem.Write(c.addr, c.rmwCompute(mnemonic, c.operand)) },
		}
	}
}

func (c *CPU) scheduleJMPAbsolute() {
	c.queue = []microStep{
		func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
		func(c *CPU) {
			hi := uint16(c.mem.Read(c.PC))
			c.PC = c.baseAddr | hi<<8
		},
	}
}

func (c *CPU) scheduleJMPIndirect() {
	c.queue = []microStep{
		func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
		func(c *CPU) {
			hi := uint16(c.mem.Read(c.PC))
			c.PC++
			c.pointerAddr = c.baseAddr | hi<<8
		},
		func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.pointerAddr)) },
		func(c *CPU) {
			// page-wrap bug: high byte is fetched from the same page as
			// the pointer if the low byte of the pointer is 0xFF.
			hiAddr := (c.pointerAddr & 0xFF00) | ((c.pointerAddr + 1) & 0x00FF)
			hi := uint16(c.mem.Read(hiAddr))
			c.PC = c.baseAddr | hi<<8
		},
	}
}

func (c *CPU) scheduleJSR() {
	c.queue = []microStep{
		func(c *CPU) { c.baseAddr = uint16(c.mem.Read(c.PC)); c.PC++ },
		func(c *CPU) { c.mem.Read(stackBase + uint16(c.SP)) },
		func(c *CPU) { c.push(uint8(c.PC >> 8)) },
		func(c *CPU) { c.push(uint8(c.PC)) },
		func(c *CPU) {
			hi := uint16(c.mem.Read(c.PC))
			c.PC = c.baseAddr | hi<<8
		},
	}
}

func (c *CPU) scheduleRTS() {
	c.queue = []microStep{
		func(c *CPU) { c.mem.Read(c.PC) },
		func(c *CPU) { c.mem.Read(stackBase + uint16(c.SP)) },
		func(c *CPU) { c.baseAddr = uint16(c.pop()) },
		func(c *CPU) {
			hi := uint16(c.pop())
			c.PC = c.baseAddr | hi<<8
		},
		func(c *CPU) { c.PC++ },
	}
}

func (c *CPU) scheduleRTI() {
	c.queue = []microStep{
		func(c *CPU) { c.mem.Read(c.PC) },
		func(c *CPU) { c.mem.Read(stackBase + uint16(c.SP)) },
		func(c *CPU) { c.P = (c.pop() &^ FlagBreak) | FlagUnused },
		func(c *CPU) { c.baseAddr = uint16(c.pop()) },
		func(c *CPU) {
			hi := uint16(c.pop())
			c.PC = c.baseAddr | hi<<8
		},
	}
}

func (c *CPU) scheduleBRK() {
	c.queue = []microStep{
		func(c *CPU) { c.mem.Read(c.PC); c.PC++ }, // padding byte, discarded
		func(c *CPU) { c.push(uint8(c.PC >> 8)) },
		func(c *CPU) { c.push(uint8(c.PC)) },
		func(c *CPU) { c.push(c.P | FlagUnused | FlagBreak); c.P |= FlagInterruptDisable },
		func(c *CPU) { c.baseAddr = uint16(c.mem.Read(vectorIRQ)) },
		func(c *CPU) {
			hi := uint16(c.mem.Read(vectorIRQ + 1))
			c.PC = c.baseAddr | hi<<8
		},
	}
}

func (c *CPU) scheduleStackOp(mnemonic string) {
	switch mnemonic {
	case "PHA":
		c.queue = []microStep{
			func(c *CPU) { c.mem.Read(c.PC) },
			func(c *CPU) { c.push(c.A) },
		}
	case "PHP":
		c.queue = []microStep{
			func(c *CPU) { c.mem.Read(c.PC) },
			func(c *CPU) { c.push(c.P | FlagUnused | FlagBreak) },
		}
	case "PLA":
		c.queue = []microStep{
			func(c *CPU) { c.mem.Read(c.PC) },
			func(c *CPU) { c.mem.Read(stackBase + uint16(c.SP)) },
			func(c *CPU) { c.A = c.pop(); c.setZN(c.A) },
		}
	case "PLP":
		c.queue = []microStep{
			func(c *CPU) { c.mem.Read(c.PC) },
			func(c *CPU) { c.mem.Read(stackBase + uint16(c.SP)) },
			func(c *CPU) { c.P = (c.pop() &^ FlagBreak) | FlagUnused },
		}
	}
}

func isBranch(mnemonic string) bool {
	switch mnemonic {
	case "BCC", "BCS", "BEQ", "BNE", "BMI", "BPL", "BVC", "BVS":
		return true
	}
	return false
}

func (c *CPU) branchCondition(mnemonic string) bool {
	switch mnemonic {
	case "BCC":
		return c.P&FlagCarry == 0
	case "BCS":
		return c.P&FlagCarry != 0
	case "BEQ":
		return c.P&FlagZero != 0
	case "BNE":
		return c.P&FlagZero == 0
	case "BMI":
		return c.P&FlagNegative != 0
	case "BPL":
		return c.P&FlagNegative == 0
	case "BVC":
		return c.P&FlagOverflow == 0
	case "BVS":
		return c.P&FlagOverflow != 0
	}
	return false
}

// scheduleBranch's single scheduled step decides, at run time, whether to
// append the extra taken/page-cross cycles -- the branch outcome and the
// page boundary aren't known until the offset byte and flag are in hand.
func (c *CPU) scheduleBranch(mnemonic string) {
	c.queue = []microStep{
		func(c *CPU) {
			offset := int8(c.mem.Read(c.PC))
			c.PC++
			if !c.branchCondition(mnemonic) {
				return
			}
			oldPC := c.PC
			newPC := uint16(int32(oldPC) + int32(offset))
			c.queue = append(c.queue, func(c *CPU) {
				c.mem.Read(oldPC)
				if (oldPC & 0xFF00) != (newPC & 0xFF00) {
					c.queue = append(c.queue, func(c *CPU) {
						c.mem.Read((oldPC & 0xFF00) | (newPC & 0x00FF))
						c.PC = newPC
					})
				} else {
					c.PC = newPC
				}
			})
		},
	}
}
