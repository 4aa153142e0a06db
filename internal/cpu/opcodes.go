package cpu

type opInfo struct {
	mnemonic string
	mode     Mode
}

var opcodeTable [256]opInfo

func init() {
	for i := range opcodeTable {
		opcodeTable[i] = opInfo{"NOP", Implied}
	}
	for _, jam := range []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		opcodeTable[jam] = opInfo{"JAM", Implied}
	}

	set := func(op uint8, mnemonic string, mode Mode) { opcodeTable[op] = opInfo{mnemonic, mode} }

	set(0xA9, "LDA", Immediate)
	set(0xA5, "LDA", ZeroPage)
	set(0xB5, "LDA", ZeroPageX)
	set(0xAD, "LDA", Absolute)
	set(0xBD, "LDA", AbsoluteX)
	set(0xB9, "LDA", AbsoluteY)
	set(0xA1, "LDA", IndirectX)
	set(0xB1, "LDA", IndirectY)

	set(0xA2, "LDX", Immediate)
	set(0xA6, "LDX", ZeroPage)
	set(0xB6, "LDX", ZeroPageY)
	set(0xAE, "LDX", Absolute)
	set(0xBE, "LDX", AbsoluteY)

	set(0xA0, "LDY", Immediate)
	set(0xA4, "LDY", ZeroPage)
	set(0xB4, "LDY", ZeroPageX)
	set(0xAC, "LDY", Absolute)
	set(0xBC, "LDY", AbsoluteX)

	set(0x85, "STA", ZeroPage)
	set(0x95, "STA", ZeroPageX)
	set(0x8D, "STA", Absolute)
	set(0x9D, "STA", AbsoluteX)
	set(0x99, "STA", AbsoluteY)
	set(0x81, "STA", IndirectX)
	set(0x91, "STA", IndirectY)

	set(0x86, "STX", ZeroPage)
	set(0x96, "STX", ZeroPageY)
	set(0x8E, "STX", Absolute)

	set(0x84, "STY", ZeroPage)
	set(0x94, "STY", ZeroPageX)
	set(0x8C, "STY", Absolute)

	set(0xAA, "TAX", Implied)
	set(0xA8, "TAY", Implied)
	set(0x8A, "TXA", Implied)
	set(0x98, "TYA", Implied)
	set(0xBA, "TSX", Implied)
	set(0x9A, "TXS", Implied)

	set(0x48, "PHA", Implied)
	set(0x08, "PHP", Implied)
	set(0x68, "PLA", Implied)
	set(0x28, "PLP", Implied)

	set(0x29, "AND", Immediate)
	set(0x25, "AND", ZeroPage)
	set(0x35, "AND", ZeroPageX)
	set(0x2D, "AND", Absolute)
	set(0x3D, "AND", AbsoluteX)
	set(0x39, "AND", AbsoluteY)
	set(0x21, "AND", IndirectX)
	set(0x31, "AND", IndirectY)

	set(0x09, "ORA", Immediate)
	set(0x05, "ORA", ZeroPage)
	set(0x15, "ORA", ZeroPageX)
	set(0x0D, "ORA", Absolute)
	set(0x1D, "ORA", AbsoluteX)
	set(0x19, "ORA", AbsoluteY)
	set(0x01, "ORA", IndirectX)
	set(0x11, "ORA", IndirectY)

	set(0x49, "EOR", Immediate)
	set(0x45, "EOR", ZeroPage)
	set(0x55, "EOR", ZeroPageX)
	set(0x4D, "EOR", Absolute)
	set(0x5D, "EOR", AbsoluteX)
	set(0x59, "EOR", AbsoluteY)
	set(0x41, "EOR", IndirectX)
	set(0x51, "EOR", IndirectY)

	set(0x69, "ADC", Immediate)
	set(0x65, "ADC", ZeroPage)
	set(0x75, "ADC", ZeroPageX)
	set(0x6D, "ADC", Absolute)
	set(0x7D, "ADC", AbsoluteX)
	set(0x79, "ADC", AbsoluteY)
	set(0x61, "ADC", IndirectX)
	set(0x71, "ADC", IndirectY)

	set(0xE9, "SBC", Immediate)
	set(0xE5, "SBC", ZeroPage)
	set(0xF5, "SBC", ZeroPageX)
	set(0xED, "SBC", Absolute)
	set(0xFD, "SBC", AbsoluteX)
	set(0xF9, "SBC", AbsoluteY)
	set(0xE1, "SBC", IndirectX)
	set(0xF1, "SBC", IndirectY)

	set(0xC9, "CMP", Immediate)
	set(0xC5, "CMP", ZeroPage)
	set(0xD5, "CMP", ZeroPageX)
	set(0xCD, "CMP", Absolute)
	set(0xDD, "CMP", AbsoluteX)
	set(0xD9, "CMP", AbsoluteY)
	set(0xC1, "CMP", IndirectX)
	set(0xD1, "CMP", IndirectY)

	set(0xE0, "CPX", Immediate)
	set(0xE4, "CPX", ZeroPage)
	set(0xEC, "CPX", Absolute)

	set(0xC0, "CPY", Immediate)
	set(0xC4, "CPY", ZeroPage)
	set(0xCC, "CPY", Absolute)

	set(0x24, "BIT", ZeroPage)
	set(0x2C, "BIT", Absolute)

	set(0xE6, "INC", ZeroPage)
	set(0xF6, "INC", ZeroPageX)
	set(0xEE, "INC", Absolute)
	set(0xFE, "INC", AbsoluteX)
	set(0xE8, "INX", Implied)
	set(0xC8, "INY", Implied)

	set(0xC6, "DEC", ZeroPage)
	set(0xD6, "DEC", ZeroPageX)
	set(0xCE, "DEC", Absolute)
	set(0xDE, "DEC", AbsoluteX)
	set(0xCA, "DEX", Implied)
	set(0x88, "DEY", Implied)

	set(0x0A, "ASL", Accumulator)
	set(0x06, "ASL", ZeroPage)
	set(0x16, "ASL", ZeroPageX)
	set(0x0E, "ASL", Absolute)
	set(0x1E, "ASL", AbsoluteX)

	set(0x4A, "LSR", Accumulator)
	set(0x46, "LSR", ZeroPage)
	set(0x56, "LSR", ZeroPageX)
	set(0x4E, "LSR", Absolute)
	set(0x5E, "LSR", AbsoluteX)

	set(0x2A, "ROL", Accumulator)
	set(0x26, "ROL", ZeroPage)
	set(0x36, "ROL", ZeroPageX)
	set(0x2E, "ROL", Absolute)
	set(0x3E, "ROL", AbsoluteX)

	set(0x6A, "ROR", Accumulator)
	set(0x66, "ROR", ZeroPage)
	set(0x76, "ROR", ZeroPageX)
	set(0x6E, "ROR", Absolute)
	set(0x7E, "ROR", AbsoluteX)

	set(0x4C, "JMP", Absolute)
	set(0x6C, "JMP", Indirect)
	set(0x20, "JSR", Absolute)
	set(0x60, "RTS", Implied)
	set(0x40, "RTI", Implied)
	set(0x00, "BRK", Implied)

	set(0x90, "BCC", Relative)
	set(0xB0, "BCS", Relative)
	set(0xF0, "BEQ", Relative)
	set(0xD0, "BNE", Relative)
	set(0x30, "BMI", Relative)
	set(0x10, "BPL", Relative)
	set(0x50, "BVC", Relative)
	set(0x70, "BVS", Relative)

	set(0x18, "CLC", Implied)
	set(0x38, "SEC", Implied)
	set(0x58, "CLI", Implied)
	set(0x78, "SEI", Implied)
	set(0xD8, "CLD", Implied)
	set(0xF8, "SED", Implied)
	set(0xB8, "CLV", Implied)
	set(0xEA, "NOP", Implied)

	// Unofficial opcodes. The 1-byte/2-cycle implied NOPs (0x1A, 0x3A, 0x5A,
	// 0x7A, 0xDA, 0xFA) are left at the table's {"NOP", Implied} default set
	// by the zeroing loop above; only the variants that consume operand
	// bytes need an explicit entry.
	set(0x80, "NOP", Immediate)
	set(0x82, "NOP", Immediate)
	set(0x89, "NOP", Immediate)
	set(0xC2, "NOP", Immediate)
	set(0xE2, "NOP", Immediate)
	set(0x04, "NOP", ZeroPage)
	set(0x44, "NOP", ZeroPage)
	set(0x64, "NOP", ZeroPage)
	set(0x14, "NOP", ZeroPageX)
	set(0x34, "NOP", ZeroPageX)
	set(0x54, "NOP", ZeroPageX)
	set(0x74, "NOP", ZeroPageX)
	set(0xD4, "NOP", ZeroPageX)
	set(0xF4, "NOP", ZeroPageX)
	set(0x0C, "NOP", Absolute)
	set(0x1C, "NOP", AbsoluteX)
	set(0x3C, "NOP", AbsoluteX)
	set(0x5C, "NOP", AbsoluteX)
	set(0x7C, "NOP", AbsoluteX)
	set(0xDC, "NOP", AbsoluteX)
	set(0xFC, "NOP", AbsoluteX)

	// Unofficial SBC: behaviorally identical to the official 0xE9.
	set(0xEB, "SBC", Immediate)

	set(0xA7, "LAX", ZeroPage)
	set(0xB7, "LAX", ZeroPageY)
	set(0xAF, "LAX", Absolute)
	set(0xBF, "LAX", AbsoluteY)
	set(0xA3, "LAX", IndirectX)
	set(0xB3, "LAX", IndirectY)

	set(0x87, "SAX", ZeroPage)
	set(0x97, "SAX", ZeroPageY)
	set(0x8F, "SAX", Absolute)
	set(0x83, "SAX", IndirectX)

	set(0xC7, "DCP", ZeroPage)
	set(0xD7, "DCP", ZeroPageX)
	set(0xCF, "DCP", Absolute)
	set(0xDF, "DCP", AbsoluteX)
	set(0xDB, "DCP", AbsoluteY)
	set(0xC3, "DCP", IndirectX)
	set(0xD3, "DCP", IndirectY)

	set(0xE7, "ISB", ZeroPage)
	set(0xF7, "ISB", ZeroPageX)
	set(0xEF, "ISB", Absolute)
	set(0xFF, "ISB", AbsoluteX)
	set(0xFB, "ISB", AbsoluteY)
	set(0xE3, "ISB", IndirectX)
	set(0xF3, "ISB", IndirectY)

	set(0x07, "SLO", ZeroPage)
	set(0x17, "SLO", ZeroPageX)
	set(0x0F, "SLO", Absolute)
	set(0x1F, "SLO", AbsoluteX)
	set(0x1B, "SLO", AbsoluteY)
	set(0x03, "SLO", IndirectX)
	set(0x13, "SLO", IndirectY)

	set(0x27, "RLA", ZeroPage)
	set(0x37, "RLA", ZeroPageX)
	set(0x2F, "RLA", Absolute)
	set(0x3F, "RLA", AbsoluteX)
	set(0x3B, "RLA", AbsoluteY)
	set(0x23, "RLA", IndirectX)
	set(0x33, "RLA", IndirectY)

	set(0x47, "SRE", ZeroPage)
	set(0x57, "SRE", ZeroPageX)
	set(0x4F, "SRE", Absolute)
	set(0x5F, "SRE", AbsoluteX)
	set(0x5B, "SRE", AbsoluteY)
	set(0x43, "SRE", IndirectX)
	set(0x53, "SRE", IndirectY)

	set(0x67, "RRA", ZeroPage)
	set(0x77, "RRA", ZeroPageX)
	set(0x6F, "RRA", Absolute)
	set(0x7F, "RRA", AbsoluteX)
	set(0x7B, "RRA", AbsoluteY)
	set(0x63, "RRA", IndirectX)
	set(0x73, "RRA", IndirectY)
}

type opClass uint8

const (
	classRead opClass = iota
	classWrite
	classRMW
)

func classify(mnemonic string) opClass {
	switch mnemonic {
	case "STA", "STX", "STY", "SAX":
		return classWrite
	case "ASL", "LSR", "ROL", "ROR", "INC", "DEC",
		"SLO", "RLA", "SRE", "RRA", "DCP", "ISB":
		return classRMW
	default:
		return classRead
	}
}

func (c *CPU) storeValue(mnemonic string) uint8 {
	switch mnemonic {
	case "STA":
		return c.A
	case "STX":
		return c.X
	case "STY":
		return c.Y
	case "SAX":
		return c.A & c.X
	}
	return 0
}

// executeRead applies the effect of a read-class instruction once its
// memory operand has been fetched.
func (c *CPU) executeRead(mnemonic string, value uint8) {
	switch mnemonic {
	case "LDA":
		c.A = value
		c.setZN(c.A)
	case "LDX":
		c.X = value
		c.setZN(c.X)
	case "LDY":
		c.Y = value
		c.setZN(c.Y)
	case "AND":
		c.A &= value
		c.setZN(c.A)
	case "ORA":
		c.A |= value
		c.setZN(c.A)
	case "EOR":
		c.A ^= value
		c.setZN(c.A)
	case "ADC":
		c.adc(value)
	case "SBC":
		c.adc(value ^ 0xFF)
	case "CMP":
		c.compare(c.A, value)
	case "CPX":
		c.compare(c.X, value)
	case "CPY":
		c.compare(c.Y, value)
	case "BIT":
		result := c.A & value
		if result == 0 {
			c.P |= FlagZero
		} else {
			c.P &^= FlagZero
		}
		c.P = (c.P &^ (FlagOverflow | FlagNegative)) | (value & (FlagOverflow | FlagNegative))
	case "LAX":
		c.A = value
		c.X = value
		c.setZN(c.A)
	}
}

// adc implements both ADC and SBC (SBC passes the operand's complement).
func (c *CPU) adc(value uint8) {
	carryIn := uint16(0)
	if c.P&FlagCarry != 0 {
		carryIn = 1
	}
	sum := uint16(c.A) + uint16(value) + carryIn
	if sum > 0xFF {
		c.P |= FlagCarry
	} else {
		c.P &^= FlagCarry
	}
	overflow := (^(uint16(c.A) ^ uint16(value)) & (uint16(c.A) ^ sum) & 0x80) != 0
	if overflow {
		c.P |= FlagOverflow
	} else {
		c.P &^= FlagOverflow
	}
	c.A = uint8(sum)
	c.setZN(c.A)
}

func (c *CPU) compare(reg, value uint8) {
	result := reg - value
	if reg >= value {
		c.P |= FlagCarry
	} else {
		c.P &^= FlagCarry
	}
	c.setZN(result)
}

// rmwCompute applies a read-modify-write instruction's effect and returns
// the new byte to write back (or, for Accumulator mode, to store into A).
func (c *CPU) rmwCompute(mnemonic string, value uint8) uint8 {
	switch mnemonic {
	case "ASL":
		if value&0x80 != 0 {
			c.P |= FlagCarry
		} else {
			c.P &^= FlagCarry
		}
		value <<= 1
	case "LSR":
		if value&0x01 != 0 {
			c.P |= FlagCarry
		} else {
			c.P &^= FlagCarry
		}
		value >>= 1
	case "ROL":
		carryIn := value & 0x80
		value <<= 1
		if c.P&FlagCarry != 0 {
			value |= 0x01
		}
		if carryIn != 0 {
			c.P |= FlagCarry
		} else {
			c.P &^= FlagCarry
		}
	case "ROR":
		carryIn := value & 0x01
		value >>= 1
		if c.P&FlagCarry != 0 {
			value |= 0x80
		}
		if carryIn != 0 {
			c.P |= FlagCarry
		} else {
			c.P &^= FlagCarry
		}
	case "INC":
		value++
	case "DEC":
		value--
	case "SLO":
		if value&0x80 != 0 {
			c.P |= FlagCarry
		} else {
			c.P &^= FlagCarry
		}
		value <<= 1
		c.A |= value
		c.setZN(c.A)
		return value
	case "RLA":
		carryIn := value & 0x80
		value <<= 1
		if c.P&FlagCarry != 0 {
			value |= 0x01
		}
		if carryIn != 0 {
			c.P |= FlagCarry
		} else {
			c.P &^= FlagCarry
		}
		c.A &= value
		c.setZN(c.A)
		return value
	case "SRE":
		if value&0x01 != 0 {
			c.P |= FlagCarry
		} else {
			c.P &^= FlagCarry
		}
		value >>= 1
		c.A ^= value
		c.setZN(c.A)
		return value
	case "RRA":
		carryIn := value & 0x01
		value >>= 1
		if c.P&FlagCarry != 0 {
			value |= 0x80
		}
		if carryIn != 0 {
			c.P |= FlagCarry
		} else {
			c.P &^= FlagCarry
		}
		c.adc(value)
		return value
	case "DCP":
		value--
		c.compare(c.A, value)
		return value
	case "ISB":
		value++
		c.adc(value ^ 0xFF)
		return value
	}
	c.setZN(value)
	return value
}

func (c *CPU) executeImplied(mnemonic string) {
	switch mnemonic {
	case "TAX":
		c.X = c.A
		c.setZN(c.X)
	case "TAY":
		c.Y = c.A
		c.setZN(c.Y)
	case "TXA":
		c.A = c.X
		c.setZN(c.A)
	case "TYA":
		c.A = c.Y
		c.setZN(c.A)
	case "TSX":
		c.X = c.SP
		c.setZN(c.X)
	case "TXS":
		c.SP = c.X
	case "INX":
		c.X++
		c.setZN(c.X)
	case "INY":
		c.Y++
		c.setZN(c.Y)
	case "DEX":
		c.X--
		c.setZN(c.X)
	case "DEY":
		c.Y--
		c.setZN(c.Y)
	case "CLC":
		c.P &^= FlagCarry
	case "SEC":
		c.P |= FlagCarry
	case "CLI":
		c.P &^= FlagInterruptDisable
	case "SEI":
		c.P |= FlagInterruptDisable
	case "CLD":
		c.P &^= FlagDecimal
	case "SED":
		c.P |= FlagDecimal
	case "CLV":
		c.P &^= FlagOverflow
	case "NOP":
	}
}
