// opcodes_0f.go - the 0x0F-prefixed opcode map: Jcc/SETcc/CMOVcc near
// forms, the bit-test group, and the handful of supplemental system
// opcodes (CPUID, RDMSR, WRMSR, SYSCALL, multi-byte NOP, Group7's
// LGDT/LIDT) original_source's decoder.rs accepts that spec.md's
// distillation didn't spell out.
package decode

func (d *Decoder) decodeTwoByte(c *cursor, p prefixState) *Instruction {
	width := operandSize(p, 32)
	op := c.u8()

	switch {
	case op >= 0x80 && op <= 0x8F:
		rel := int64(c.i32())
		return &Instruction{Kind: KindJcc, SubOp: op - 0x80, Op1: immOperand(rel)}
	case op >= 0x90 && op <= 0x9F:
		m := c.readModRM()
		rm := rmOperand(c, m, p, 8)
		return &Instruction{Kind: KindSetcc, SubOp: op - 0x90, Op1: rm}
	case op >= 0x40 && op <= 0x4F:
		m := c.readModRM()
		rm := rmOperand(c, m, p, width)
		reg := regFieldOperand(m, p, width)
		return &Instruction{Kind: KindCmov, SubOp: op - 0x40, Size: width, Op1: reg, Op2: rm}
	}

	switch op {
	case 0x01: // Group7: SGDT/SIDT/LGDT/LIDT/SMSW/LMSW/INVLPG by ModRM.reg
		m := c.readModRM()
		mem := effectiveAddress(c, m, p)
		switch m.reg {
		case 2:
			return &Instruction{Kind: KindDescriptorLoad, SubOp: 0, Op1: mem}
		case 3:
			return &Instruction{Kind: KindDescriptorLoad, SubOp: 1, Op1: mem}
		default:
			return &Instruction{Kind: KindNop}
		}
	case 0x05:
		return &Instruction{Kind: KindSyscall}
	case 0x1F: // multi-byte NOP: still has a ModRM (and possibly SIB/disp)
		// that must be consumed to keep RIP advancing correctly.
		m := c.readModRM()
		effectiveAddress(c, m, p)
		return &Instruction{Kind: KindNop}
	case 0x30:
		return &Instruction{Kind: KindWrmsr}
	case 0x31: // RDTSC: not in spec.md's instruction set. It decodes to
		// KindInvalid, which the executor reports as an invalid-opcode
		// error, the same as any unrecognized byte.
		return &Instruction{Kind: KindInvalid}
	case 0x32:
		return &Instruction{Kind: KindRdmsr}
	case 0xA2:
		return &Instruction{Kind: KindCpuid}
	case 0xA3, 0xAB, 0xB3, 0xBB: // BT/BTS/BTR/BTC Ev, Gv
		sub := map[byte]byte{0xA3: 0, 0xAB: 1, 0xB3: 2, 0xBB: 3}[op]
		m := c.readModRM()
		rm := rmOperand(c, m, p, width)
		reg := regFieldOperand(m, p, width)
		return &Instruction{Kind: KindBitTest, SubOp: sub, Size: width, Op1: rm, Op2: reg}
	case 0xAF: // IMUL Gv, Ev (two-operand form)
		m := c.readModRM()
		rm := rmOperand(c, m, p, width)
		reg := regFieldOperand(m, p, width)
		return &Instruction{Kind: KindImul, Size: width, Op1: reg, Op2: rm}
	case 0xB0, 0xB1: // CMPXCHG Eb/Ev, Gb/Gv
		w := width
		if op == 0xB0 {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		reg := regFieldOperand(m, p, w)
		return &Instruction{Kind: KindCmpxchg, Size: w, Op1: rm, Op2: reg}
	case 0xBA: // Group8: BT/BTS/BTR/BTC Ev, Ib
		m := c.readModRM()
		rm := rmOperand(c, m, p, width)
		imm := immOperand(int64(c.u8()))
		return &Instruction{Kind: KindBitTest, SubOp: m.reg - 4, Size: width, Op1: rm, Op2: imm}
	case 0xB6, 0xB7: // MOVZX Gv, Eb/Ew
		srcWidth := byte(8)
		if op == 0xB7 {
			srcWidth = 16
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, int(srcWidth))
		reg := regFieldOperand(m, p, width)
		return &Instruction{Kind: KindMovzx, SubOp: srcWidth, Size: width, Op1: reg, Op2: rm}
	case 0xBE, 0xBF: // MOVSX Gv, Eb/Ew
		srcWidth := byte(8)
		if op == 0xBF {
			srcWidth = 16
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, int(srcWidth))
		reg := regFieldOperand(m, p, width)
		return &Instruction{Kind: KindMovsx, SubOp: srcWidth, Size: width, Op1: reg, Op2: rm}
	}
	return nil
}
