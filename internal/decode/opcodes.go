// opcodes.go - the one-byte opcode map (the 0F-prefixed map is in
// opcodes_0f.go).
//
// Row-coded ALU opcodes (0x00-0x3D) and the Group1 immediate forms
// (0x80/0x81/0x83) both resolve to KindArithmetic with SubOp set to the
// ADD..CMP selector, mirroring how cpu_x86_grp.go's opGrp1_* functions
// reuse the same reg-field encoding the row-coded opcodes use. Group2
// (shift/rotate), Group3 (test/not/neg/mul/imul/div/idiv) and Group5
// (inc/dec/call/jmp/push) follow the same pattern.
package decode

import "x86emu/internal/machine"

func (d *Decoder) decodeOneByte(c *cursor, p prefixState, op byte) *Instruction {
	width := operandSize(p, 32)

	// Row-coded arithmetic: add/or/adc/sbb/and/sub/xor/cmp, 8 rows of 6
	// opcodes each (Eb,Gb / Ev,Gv / Gb,Eb / Gv,Ev / AL,Ib / eAX,Iz).
	if op < 0x40 && op&0x07 <= 5 {
		sub := byte(op >> 3)
		if sub <= 7 {
			return decodeArithRow(c, p, op, sub, width)
		}
	}

	switch op {
	case 0x90:
		if p.rep {
			return &Instruction{Kind: KindNop} // PAUSE, treated as NOP
		}
		return &Instruction{Kind: KindNop}
	case 0x91, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97:
		reg := int(op-0x90) | boolBit(p.rexB, 0x8)
		return &Instruction{Kind: KindXchg, Size: width,
			Op1: regOperand(machine.GPRegister(0, width, p.rex)),
			Op2: regOperand(machine.GPRegister(reg, width, p.rex))}
	case 0x98:
		return &Instruction{Kind: KindSignExtendAcc, Size: width}
	case 0x99:
		return &Instruction{Kind: KindSignExtendPair, Size: width}
	case 0x9C:
		return &Instruction{Kind: KindPushf}
	case 0x9D:
		return &Instruction{Kind: KindPopf}

	case 0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57:
		reg := int(op-0x50) | boolBit(p.rexB, 0x8)
		return &Instruction{Kind: KindPush, Size: 64, Op1: regOperand(machine.GPRegister(reg, 64, p.rex))}
	case 0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F:
		reg := int(op-0x58) | boolBit(p.rexB, 0x8)
		return &Instruction{Kind: KindPop, Size: 64, Op1: regOperand(machine.GPRegister(reg, 64, p.rex))}
	case 0x68:
		return &Instruction{Kind: KindPush, Size: 64, Op1: immOperand(int64(c.i32()))}
	case 0x6A:
		return &Instruction{Kind: KindPush, Size: 64, Op1: immOperand(int64(c.i8()))}

	case 0x69: // IMUL Gv, Ev, Iz
		m := c.readModRM()
		rm := rmOperand(c, m, p, width)
		reg := regFieldOperand(m, p, width)
		imm := immOperandForWidth(c, width)
		return &Instruction{Kind: KindImul, Size: width, Op1: reg, Op2: rm, Op3: imm}
	case 0x6B: // IMUL Gv, Ev, Ib
		m := c.readModRM()
		rm := rmOperand(c, m, p, width)
		reg := regFieldOperand(m, p, width)
		imm := immOperand(int64(c.i8()))
		return &Instruction{Kind: KindImul, Size: width, Op1: reg, Op2: rm, Op3: imm}

	case 0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x76, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F:
		rel := int64(c.i8())
		return &Instruction{Kind: KindJcc, SubOp: op - 0x70, Op1: immOperand(rel)}

	case 0x80, 0x81, 0x83: // Group1: imm to rm
		m := c.readModRM()
		w := width
		if op == 0x80 {
			w = 8
		}
		rm := rmOperand(c, m, p, w)
		var imm *Operand
		switch op {
		case 0x80:
			imm = immOperand(int64(c.i8()))
		case 0x81:
			imm = immOperandForWidth(c, w)
		case 0x83:
			imm = immOperand(int64(c.i8()))
		}
		return &Instruction{Kind: KindArithmetic, SubOp: m.reg, Size: w, Op1: rm, Op2: imm}

	case 0x84, 0x85: // TEST Eb/Ev, Gb/Gv
		w := width
		if op == 0x84 {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		reg := regFieldOperand(m, p, w)
		return &Instruction{Kind: KindTest, Size: w, Op1: rm, Op2: reg}
	case 0x86, 0x87:
		w := width
		if op == 0x86 {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		reg := regFieldOperand(m, p, w)
		return &Instruction{Kind: KindXchg, Size: w, Op1: rm, Op2: reg}

	case 0x88, 0x89: // MOV Eb/Ev, Gb/Gv
		w := width
		if op == 0x88 {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		reg := regFieldOperand(m, p, w)
		return &Instruction{Kind: KindMov, Size: w, Op1: rm, Op2: reg}
	case 0x8A, 0x8B: // MOV Gb/Gv, Eb/Ev
		w := width
		if op == 0x8A {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		reg := regFieldOperand(m, p, w)
		return &Instruction{Kind: KindMov, Size: w, Op1: reg, Op2: rm}
	case 0x8D: // LEA Gv, M
		m := c.readModRM()
		mem := effectiveAddress(c, m, p)
		reg := regFieldOperand(m, p, width)
		return &Instruction{Kind: KindLea, Size: width, Op1: reg, Op2: mem}

	case 0xA4, 0xA5, 0xAA, 0xAB, 0xA6, 0xA7, 0xAC, 0xAD, 0xAE, 0xAF:
		w := width
		if op == 0xA4 || op == 0xAA || op == 0xA6 || op == 0xAC || op == 0xAE {
			w = 8
		}
		return &Instruction{Kind: KindString, SubOp: op, Size: w, Repeat: p.rep, RepeatNE: p.repne}

	case 0xA8, 0xA9: // TEST AL/eAX, Ib/Iz
		w := width
		if op == 0xA8 {
			w = 8
		}
		var imm *Operand
		if op == 0xA8 {
			imm = immOperand(int64(c.i8()))
		} else {
			imm = immOperandForWidth(c, w)
		}
		return &Instruction{Kind: KindTest, Size: w, Op1: regOperand(machine.GPRegister(0, w, p.rex)), Op2: imm}

	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, 0xB7:
		reg := int(op-0xB0) | boolBit(p.rexB, 0x8)
		imm := c.u8()
		return &Instruction{Kind: KindMov, Size: 8, Op1: regOperand(machine.GPRegister(reg, 8, p.rex)), Op2: immOperand(int64(imm))}
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBE, 0xBF:
		reg := int(op-0xB8) | boolBit(p.rexB, 0x8)
		if width == 64 {
			imm := c.u64()
			return &Instruction{Kind: KindMov, Size: 64, Op1: regOperand(machine.GPRegister(reg, 64, p.rex)), Op2: immOperand(int64(imm))}
		}
		imm := immOperandForWidth(c, width)
		return &Instruction{Kind: KindMov, Size: width, Op1: regOperand(machine.GPRegister(reg, width, p.rex)), Op2: imm}

	case 0xC0, 0xC1, 0xD0, 0xD1, 0xD2, 0xD3: // Group2: shift/rotate
		w := width
		if op == 0xC0 || op == 0xD0 || op == 0xD2 {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		var count *Operand
		switch op {
		case 0xC0, 0xC1:
			count = immOperand(int64(c.u8()))
		case 0xD0, 0xD1:
			count = immOperand(1)
		case 0xD2, 0xD3:
			count = regOperand(machine.GPRegister(1, 8, p.rex)) // CL
		}
		return &Instruction{Kind: KindShiftRotate, SubOp: m.reg, Size: w, Op1: rm, Op2: count}

	case 0xC2:
		return &Instruction{Kind: KindRet, Op1: immOperand(int64(c.u16()))}
	case 0xC3:
		return &Instruction{Kind: KindRet}
	case 0xC6, 0xC7: // MOV Eb/Ev, Ib/Iz
		w := width
		if op == 0xC6 {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		var imm *Operand
		if op == 0xC6 {
			imm = immOperand(int64(c.u8()))
		} else {
			imm = immOperandForWidth(c, w)
		}
		return &Instruction{Kind: KindMov, Size: w, Op1: rm, Op2: imm}

	case 0xC9:
		return &Instruction{Kind: KindLeave}

	case 0xCC:
		return &Instruction{Kind: KindInt, SubOp: 1, Op1: immOperand(3)}
	case 0xCD:
		return &Instruction{Kind: KindInt, SubOp: 0, Op1: immOperand(int64(c.u8()))}

	case 0xE2:
		return &Instruction{Kind: KindLoop, Op1: immOperand(int64(c.i8()))}

	case 0xE6: // OUT Ib, AL
		port := immOperand(int64(c.u8()))
		return &Instruction{Kind: KindOut, Size: 8, Op1: port, Op2: regOperand(machine.GPRegister(0, 8, p.rex))}
	case 0xE7: // OUT Ib, eAX
		port := immOperand(int64(c.u8()))
		return &Instruction{Kind: KindOut, Size: width, Op1: port, Op2: regOperand(machine.GPRegister(0, width, p.rex))}
	case 0xEE: // OUT DX, AL
		return &Instruction{Kind: KindOut, Size: 8, Op1: regOperand(machine.DX), Op2: regOperand(machine.GPRegister(0, 8, p.rex))}
	case 0xEF: // OUT DX, eAX
		return &Instruction{Kind: KindOut, Size: width, Op1: regOperand(machine.DX), Op2: regOperand(machine.GPRegister(0, width, p.rex))}

	case 0xE8:
		return &Instruction{Kind: KindCall, Op1: immOperand(int64(c.i32()))}
	case 0xE9:
		return &Instruction{Kind: KindJmp, Op1: immOperand(int64(c.i32()))}
	case 0xEB:
		return &Instruction{Kind: KindJmp, Op1: immOperand(int64(c.i8()))}

	case 0xF4:
		return &Instruction{Kind: KindHlt}
	case 0xF5:
		return &Instruction{Kind: KindCmc}
	case 0xF6, 0xF7: // Group3: test/not/neg/mul/imul/div/idiv
		w := width
		if op == 0xF6 {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		var imm *Operand
		if m.reg <= 1 {
			if op == 0xF6 {
				imm = immOperand(int64(c.u8()))
			} else {
				imm = immOperandForWidth(c, w)
			}
		}
		return &Instruction{Kind: KindTestMulDiv, SubOp: m.reg, Size: w, Op1: rm, Op2: imm}
	case 0xF8:
		return &Instruction{Kind: KindClc}
	case 0xF9:
		return &Instruction{Kind: KindStc}
	case 0xFA:
		return &Instruction{Kind: KindCli}
	case 0xFB:
		return &Instruction{Kind: KindSti}
	case 0xFC:
		return &Instruction{Kind: KindCld}
	case 0xFD:
		return &Instruction{Kind: KindStd}

	case 0xFE: // Group4: INC/DEC Eb
		m := c.readModRM()
		rm := rmOperand(c, m, p, 8)
		return &Instruction{Kind: KindIncDec, SubOp: m.reg, Size: 8, Op1: rm}
	case 0xFF: // Group5: INC/DEC/CALL/CALLF/JMP/JMPF/PUSH Ev
		m := c.readModRM()
		switch m.reg {
		case 0, 1:
			rm := rmOperand(c, m, p, width)
			return &Instruction{Kind: KindIncDec, SubOp: m.reg, Size: width, Op1: rm}
		case 2:
			rm := rmOperand(c, m, p, 64)
			return &Instruction{Kind: KindCall, Op1: rm}
		case 4:
			rm := rmOperand(c, m, p, 64)
			return &Instruction{Kind: KindJmp, Op1: rm}
		case 6:
			rm := rmOperand(c, m, p, 64)
			return &Instruction{Kind: KindPush, Size: 64, Op1: rm}
		default:
			return nil
		}
	}
	return nil
}

// decodeArithRow handles the row-coded ALU opcodes 0x00-0x3D: six forms
// per operation (Eb,Gb / Ev,Gv / Gb,Eb / Gv,Ev / AL,Ib / eAX,Iz).
func decodeArithRow(c *cursor, p prefixState, op byte, sub byte, width int) *Instruction {
	form := op & 0x07
	switch form {
	case 0, 1: // Eb/Ev, Gb/Gv
		w := width
		if form == 0 {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		reg := regFieldOperand(m, p, w)
		return &Instruction{Kind: KindArithmetic, SubOp: sub, Size: w, Op1: rm, Op2: reg}
	case 2, 3: // Gb/Gv, Eb/Ev
		w := width
		if form == 2 {
			w = 8
		}
		m := c.readModRM()
		rm := rmOperand(c, m, p, w)
		reg := regFieldOperand(m, p, w)
		return &Instruction{Kind: KindArithmetic, SubOp: sub, Size: w, Op1: reg, Op2: rm}
	case 4: // AL, Ib
		imm := immOperand(int64(c.i8()))
		return &Instruction{Kind: KindArithmetic, SubOp: sub, Size: 8, Op1: regOperand(machine.GPRegister(0, 8, p.rex)), Op2: imm}
	case 5: // eAX, Iz
		imm := immOperandForWidth(c, width)
		return &Instruction{Kind: KindArithmetic, SubOp: sub, Size: width, Op1: regOperand(machine.GPRegister(0, width, p.rex)), Op2: imm}
	}
	return nil
}

func immOperandForWidth(c *cursor, width int) *Operand {
	if width == 16 {
		return immOperand(int64(int16(c.u16())))
	}
	return immOperand(int64(c.i32()))
}

func boolBit(b bool, bit int) int {
	if b {
		return bit
	}
	return 0
}
