// control.go - control flow: CALL, RET, JMP, Jcc, SETcc, CMOVcc, LOOP.
//
// The sixteen-way condition predicate is grounded on cpu_x86_grp.go's
// setcc(cond bool) helper and the opSETO..opSETNLE one-liners built on
// it; the condition ordering (O,NO,B,NB,Z,NZ,BE,NBE,S,NS,P,NP,L,GE,LE,G)
// matches the SubOp values the decoder assigns from the 0x70-0x7F /
// 0x90-0x9F / 0x40-0x4F opcode rows.
package exec

import (
	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

// condition evaluates one of the sixteen Jcc/SETcc/CMOVcc predicates.
func (ex *Executor) condition(sub byte) bool {
	m := ex.m
	switch sub {
	case 0x0:
		return m.OF()
	case 0x1:
		return !m.OF()
	case 0x2:
		return m.CF()
	case 0x3:
		return !m.CF()
	case 0x4:
		return m.ZF()
	case 0x5:
		return !m.ZF()
	case 0x6:
		return m.CF() || m.ZF()
	case 0x7:
		return !m.CF() && !m.ZF()
	case 0x8:
		return m.SF()
	case 0x9:
		return !m.SF()
	case 0xA:
		return m.PF()
	case 0xB:
		return !m.PF()
	case 0xC:
		return m.SF() != m.OF()
	case 0xD:
		return m.SF() == m.OF()
	case 0xE:
		return m.ZF() || m.SF() != m.OF()
	case 0xF:
		return !m.ZF() && m.SF() == m.OF()
	}
	return false
}

func (ex *Executor) execJcc(ins *decode.Instruction, nextRIP uint64) {
	if ex.condition(ins.SubOp) {
		ex.m.RIP = uint64(int64(nextRIP) + ins.Op1.Immediate)
		return
	}
	ex.m.RIP = nextRIP
}

func (ex *Executor) execSetcc(ins *decode.Instruction, nextRIP uint64) {
	v := uint64(0)
	if ex.condition(ins.SubOp) {
		v = 1
	}
	ex.write(ins.Op1, 8, v, nextRIP)
	ex.m.RIP = nextRIP
}

func (ex *Executor) execCmov(ins *decode.Instruction, nextRIP uint64) {
	if ex.condition(ins.SubOp) {
		v := ex.read(ins.Op2, ins.Size, nextRIP)
		ex.write(ins.Op1, ins.Size, v, nextRIP)
	}
	ex.m.RIP = nextRIP
}

func (ex *Executor) execJmp(ins *decode.Instruction, nextRIP uint64) {
	if ins.Op1.Kind == decode.OperandImmediate {
		ex.m.RIP = uint64(int64(nextRIP) + ins.Op1.Immediate)
		return
	}
	ex.m.RIP = ex.read(ins.Op1, 64, nextRIP)
}

func (ex *Executor) execCall(ins *decode.Instruction, nextRIP uint64) {
	var target uint64
	if ins.Op1.Kind == decode.OperandImmediate {
		target = uint64(int64(nextRIP) + ins.Op1.Immediate)
	} else {
		target = ex.read(ins.Op1, 64, nextRIP)
	}
	ex.m.PushQword(nextRIP)
	ex.m.RIP = target
}

func (ex *Executor) execRet(ins *decode.Instruction) {
	target := ex.m.Pop()
	if ins.Op1 != nil {
		ex.m.Set(machine.RSP, ex.m.Get(machine.RSP)+uint64(ins.Op1.Immediate))
	}
	ex.m.RIP = target
}

func (ex *Executor) execLoop(ins *decode.Instruction, nextRIP uint64) {
	count := ex.m.Get(machine.RCX) - 1
	ex.m.Set(machine.RCX, count)
	if count != 0 {
		ex.m.RIP = uint64(int64(nextRIP) + ins.Op1.Immediate)
		return
	}
	ex.m.RIP = nextRIP
}
