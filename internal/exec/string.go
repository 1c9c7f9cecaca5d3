// string.go - MOVS/STOS/CMPS/SCAS/LODS, with REP/REPE/REPNE repetition.
//
// Grounded on cpu_x86_test.go's TestX86_MOVS/TestX86_STOS/
// TestX86_REP_STOSB expectations: RSI/RDI step by the operand width
// (negated under DF), and REP on MOVS/STOS loops until RCX hits zero
// with no comparison, while on CMPS/SCAS REPNE also stops early once ZF
// is set and REPE once ZF is clear. Only the byte form of SCAS (0xAE) is
// executed; the wider form (0xAF) changes nothing but RCX under a repeat
// prefix. No prefix combination is rejected: REPE SCASB runs, and REPNE
// on MOVS/STOS/LODS counts down RCX exactly like REP.
package exec

import (
	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

func (ex *Executor) execString(ins *decode.Instruction, nextRIP uint64) {
	step := int64(ins.Size / 8)
	if ex.m.DF() {
		step = -step
	}

	iterations := uint64(1)
	useCounter := ins.Repeat || ins.RepeatNE
	if useCounter {
		iterations = ex.m.Get(machine.RCX)
	}

loop:
	for i := uint64(0); i < iterations; i++ {
		if useCounter && ex.m.Get(machine.RCX) == 0 {
			break
		}
		switch ins.SubOp {
		case 0xA4: // MOVSB
			v := ex.m.ReadUint(ex.m.Get(machine.RSI), 8)
			ex.m.WriteUint(ex.m.Get(machine.RDI), 8, v)
			ex.m.Set(machine.RSI, ex.m.Get(machine.RSI)+uint64(step))
			ex.m.Set(machine.RDI, ex.m.Get(machine.RDI)+uint64(step))
		case 0xA5: // MOVS wider
			v := ex.m.ReadUint(ex.m.Get(machine.RSI), ins.Size)
			ex.m.WriteUint(ex.m.Get(machine.RDI), ins.Size, v)
			ex.m.Set(machine.RSI, ex.m.Get(machine.RSI)+uint64(step))
			ex.m.Set(machine.RDI, ex.m.Get(machine.RDI)+uint64(step))
		case 0xAA, 0xAB: // STOS
			acc := ex.m.Get(machine.GPRegister(0, ins.Size, true))
			ex.m.WriteUint(ex.m.Get(machine.RDI), ins.Size, acc)
			ex.m.Set(machine.RDI, ex.m.Get(machine.RDI)+uint64(step))
		case 0xAC: // LODSB
			v := ex.m.ReadUint(ex.m.Get(machine.RSI), ins.Size)
			ex.m.Set(machine.GPRegister(0, ins.Size, true), v)
			ex.m.Set(machine.RSI, ex.m.Get(machine.RSI)+uint64(step))
		case 0xAD: // LODS wider
			v := ex.m.ReadUint(ex.m.Get(machine.RSI), ins.Size)
			ex.m.Set(machine.GPRegister(0, ins.Size, true), v)
			ex.m.Set(machine.RSI, ex.m.Get(machine.RSI)+uint64(step))
		case 0xA6, 0xA7: // CMPS
			a := ex.m.ReadUint(ex.m.Get(machine.RSI), ins.Size)
			b := ex.m.ReadUint(ex.m.Get(machine.RDI), ins.Size)
			ex.setArithFlagsSub(a, b, a-b, ins.Size)
			ex.m.Set(machine.RSI, ex.m.Get(machine.RSI)+uint64(step))
			ex.m.Set(machine.RDI, ex.m.Get(machine.RDI)+uint64(step))
			if useCounter {
				ex.m.Set(machine.RCX, ex.m.Get(machine.RCX)-1)
			}
			if ins.RepeatNE && ex.m.ZF() {
				break loop
			}
			if ins.Repeat && !ex.m.ZF() {
				break loop
			}
			continue loop
		case 0xAE: // SCASB, the only width spec.md supports for SCAS
			acc := ex.m.Get(machine.GPRegister(0, 8, true))
			b := ex.m.ReadUint(ex.m.Get(machine.RDI), 8)
			ex.setArithFlagsSub(acc, b, acc-b, 8)
			ex.m.Set(machine.RDI, ex.m.Get(machine.RDI)+uint64(step))
			if useCounter {
				ex.m.Set(machine.RCX, ex.m.Get(machine.RCX)-1)
			}
			if ins.RepeatNE && ex.m.ZF() {
				break loop
			}
			if ins.Repeat && !ex.m.ZF() {
				break loop
			}
			continue loop
		}
		if useCounter {
			ex.m.Set(machine.RCX, ex.m.Get(machine.RCX)-1)
		}
	}
	ex.m.RIP = nextRIP
}
