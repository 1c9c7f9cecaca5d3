// bittest.go - BT/BTS/BTR/BTC, grounded on the teacher's group-style
// dispatch by a 2-bit sub-opcode selector.
package exec

import (
	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

const (
	subBt = iota
	subBts
	subBtr
	subBtc
)

func (ex *Executor) execBitTest(ins *decode.Instruction, nextRIP uint64) {
	size := ins.Size
	bitIndex := ex.read(ins.Op2, size, nextRIP) % uint64(size)
	val := ex.read(ins.Op1, size, nextRIP)
	bit := (val >> bitIndex) & 1

	ex.m.SetFlag(machine.FlagCF, bit != 0)

	var result uint64
	switch ins.SubOp {
	case subBt:
		result = val
	case subBts:
		result = val | (1 << bitIndex)
	case subBtr:
		result = val &^ (1 << bitIndex)
	case subBtc:
		result = val ^ (1 << bitIndex)
	}
	if ins.SubOp != subBt {
		ex.write(ins.Op1, size, result, nextRIP)
	}
	ex.m.RIP = nextRIP
}
