// moves.go - data movement: MOV, MOVZX, MOVSX, LEA, PUSH, POP.
//
// LEA is grounded on cpu_x86.go's getEffectiveAddress: it computes the
// address an operand would read from but never dereferences memory.
package exec

import (
	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

func (ex *Executor) execMov(ins *decode.Instruction, nextRIP uint64) {
	v := ex.read(ins.Op2, ins.Size, nextRIP)
	ex.write(ins.Op1, ins.Size, v, nextRIP)
	ex.m.RIP = nextRIP
}

// execMovzx always writes its full 64-bit destination register,
// regardless of the declared operand size: the destination is always a
// GP register, never memory, so there is no narrower target to respect.
func (ex *Executor) execMovzx(ins *decode.Instruction, nextRIP uint64) {
	srcSize := int(ins.SubOp)
	v := ex.read(ins.Op2, srcSize, nextRIP) & mask(srcSize)
	dst := machine.GPRegister(machine.GPIndex(ins.Op1.Register), 64, true)
	ex.m.Set(dst, v)
	ex.m.RIP = nextRIP
}

func (ex *Executor) execMovsx(ins *decode.Instruction, nextRIP uint64) {
	srcSize := int(ins.SubOp)
	v := ex.read(ins.Op2, srcSize, nextRIP)
	ex.write(ins.Op1, ins.Size, uint64(signExtend(v, srcSize))&mask(ins.Size), nextRIP)
	ex.m.RIP = nextRIP
}

func (ex *Executor) execLea(ins *decode.Instruction, nextRIP uint64) {
	addr := ex.resolveAddr(ins.Op2, nextRIP)
	ex.write(ins.Op1, ins.Size, addr&mask(ins.Size), nextRIP)
	ex.m.RIP = nextRIP
}

func (ex *Executor) execPush(ins *decode.Instruction, nextRIP uint64) {
	v := ex.read(ins.Op1, ins.Size, nextRIP)
	ex.m.Push(leBytes(v, 64))
	ex.m.RIP = nextRIP
}

func (ex *Executor) execPop(ins *decode.Instruction, nextRIP uint64) {
	v := ex.m.Pop()
	ex.write(ins.Op1, ins.Size, v, nextRIP)
	ex.m.RIP = nextRIP
}
