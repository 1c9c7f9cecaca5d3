// operands.go - reading and writing decode.Operand values against a
// machine.State, and the small integer helpers the opcode families
// share (sign extension, little-endian byte packing, mask-by-width).
//
// Grounded on cpu_x86.go's readRM8/16/32 and writeRM8/16/32: an
// effective address is computed once, then read or written through the
// same small set of width-dispatching helpers every instruction uses.
package exec

import (
	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

// resolveAddr computes the virtual address a memory operand refers to:
// base + index*scale + displacement. RIP-relative operands (Base ==
// machine.RIP) use the address of the byte following the instruction,
// which the decoder cannot know at decode time, so callers pass
// nextRIP in here instead.
func (ex *Executor) resolveAddr(op *decode.Operand, nextRIP uint64) uint64 {
	var base uint64
	if op.Base != nil {
		if *op.Base == machine.RIP {
			base = nextRIP
		} else {
			base = ex.m.Get(*op.Base)
		}
	}
	var index uint64
	if op.Index != nil {
		index = ex.m.Get(*op.Index) * uint64(op.Scale)
	}
	return base + index + uint64(int64(op.Displacement))
}

// read returns the value of op at the given width, evaluating memory
// operands through the machine's virtual memory.
func (ex *Executor) read(op *decode.Operand, size int, nextRIP uint64) uint64 {
	switch op.Kind {
	case decode.OperandImmediate:
		return uint64(op.Immediate) & mask(size)
	case decode.OperandRegister:
		return ex.m.Get(op.Register)
	case decode.OperandMemory:
		return ex.m.ReadUint(ex.resolveAddr(op, nextRIP), size)
	}
	panic("exec: operand has no kind")
}

// write stores v into op at the given width.
func (ex *Executor) write(op *decode.Operand, size int, v uint64, nextRIP uint64) {
	switch op.Kind {
	case decode.OperandRegister:
		ex.m.Set(op.Register, v)
	case decode.OperandMemory:
		ex.m.WriteUint(ex.resolveAddr(op, nextRIP), size, v)
	default:
		panic("exec: cannot write to this operand kind")
	}
}

func mask(size int) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << size) - 1
}

func signExtend(v uint64, fromSize int) int64 {
	shift := 64 - fromSize
	return int64(v<<shift) >> shift
}

func leBytes(v uint64, size int) []byte {
	b := make([]byte, size/8)
	for i := range b {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
