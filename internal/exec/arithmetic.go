// arithmetic.go - the row-coded ALU group and INC/DEC.
//
// Grounded on cpu_x86.go's setFlagsArith8/16/32 (CF from unsigned
// overflow, OF from signed overflow, computed by comparing the wide
// result against truncated arithmetic) and cpu_x86_grp.go's
// opGrp1_Eb_Ib-style dispatch over the ADD..CMP sub-opcode. AND/OR/XOR
// use setFlagsLogic instead, forcing CF and OF to zero.
package exec

import (
	"math/bits"

	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

const (
	subAdd = iota
	subOr
	subAdc
	subSbb
	subAnd
	subSub
	subXor
	subCmp
)

func (ex *Executor) execArithmetic(ins *decode.Instruction, nextRIP uint64) {
	size := ins.Size
	dst := ex.read(ins.Op1, size, nextRIP)
	src := ex.read(ins.Op2, size, nextRIP)

	var result uint64
	logic := false

	switch ins.SubOp {
	case subAdd:
		result = dst + src
		ex.setArithFlagsAdd(dst, src, result, size)
	case subAdc:
		carry := boolToU64(ex.m.CF())
		result = dst + src + carry
		ex.setArithFlagsAdd(dst, src+carry, result, size)
	case subSub, subCmp:
		result = dst - src
		ex.setArithFlagsSub(dst, src, result, size)
	case subSbb:
		carry := boolToU64(ex.m.CF())
		result = dst - src - carry
		ex.setArithFlagsSub(dst, src+carry, result, size)
	case subAnd:
		result = dst & src
		logic = true
	case subOr:
		result = dst | src
		logic = true
	case subXor:
		result = dst ^ src
		logic = true
	}

	if logic {
		ex.m.SetFlag(machine.FlagCF, false)
		ex.m.SetFlag(machine.FlagOF, false)
		ex.m.ComputeFlags(result, size)
	}

	if ins.SubOp != subCmp {
		ex.write(ins.Op1, size, result, nextRIP)
	}
	ex.m.RIP = nextRIP
}

// setArithFlagsAdd sets ZF/SF/PF via ComputeFlags plus CF (unsigned
// overflow) and OF (signed overflow: operands share a sign and the
// result's sign differs from theirs).
func (ex *Executor) setArithFlagsAdd(dst, src, result uint64, size int) {
	ex.m.ComputeFlags(result, size)
	ex.m.SetFlag(machine.FlagCF, carryAdd(dst, src, size))
	sign := signBit(size)
	ex.m.SetFlag(machine.FlagOF, (dst&sign) == (src&sign) && (result&sign) != (dst&sign))
}

func carryAdd(dst, src uint64, size int) bool {
	if size == 64 {
		_, carry := bits.Add64(dst, src, 0)
		return carry != 0
	}
	m := mask(size)
	return (dst&m)+(src&m) > m
}

func (ex *Executor) setArithFlagsSub(dst, src, result uint64, size int) {
	m := mask(size)
	ex.m.ComputeFlags(result, size)
	ex.m.SetFlag(machine.FlagCF, (dst&m) < (src&m))
	sign := signBit(size)
	ex.m.SetFlag(machine.FlagOF, (dst&sign) != (src&sign) && (result&sign) == (src&sign))
}

func signBit(size int) uint64 { return uint64(1) << (size - 1) }

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// execIncDec implements Group4/Group5's INC and DEC: unlike ADD/SUB
// with an immediate of 1, these never touch CF.
func (ex *Executor) execIncDec(ins *decode.Instruction, nextRIP uint64) {
	size := ins.Size
	dst := ex.read(ins.Op1, size, nextRIP)
	sign := signBit(size)
	m := mask(size)
	var result uint64
	if ins.SubOp == 0 {
		result = dst + 1
		ex.m.ComputeFlags(result, size)
		ex.m.SetFlag(machine.FlagOF, (dst&m) == sign-1) // max positive value overflows to negative
	} else {
		result = dst - 1
		ex.m.ComputeFlags(result, size)
		ex.m.SetFlag(machine.FlagOF, (dst&m) == sign) // most negative value underflows to positive
	}
	ex.write(ins.Op1, size, result, nextRIP)
	ex.m.RIP = nextRIP
}

func (ex *Executor) execTest(ins *decode.Instruction, nextRIP uint64) {
	size := ins.Size
	a := ex.read(ins.Op1, size, nextRIP)
	b := ex.read(ins.Op2, size, nextRIP)
	ex.m.ComputeFlags(a&b, size)
	ex.m.SetFlag(machine.FlagCF, false)
	ex.m.SetFlag(machine.FlagOF, false)
	ex.m.RIP = nextRIP
}

func (ex *Executor) execXchg(ins *decode.Instruction, nextRIP uint64) {
	size := ins.Size
	a := ex.read(ins.Op1, size, nextRIP)
	b := ex.read(ins.Op2, size, nextRIP)
	ex.write(ins.Op1, size, b, nextRIP)
	ex.write(ins.Op2, size, a, nextRIP)
	ex.m.RIP = nextRIP
}

func (ex *Executor) execCmpxchg(ins *decode.Instruction, nextRIP uint64) {
	size := ins.Size
	acc := ex.m.Get(machine.GPRegister(0, size, true))
	dst := ex.read(ins.Op1, size, nextRIP)
	ex.setArithFlagsSub(acc, dst, acc-dst, size)
	if acc == dst {
		src := ex.read(ins.Op2, size, nextRIP)
		ex.write(ins.Op1, size, src, nextRIP)
	} else {
		ex.m.Set(machine.GPRegister(0, size, true), dst)
	}
	ex.m.RIP = nextRIP
}
