// instruction.go - the decoded instruction record.
//
// Grounded on oisee-z80-optimizer's pkg/inst/instruction.go (a compact
// tagged Instruction{Op, Imm} struct) and on the opcode-group dispatch
// in the teacher's cpu_x86_grp.go, where a handful of opcode families
// (ArithmeticGroup, ShiftRotateGroup, TestMulDivGroup, GroupFive,
// BitTestGroup) share one handler keyed by a 3-bit sub-opcode pulled out
// of ModRM.reg. Kind+SubOp reproduces that grouping here instead of
// giving every one of the ~200 opcodes implementing these families its
// own dispatch slot.
package decode

import "x86emu/internal/machine"

// InstrKind identifies the family of operation a decoded instruction
// belongs to. Families that share identical operand shapes and differ
// only by a sub-opcode selector (the arithmetic, shift/rotate, and
// mul/div groups) are collapsed into a single Kind with SubOp set.
type InstrKind int

const (
	KindInvalid InstrKind = iota
	KindNop
	KindMov
	KindMovzx // SubOp = source width (8 or 16)
	KindMovsx // SubOp = source width (8 or 16)
	KindLea
	KindArithmetic // ADD OR ADC SBB AND SUB XOR CMP, SubOp 0-7
	KindIncDec     // SubOp 0=INC 1=DEC
	KindShiftRotate
	KindTestMulDiv // SubOp 0/1=TEST 2=NOT 3=NEG 4=MUL 5=IMUL 6=DIV 7=IDIV
	KindImul       // two/three-operand IMUL forms
	KindBitTest    // SubOp 0=BT 1=BTS 2=BTR 3=BTC
	KindPush
	KindPop
	KindPushf
	KindPopf
	KindCall
	KindRet
	KindLeave
	KindJmp
	KindJcc
	KindSetcc
	KindCmov
	KindLoop
	KindTest
	KindString // MOVS/STOS/CMPS/SCAS/LODS, repeat-qualified
	KindCmpxchg
	KindXchg
	KindSignExtendAcc  // CBW/CWDE/CDQE
	KindSignExtendPair // CWD/CDQ/CQO
	KindClc
	KindStc
	KindCmc
	KindCld
	KindStd
	KindCpuid
	KindRdmsr
	KindWrmsr
	KindDescriptorLoad // LGDT (SubOp 0) / LIDT (SubOp 1), operand captured as a raw address
	KindHlt
	KindCli
	KindSti
	KindOut
	KindSyscall
	KindInt // SubOp 0 = INT imm8 (normal halt), SubOp 1 = INT3 (fatal)
)

// OperandKind tags the active member of an Operand.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandImmediate
	OperandRegister
	OperandMemory
)

// Operand is a tagged union over the three operand shapes the decoder
// produces: an immediate, a register view, or an effective address
// built from ModRM/SIB/displacement (spec.md section 4.3's "decoded
// operand" data model).
type Operand struct {
	Kind OperandKind

	Immediate int64

	Register machine.RegisterID

	Base         *machine.RegisterID
	Index        *machine.RegisterID
	Scale        int
	Displacement int32
}

// Instruction is one decoded instruction: a kind, up to three operands,
// an optional sub-opcode selector, the operand width the instruction
// operates at, whether a REP/REPE/REPNE prefix qualified it, and its
// total encoded length in bytes (needed to advance RIP).
type Instruction struct {
	Kind InstrKind

	Op1 *Operand
	Op2 *Operand
	Op3 *Operand

	SubOp byte

	Size int // 8/16/32/64, the operand width this instruction acts on

	Repeat   bool
	RepeatNE bool // REPNE/REPNZ; distinct from REP only on SCAS/CMPS, elsewhere it repeats like REP

	Length int
}

func regOperand(id machine.RegisterID) *Operand {
	return &Operand{Kind: OperandRegister, Register: id}
}

func immOperand(v int64) *Operand {
	return &Operand{Kind: OperandImmediate, Immediate: v}
}

func memOperand(base, index *machine.RegisterID, scale int, disp int32) *Operand {
	return &Operand{Kind: OperandMemory, Base: base, Index: index, Scale: scale, Displacement: disp}
}
