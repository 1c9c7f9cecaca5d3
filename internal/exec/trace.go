// trace.go - AT&T-syntax instruction tracing for -p/--print-instructions.
//
// Grounded on debug_disasm_x86.go's x86Reg32/x86Reg16/x86Reg8 name
// tables and decodeModRM formatter, generalized to the 64-bit register
// file (R8-R15 and their width views) that REX prefixes expose.
package exec

import (
	"fmt"
	"strings"

	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

var regNames = map[machine.RegisterID]string{
	machine.RAX: "rax", machine.RCX: "rcx", machine.RDX: "rdx", machine.RBX: "rbx",
	machine.RSP: "rsp", machine.RBP: "rbp", machine.RSI: "rsi", machine.RDI: "rdi",
	machine.R8: "r8", machine.R9: "r9", machine.R10: "r10", machine.R11: "r11",
	machine.R12: "r12", machine.R13: "r13", machine.R14: "r14", machine.R15: "r15",

	machine.EAX: "eax", machine.ECX: "ecx", machine.EDX: "edx", machine.EBX: "ebx",
	machine.ESP: "esp", machine.EBP: "ebp", machine.ESI: "esi", machine.EDI: "edi",
	machine.R8D: "r8d", machine.R9D: "r9d", machine.R10D: "r10d", machine.R11D: "r11d",
	machine.R12D: "r12d", machine.R13D: "r13d", machine.R14D: "r14d", machine.R15D: "r15d",

	machine.AX: "ax", machine.CX: "cx", machine.DX: "dx", machine.BX: "bx",
	machine.SP: "sp", machine.BP: "bp", machine.SI: "si", machine.DI: "di",
	machine.R8W: "r8w", machine.R9W: "r9w", machine.R10W: "r10w", machine.R11W: "r11w",
	machine.R12W: "r12w", machine.R13W: "r13w", machine.R14W: "r14w", machine.R15W: "r15w",

	machine.AL: "al", machine.CL: "cl", machine.DL: "dl", machine.BL: "bl",
	machine.SPL: "spl", machine.BPL: "bpl", machine.SIL: "sil", machine.DIL: "dil",
	machine.R8B: "r8b", machine.R9B: "r9b", machine.R10B: "r10b", machine.R11B: "r11b",
	machine.R12B: "r12b", machine.R13B: "r13b", machine.R14B: "r14b", machine.R15B: "r15b",

	machine.AH: "ah", machine.CH: "ch", machine.DH: "dh", machine.BH: "bh",

	machine.RIP: "rip",
}

func formatOperand(op *decode.Operand) string {
	if op == nil {
		return ""
	}
	switch op.Kind {
	case decode.OperandImmediate:
		return fmt.Sprintf("$0x%x", uint64(op.Immediate))
	case decode.OperandRegister:
		return "%" + regNames[op.Register]
	case decode.OperandMemory:
		var parts []string
		if op.Base != nil {
			parts = append(parts, "%"+regNames[*op.Base])
		}
		if op.Index != nil {
			parts = append(parts, "%"+regNames[*op.Index], fmt.Sprintf("%d", op.Scale))
		}
		inner := strings.Join(parts, ",")
		if op.Displacement != 0 || inner == "" {
			return fmt.Sprintf("%d(%s)", op.Displacement, inner)
		}
		return fmt.Sprintf("(%s)", inner)
	}
	return "?"
}

var mnemonics = map[decode.InstrKind]string{
	decode.KindNop: "nop", decode.KindMov: "mov", decode.KindMovzx: "movzx",
	decode.KindMovsx: "movsx", decode.KindLea: "lea", decode.KindTest: "test",
	decode.KindXchg: "xchg", decode.KindCmpxchg: "cmpxchg", decode.KindPush: "push",
	decode.KindPop: "pop", decode.KindPushf: "pushf", decode.KindPopf: "popf",
	decode.KindCall: "call", decode.KindRet: "ret", decode.KindLeave: "leave",
	decode.KindJmp: "jmp",
	decode.KindLoop: "loop", decode.KindString: "string", decode.KindImul: "imul",
	decode.KindClc: "clc", decode.KindStc: "stc", decode.KindCmc: "cmc",
	decode.KindCld: "cld", decode.KindStd: "std", decode.KindCpuid: "cpuid",
	decode.KindRdmsr: "rdmsr", decode.KindWrmsr: "wrmsr", decode.KindHlt: "hlt",
	decode.KindCli: "cli", decode.KindSti: "sti", decode.KindOut: "out",
	decode.KindSyscall: "syscall", decode.KindInt: "int",
}

// sizeSuffix returns the AT&T operand-size suffix for a width, or ""
// when the mnemonic doesn't take one (branches, flag instructions).
func sizeSuffix(size int) string {
	switch size {
	case 8:
		return "b"
	case 16:
		return "w"
	case 32:
		return "l"
	case 64:
		return "q"
	}
	return ""
}

var suffixedKinds = map[decode.InstrKind]bool{
	decode.KindMov: true, decode.KindArithmetic: true, decode.KindIncDec: true,
	decode.KindShiftRotate: true, decode.KindTestMulDiv: true, decode.KindTest: true,
	decode.KindCmpxchg: true, decode.KindXchg: true, decode.KindImul: true,
	decode.KindBitTest: true, decode.KindPush: true, decode.KindPop: true,
}

var arithMnemonics = [8]string{"add", "or", "adc", "sbb", "and", "sub", "xor", "cmp"}
var condNames = [16]string{"o", "no", "b", "ae", "e", "ne", "be", "a", "s", "ns", "p", "np", "l", "ge", "le", "g"}

// Format renders a decoded instruction in AT&T syntax for trace output.
func Format(ins *decode.Instruction) string {
	var mnemonic string
	switch ins.Kind {
	case decode.KindArithmetic:
		mnemonic = arithMnemonics[ins.SubOp]
	case decode.KindJcc:
		mnemonic = "j" + condNames[ins.SubOp]
	case decode.KindSetcc:
		mnemonic = "set" + condNames[ins.SubOp]
	case decode.KindCmov:
		mnemonic = "cmov" + condNames[ins.SubOp]
	case decode.KindIncDec:
		if ins.SubOp == 0 {
			mnemonic = "inc"
		} else {
			mnemonic = "dec"
		}
	case decode.KindShiftRotate:
		names := [8]string{"rol", "ror", "rcl", "rcr", "shl", "shr", "sal", "sar"}
		mnemonic = names[ins.SubOp]
	case decode.KindTestMulDiv:
		names := [8]string{"test", "test", "not", "neg", "mul", "imul", "div", "idiv"}
		mnemonic = names[ins.SubOp]
	case decode.KindBitTest:
		names := [4]string{"bt", "bts", "btr", "btc"}
		mnemonic = names[ins.SubOp]
	default:
		var ok bool
		mnemonic, ok = mnemonics[ins.Kind]
		if !ok {
			mnemonic = "???"
		}
	}

	if suffixedKinds[ins.Kind] {
		mnemonic += sizeSuffix(ins.Size)
	}

	var operands []string
	for _, op := range []*decode.Operand{ins.Op2, ins.Op1} {
		if op != nil {
			operands = append(operands, formatOperand(op))
		}
	}
	if len(operands) == 0 {
		return mnemonic
	}
	return fmt.Sprintf("%-6s %s", mnemonic, strings.Join(operands, ","))
}
