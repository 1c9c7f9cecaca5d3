// exec.go - instruction execution: the fetch-decode-execute loop's
// third stage.
//
// Grounded on cpu_x86_ops.go and cpu_x86_grp.go's per-opcode handler
// style (fetch operands, compute in a wider int, call a flags helper,
// write back) and on the [256]func(*CPU_X86) dispatch table idiom from
// cpu_x86.go's initBaseOps, generalized to dispatch by decode.InstrKind
// instead of by raw opcode byte, since the decoder has already folded
// opcode-group selection into Instruction.SubOp.
package exec

import (
	"fmt"

	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

// Machine is a type alias for machine.State, the state the executor
// acts on.
type Machine = machine.State

// Executor applies decoded instructions to a machine state.
type Executor struct {
	m *Machine
	// The syscall gateway lives in syscall.go and is invoked from
	// Execute's KindSyscall case.
}

// New returns an executor acting on m.
func New(m *Machine) *Executor {
	return &Executor{m: m}
}

// ErrUnimplemented is returned for instructions spec.md documents as
// intentionally unimplemented (IDIV, ROL/ROR/RCL/RCR, and
// single-operand MUL/IMUL).
type ErrUnimplemented struct {
	What string
}

func (e *ErrUnimplemented) Error() string { return fmt.Sprintf("unimplemented: %s", e.What) }

// ErrDivide signals a divide error (division by zero or a quotient
// that overflows the destination), which spec.md defines as fatal.
type ErrDivide struct{}

func (e *ErrDivide) Error() string { return "divide error" }

// ErrUnsupportedMSR signals RDMSR against an MSR index this emulator
// does not model, which spec.md lists as execute-time fatal.
type ErrUnsupportedMSR struct {
	MSR uint64
}

func (e *ErrUnsupportedMSR) Error() string { return fmt.Sprintf("unsupported MSR %#x", e.MSR) }

// ErrHalt is returned when the instruction stream reaches HLT or INT,
// or the syscall gateway sees exit(2): the driver loop treats this as
// a clean (non-error) stop signal.
type ErrHalt struct {
	Code int
}

func (e *ErrHalt) Error() string { return fmt.Sprintf("halted with code %d", e.Code) }

// Execute applies one decoded instruction and advances RIP by its
// encoded length, unless the instruction itself redirects control
// flow (branches, calls, returns, loops).
func (ex *Executor) Execute(ins *decode.Instruction, nextRIP uint64) error {
	switch ins.Kind {
	case decode.KindInvalid:
		return fmt.Errorf("invalid opcode at instruction %d", ex.m.InstructionCount)
	case decode.KindNop:
		ex.m.RIP = nextRIP
	case decode.KindMov:
		ex.execMov(ins, nextRIP)
	case decode.KindMovzx:
		ex.execMovzx(ins, nextRIP)
	case decode.KindMovsx:
		ex.execMovsx(ins, nextRIP)
	case decode.KindLea:
		ex.execLea(ins, nextRIP)
	case decode.KindArithmetic:
		ex.execArithmetic(ins, nextRIP)
	case decode.KindIncDec:
		ex.execIncDec(ins, nextRIP)
	case decode.KindShiftRotate:
		return ex.execShiftRotate(ins, nextRIP)
	case decode.KindTestMulDiv:
		return ex.execTestMulDiv(ins, nextRIP)
	case decode.KindImul:
		ex.execImul(ins, nextRIP)
	case decode.KindBitTest:
		ex.execBitTest(ins, nextRIP)
	case decode.KindTest:
		ex.execTest(ins, nextRIP)
	case decode.KindXchg:
		ex.execXchg(ins, nextRIP)
	case decode.KindCmpxchg:
		ex.execCmpxchg(ins, nextRIP)
	case decode.KindPush:
		ex.execPush(ins, nextRIP)
	case decode.KindPop:
		ex.execPop(ins, nextRIP)
	case decode.KindPushf:
		ex.m.Push(leBytes(ex.m.RFLAGS, 64))
		ex.m.RIP = nextRIP
	case decode.KindPopf:
		ex.m.RFLAGS = ex.m.Pop()
		ex.m.RIP = nextRIP
	case decode.KindCall:
		ex.execCall(ins, nextRIP)
	case decode.KindRet:
		ex.execRet(ins)
	case decode.KindLeave:
		ex.m.Set(machine.RSP, ex.m.Get(machine.RBP))
		ex.m.Set(machine.RBP, ex.m.Pop())
		ex.m.RIP = nextRIP
	case decode.KindJmp:
		ex.execJmp(ins, nextRIP)
	case decode.KindJcc:
		ex.execJcc(ins, nextRIP)
	case decode.KindSetcc:
		ex.execSetcc(ins, nextRIP)
	case decode.KindCmov:
		ex.execCmov(ins, nextRIP)
	case decode.KindLoop:
		ex.execLoop(ins, nextRIP)
	case decode.KindString:
		ex.execString(ins, nextRIP)
	case decode.KindSignExtendAcc:
		ex.execSignExtendAcc(ins, nextRIP)
	case decode.KindSignExtendPair:
		ex.execSignExtendPair(ins, nextRIP)
	case decode.KindClc:
		ex.m.SetFlag(machine.FlagCF, false)
		ex.m.RIP = nextRIP
	case decode.KindStc:
		ex.m.SetFlag(machine.FlagCF, true)
		ex.m.RIP = nextRIP
	case decode.KindCmc:
		ex.m.SetFlag(machine.FlagCF, !ex.m.CF())
		ex.m.RIP = nextRIP
	case decode.KindCld:
		ex.m.SetFlag(machine.FlagDF, false)
		ex.m.RIP = nextRIP
	case decode.KindStd:
		ex.m.SetFlag(machine.FlagDF, true)
		ex.m.RIP = nextRIP
	case decode.KindCpuid:
		ex.execCpuid(ins, nextRIP)
	case decode.KindRdmsr:
		return ex.execRdmsr(ins, nextRIP)
	case decode.KindWrmsr:
		ex.m.RIP = nextRIP // accepted and ignored: no MSR has observable state here
	case decode.KindDescriptorLoad:
		addr := ex.resolveAddr(ins.Op1, nextRIP)
		if ins.SubOp == 0 {
			ex.m.GDTR = addr
		} else {
			ex.m.IDTR = addr
		}
		ex.m.RIP = nextRIP
	case decode.KindOut:
		return ex.execOut(ins, nextRIP)
	case decode.KindHlt:
		return &ErrHalt{Code: 0}
	case decode.KindCli, decode.KindSti:
		ex.m.RIP = nextRIP // no interrupt model to mask/unmask
	case decode.KindSyscall:
		return ex.execSyscall(nextRIP)
	case decode.KindInt:
		if ins.SubOp == 1 {
			return fmt.Errorf("int3 encountered at instruction %d", ex.m.InstructionCount)
		}
		return &ErrHalt{Code: 0}
	default:
		return &ErrUnimplemented{What: fmt.Sprintf("instruction kind %d", ins.Kind)}
	}
	return nil
}
