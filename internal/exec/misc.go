// misc.go - CBW/CWDE/CDQE, CWD/CDQ/CQO, CPUID, and RDMSR.
//
// CPUID and RDMSR are supplemented from original_source/src/cpu/
// emu_instructions.rs: the original answers a handful of canned leaves
// (vendor string, feature bits) rather than querying the host, and
// only implements RDMSR for the EFER register. Both are reproduced
// here verbatim since spec.md's distillation is silent on their exact
// values but the original's behavior is the only thing any program
// built against it could depend on.
package exec

import (
	"fmt"

	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

func (ex *Executor) execSignExtendAcc(ins *decode.Instruction, nextRIP uint64) {
	switch ins.Size {
	case 16:
		v := int8(ex.m.Get(machine.AL))
		ex.m.Set(machine.AX, uint64(int16(v)))
	case 32:
		v := int16(ex.m.Get(machine.AX))
		ex.m.Set(machine.EAX, uint64(uint32(int32(v))))
	case 64:
		v := int32(ex.m.Get(machine.EAX))
		ex.m.Set(machine.RAX, uint64(int64(v)))
	}
	ex.m.RIP = nextRIP
}

func (ex *Executor) execSignExtendPair(ins *decode.Instruction, nextRIP uint64) {
	switch ins.Size {
	case 16:
		v := int16(ex.m.Get(machine.AX))
		if v < 0 {
			ex.m.Set(machine.DX, 0xFFFF)
		} else {
			ex.m.Set(machine.DX, 0)
		}
	case 32:
		v := int32(ex.m.Get(machine.EAX))
		if v < 0 {
			ex.m.Set(machine.EDX, 0xFFFFFFFF)
		} else {
			ex.m.Set(machine.EDX, 0)
		}
	case 64:
		v := int64(ex.m.Get(machine.RAX))
		if v < 0 {
			ex.m.Set(machine.RDX, ^uint64(0))
		} else {
			ex.m.Set(machine.RDX, 0)
		}
	}
	ex.m.RIP = nextRIP
}

// execCpuid answers a handful of canned leaves selected by EAX, the
// ones original_source's CPUID stub recognizes: leaf 0 (max leaf and
// vendor string "GenuineIntel" split across EBX/EDX/ECX), leaf 1
// (a fixed family/model/stepping in EAX, feature bits in EDX claiming
// FPU/TSC/PAE/CX8/CMOV/MMX/FXSR/SSE/SSE2 support), leaf 0x80000000 (max extended
// leaf) and leaf 0x80000001 (long mode and NX support in EDX). Every
// other leaf reads as all zeros.
func (ex *Executor) execCpuid(ins *decode.Instruction, nextRIP uint64) {
	switch ex.m.Get(machine.EAX) {
	case 0:
		ex.m.Set(machine.EAX, 1)
		ex.m.Set(machine.EBX, 0x756E6547) // "Genu"
		ex.m.Set(machine.EDX, 0x49656E69) // "ineI"
		ex.m.Set(machine.ECX, 0x6C65746E) // "ntel"
	case 1:
		ex.m.Set(machine.EAX, 0x000006FB)
		ex.m.Set(machine.EBX, 0)
		ex.m.Set(machine.ECX, 0)
		ex.m.Set(machine.EDX, 0x07808151)
	case 0x80000000:
		ex.m.Set(machine.EAX, 0x80000001)
		ex.m.Set(machine.EBX, 0)
		ex.m.Set(machine.ECX, 0)
		ex.m.Set(machine.EDX, 0)
	case 0x80000001:
		ex.m.Set(machine.EAX, 0)
		ex.m.Set(machine.EBX, 0)
		ex.m.Set(machine.ECX, 0)
		ex.m.Set(machine.EDX, 0x20100000) // LM (bit 29) and NX (bit 20)
	default:
		ex.m.Set(machine.EAX, 0)
		ex.m.Set(machine.EBX, 0)
		ex.m.Set(machine.ECX, 0)
		ex.m.Set(machine.EDX, 0)
	}
	ex.m.RIP = nextRIP
}

// execOut prints the port and accumulator value written by an OUT
// instruction and continues: there is no I/O port space behind it,
// matching original_source's stub for the handful of port writes an
// early-boot guest makes (serial console, POST codes) before any real
// device model would exist.
func (ex *Executor) execOut(ins *decode.Instruction, nextRIP uint64) error {
	port := ex.read(ins.Op1, 16, nextRIP)
	val := ex.read(ins.Op2, ins.Size, nextRIP)
	fmt.Fprintf(ex.m.Stderr, "out dx=%#x al=%#x\n", port, val)
	ex.m.RIP = nextRIP
	return nil
}

const msrEFER = 0xC0000080

// execRdmsr only answers EFER (0xC0000080), returning 0x500 (LME|LMA
// set) in EAX:EDX, matching the original's stub. Any other MSR index
// is fatal, matching the original's panic and spec.md's "RDMSR with
// unknown MSR" fatal condition.
func (ex *Executor) execRdmsr(ins *decode.Instruction, nextRIP uint64) error {
	msr := ex.m.Get(machine.ECX)
	if msr != msrEFER {
		return &ErrUnsupportedMSR{MSR: msr}
	}
	ex.m.Set(machine.EAX, 0x500)
	ex.m.Set(machine.EDX, 0)
	ex.m.RIP = nextRIP
	return nil
}
