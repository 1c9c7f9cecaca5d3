// syscall.go - the Linux syscall gateway the emulated program reaches
// through SYSCALL, keyed by the raw Linux x86-64 syscall number in
// RAX as the original's emu_instructions.rs dispatches it.
//
// write copies bytes to State.Stdout rather than issuing a raw host
// write(2): spec.md's contract is "copy RDX bytes from [RSI] to host
// stdout", and State.Stdout is the swappable sink that stands in for
// that host stream, so routing through it (instead of a hard-coded fd)
// is what makes the sink's own documented contract (swappable in
// tests) actually hold.
package exec

import (
	"fmt"

	"x86emu/internal/machine"
)

const (
	sysRead      = 0
	sysWrite     = 1
	sysOpen      = 2
	sysClose     = 3
	sysExit      = 60
	sysArchPrctl = 158
)

// execSyscall dispatches SYSCALL by the number in RAX, per spec.md's
// syscall gateway contract: only fd 1 is a valid write target (any
// other fd is fatal), exit always halts with status 0 regardless of
// RDI, and any syscall number outside this table is fatal.
func (ex *Executor) execSyscall(nextRIP uint64) error {
	num := ex.m.Get(machine.RAX)
	switch num {
	case sysRead:
		ex.m.Set(machine.RAX, 0) // no stdin source modeled; report EOF
	case sysWrite:
		fd := ex.m.Get(machine.RDI)
		if fd != 1 {
			return fmt.Errorf("write to unsupported fd %d", fd)
		}
		addr := ex.m.Get(machine.RSI)
		count := ex.m.Get(machine.RDX)
		buf := ex.m.Read(addr, int(count))
		n, _ := ex.m.Stdout.Write(buf)
		ex.m.Set(machine.RAX, uint64(n))
	case sysOpen, sysClose, sysArchPrctl:
		ex.m.Set(machine.RAX, 0)
	case sysExit:
		return &ErrHalt{Code: 0}
	default:
		return fmt.Errorf("unsupported syscall number %d", num)
	}
	ex.m.RIP = nextRIP
	return nil
}
