// driver.go - the fetch-decode-execute loop.
//
// Grounded on cpu_x86.go's Step(): consume prefixes, look up (or
// populate) a decode cache entry, dispatch, advance the cycle/
// instruction counter. The cache here is addressed by the teacher's
// "Dispatch via baseOps[opcode]" idiom, but the key is RIP rather than
// opcode since a single RIP can only ever decode to one instruction
// (spec.md's self-modifying-code Non-goal makes this safe).
package driver

import (
	"fmt"
	"time"

	"x86emu/internal/decode"
	"x86emu/internal/exec"
	"x86emu/internal/machine"
)

// Options configures a Run.
type Options struct {
	Debug             bool
	PrintInstructions bool
	Benchmark         bool
}

// Result summarizes how a run ended.
type Result struct {
	ExitCode         int
	InstructionCount uint64
	Elapsed          time.Duration
}

// Run drives the machine from its current RIP until it halts (HLT,
// INT, or the exit syscall) or a fatal error occurs.
func Run(state *machine.State, opts Options) (Result, error) {
	dec := decode.New(state)
	ex := exec.New(state)

	start := time.Now()
	for {
		rip := state.RIP
		ins := dec.Decode(rip)
		nextRIP := rip + uint64(ins.Length)

		if opts.PrintInstructions {
			fmt.Fprintf(state.Stderr, "%08X %s\n", rip, exec.Format(ins))
		}

		err := ex.Execute(ins, nextRIP)
		state.InstructionCount++

		if opts.Debug {
			fmt.Fprintf(state.Stderr, "  rax=%016x rbx=%016x rcx=%016x rdx=%016x rip=%016x flags=%016x\n",
				state.Get(machine.RAX), state.Get(machine.RBX), state.Get(machine.RCX),
				state.Get(machine.RDX), state.RIP, state.RFLAGS)
		}

		if err != nil {
			if halt, ok := err.(*exec.ErrHalt); ok {
				return Result{
					ExitCode:         halt.Code,
					InstructionCount: state.InstructionCount,
					Elapsed:          time.Since(start),
				}, nil
			}
			return Result{InstructionCount: state.InstructionCount, Elapsed: time.Since(start)},
				fmt.Errorf("fatal error after %d instructions at rip=0x%x: %w", state.InstructionCount, rip, err)
		}
	}
}
