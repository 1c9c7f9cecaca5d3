// state.go - the machine's architectural state: C1+C2+C3 glued together
// into a single owned struct, matching spec.md's "MachineState is
// created empty by a loader, mutated exclusively by the executor"
// lifecycle and the teacher's single-struct-per-CPU convention
// (CPU_X86 in cpu_x86.go).
package machine

import (
	"io"
	"os"
)

// State is the complete architectural state of the emulated CPU: general
// purpose registers, RIP, control registers, RFLAGS, and the virtual
// memory backing it. Segment registers are not stored: spec.md requires
// reads to always return 0 and writes to be ignored under the flat
// user-mode memory model this emulator targets.
type State struct {
	gp  [16]uint64 // indexed by the canonical 0-15 GP encoding
	RIP uint64

	CRs  [5]uint64 // CR0, CR2, CR3, CR4, CR8
	GDTR uint64
	IDTR uint64

	RFLAGS uint64

	Memory *Memory

	// Observability toggles, set by the CLI.
	PrintInstructions bool
	PrintRegisters    bool

	// InstructionCount is bumped once per executed instruction by the
	// driver loop; fatal-error messages quote it for post-mortems.
	InstructionCount uint64

	// Halted and ExitCode are not written by the executor or the driver
	// loop: a halt (INT, HLT, or the exit syscall) reaches the driver as
	// an exec.ErrHalt error instead.
	Halted   bool
	ExitCode int

	Stdout io.Writer
	Stderr io.Writer

	// VGA receives one byte per character cell written through the
	// 0xB8000 text-mode window, in the order the writes happen. Defaults to
	// io.Discard so headless runs stay silent; the CLI may redirect it.
	VGA io.Writer
}

// New returns an empty machine state with fresh memory and sane I/O
// defaults. Callers (loaders) populate registers and memory afterwards.
func New() *State {
	s := &State{
		Memory: NewMemory(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		VGA:    io.Discard,
	}
	s.Memory.SetVGASink(func(b byte) {
		_, _ = s.VGA.Write([]byte{b})
	})
	return s
}

// Get reads the value of a register view, zero-extended from that
// view's width to 64 bits.
func (s *State) Get(id RegisterID) uint64 {
	switch {
	case id == RIP:
		return s.RIP
	case IsControl(id):
		return s.CRs[controlIndex(id)]
	case IsSegment(id):
		return 0
	case IsHighByte(id):
		idx := gpIndex(id)
		return (s.gp[idx] >> 8) & 0xFF
	default:
		idx := gpIndex(id)
		if idx < 0 {
			panic("machine: Get on unknown register")
		}
		return s.gp[idx] & mask(Width(id))
	}
}

// Set writes a register view, applying the architectural width rules:
// a 64-bit write replaces the register outright, a 32-bit write
// zero-extends to 64 bits, and 16/8-bit writes preserve the untouched
// bits of the parent register.
func (s *State) Set(id RegisterID, v uint64) {
	switch {
	case id == RIP:
		s.RIP = v
		return
	case IsControl(id):
		s.CRs[controlIndex(id)] = v
		return
	case IsSegment(id):
		return // writes to segment registers are ignored
	case IsHighByte(id):
		idx := gpIndex(id)
		s.gp[idx] = (s.gp[idx] &^ 0xFF00) | ((v & 0xFF) << 8)
		return
	}

	idx := gpIndex(id)
	if idx < 0 {
		panic("machine: Set on unknown register")
	}
	switch Width(id) {
	case 64:
		s.gp[idx] = v
	case 32:
		s.gp[idx] = v & 0xFFFFFFFF // zero-extend to 64 bits
	case 16:
		s.gp[idx] = (s.gp[idx] &^ 0xFFFF) | (v & 0xFFFF)
	case 8:
		s.gp[idx] = (s.gp[idx] &^ 0xFF) | (v & 0xFF)
	}
}

// translate resolves a virtual address through CR3's page table, or
// returns it unchanged when CR3 is zero.
func (s *State) translate(va uint64) uint64 {
	return s.Memory.Translate(va, s.CRs[2])
}

// ReadByte reads one byte through the virtual-to-physical translator.
func (s *State) ReadByte(va uint64) byte {
	return s.Memory.ReadByte(s.translate(va))
}

// Read reads `length` bytes starting at virtual address va. Addresses
// straddling a page boundary are handled transparently by Memory.
func (s *State) Read(va uint64, length int) []byte {
	pa := s.translate(va)
	return s.Memory.Read(pa, length)
}

// Write writes data starting at virtual address va.
func (s *State) Write(va uint64, data []byte) {
	pa := s.translate(va)
	s.Memory.Write(pa, data)
}

// ReadUint reads a little-endian unsigned integer of `size` bits at va.
func (s *State) ReadUint(va uint64, size int) uint64 {
	b := s.Read(va, size/8)
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// WriteUint writes a little-endian unsigned integer of `size` bits at va.
func (s *State) WriteUint(va uint64, size int, v uint64) {
	b := make([]byte, size/8)
	for i := range b {
		b[i] = byte(v)
		v >>= 8
	}
	s.Write(va, b)
}

// Push decrements RSP by len(data) and writes data at the new RSP.
func (s *State) Push(data []byte) {
	sp := s.Get(RSP) - uint64(len(data))
	s.Set(RSP, sp)
	s.Write(sp, data)
}

// Pop reads 8 bytes at RSP and advances RSP by 8, matching spec.md's
// stack API (the emulator only ever pushes/pops 64-bit words).
func (s *State) Pop() uint64 {
	sp := s.Get(RSP)
	v := s.ReadUint(sp, 64)
	s.Set(RSP, sp+8)
	return v
}

// PushQword pushes a single 64-bit value.
func (s *State) PushQword(v uint64) {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(v)
		v >>= 8
	}
	s.Push(b)
}
