// snapshot.go - gob-encoded state dump/restore for crash-dump replay.
//
// Grounded on original_source/src/cpu/emu_debug.rs, which round-trips
// MachineState to a file so a failing run can be replayed offline.
// encoding/gob is the standard library's binary codec; no third-party
// serialization library appears anywhere in the retrieval pack, so
// there is nothing else to ground this on.
package machine

import (
	"encoding/gob"
	"fmt"
	"io"
)

// Snapshot is the serializable subset of State: register file, control
// state, and memory pages. I/O sinks and observability toggles are not
// persisted; a restored machine keeps the ones its caller already set.
type Snapshot struct {
	GP               [16]uint64
	RIP              uint64
	CRs              [5]uint64
	GDTR             uint64
	IDTR             uint64
	RFLAGS           uint64
	Pages            map[uint64][]byte
	InstructionCount uint64
}

// Dump gob-encodes a snapshot of s to w.
func (s *State) Dump(w io.Writer) error {
	snap := Snapshot{
		GP:               s.gp,
		RIP:              s.RIP,
		CRs:              s.CRs,
		GDTR:             s.GDTR,
		IDTR:             s.IDTR,
		RFLAGS:           s.RFLAGS,
		Pages:            s.Memory.pages,
		InstructionCount: s.InstructionCount,
	}
	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("machine: encoding snapshot: %w", err)
	}
	return nil
}

// Restore replaces s's register file and memory with a snapshot read
// from r, leaving I/O sinks and observability toggles untouched.
func (s *State) Restore(r io.Reader) error {
	var snap Snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("machine: decoding snapshot: %w", err)
	}
	s.gp = snap.GP
	s.RIP = snap.RIP
	s.CRs = snap.CRs
	s.GDTR = snap.GDTR
	s.IDTR = snap.IDTR
	s.RFLAGS = snap.RFLAGS
	s.InstructionCount = snap.InstructionCount
	if s.Memory == nil {
		s.Memory = NewMemory()
	}
	s.Memory.pages = snap.Pages
	return nil
}
