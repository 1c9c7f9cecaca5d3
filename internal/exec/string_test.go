package exec

import (
	"testing"

	"x86emu/internal/machine"
)

func TestRepMovsbWithZeroCounterIsNoop(t *testing.T) {
	s := machine.New()
	s.Set(machine.RSI, 0x3000)
	s.Set(machine.RDI, 0x4000)
	s.Set(machine.RCX, 0)
	step(t, s, []byte{0xF3, 0xA4}) // rep movsb
	if s.Get(machine.RSI) != 0x3000 {
		t.Errorf("RSI = %#x, want unchanged 0x3000", s.Get(machine.RSI))
	}
	if s.Get(machine.RDI) != 0x4000 {
		t.Errorf("RDI = %#x, want unchanged 0x4000", s.Get(machine.RDI))
	}
}

func TestRepMovsbCopiesAndAdvancesPointers(t *testing.T) {
	s := machine.New()
	s.Write(0x3000, []byte{1, 2, 3, 4})
	s.Set(machine.RSI, 0x3000)
	s.Set(machine.RDI, 0x5000)
	s.Set(machine.RCX, 4)
	step(t, s, []byte{0xF3, 0xA4}) // rep movsb
	got := s.Read(0x5000, 4)
	for i, want := range []byte{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("byte %d = %d, want %d", i, got[i], want)
		}
	}
	if s.Get(machine.RCX) != 0 {
		t.Errorf("RCX = %d, want 0", s.Get(machine.RCX))
	}
	if s.Get(machine.RSI) != 0x3004 || s.Get(machine.RDI) != 0x5004 {
		t.Errorf("RSI/RDI = %#x/%#x, want 0x3004/0x5004", s.Get(machine.RSI), s.Get(machine.RDI))
	}
}

func TestRepneScasbStopsOnFirstMatch(t *testing.T) {
	s := machine.New()
	s.Write(0x3000, []byte("abcX"))
	s.Set(machine.RDI, 0x3000)
	s.Set(machine.RCX, 10)
	s.Set(machine.AL, 'X')
	step(t, s, []byte{0xF2, 0xAE}) // repne scasb
	if !s.ZF() {
		t.Error("ZF should be set: the byte at the match was found")
	}
	if s.Get(machine.RCX) != 6 {
		t.Errorf("RCX = %d, want 6 (stopped after 4 of 10 iterations)", s.Get(machine.RCX))
	}
	if s.Get(machine.RDI) != 0x3004 {
		t.Errorf("RDI = %#x, want 0x3004 (one past the match)", s.Get(machine.RDI))
	}
}

func TestRepneScasbRunsToCompletionWithNoMatch(t *testing.T) {
	s := machine.New()
	s.Write(0x3000, []byte("abcd"))
	s.Set(machine.RDI, 0x3000)
	s.Set(machine.RCX, 4)
	s.Set(machine.AL, 'X')
	step(t, s, []byte{0xF2, 0xAE}) // repne scasb
	if s.ZF() {
		t.Error("ZF should be clear: no byte matched")
	}
	if s.Get(machine.RCX) != 0 {
		t.Errorf("RCX = %d, want 0 (drained with no match)", s.Get(machine.RCX))
	}
	if s.Get(machine.RDI) != 0x3004 {
		t.Errorf("RDI = %#x, want 0x3004", s.Get(machine.RDI))
	}
}
