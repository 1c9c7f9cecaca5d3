package exec

import (
	"bytes"
	"testing"

	"x86emu/internal/decode"
	"x86emu/internal/machine"
)

func step(t *testing.T, s *machine.State, bytes []byte) *decode.Instruction {
	t.Helper()
	s.Write(s.RIP, bytes)
	d := decode.New(s)
	ex := New(s)
	ins := d.Decode(s.RIP)
	next := s.RIP + uint64(ins.Length)
	if err := ex.Execute(ins, next); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return ins
}

func TestAddSetsCFOnUnsignedOverflow(t *testing.T) {
	s := machine.New()
	s.Set(machine.EAX, 0xFFFFFFFF)
	s.Set(machine.ECX, 1)
	step(t, s, []byte{0x01, 0xC8}) // add eax, ecx
	if s.Get(machine.EAX) != 0 {
		t.Errorf("EAX = %#x, want 0", s.Get(machine.EAX))
	}
	if !s.CF() {
		t.Error("CF should be set on unsigned overflow")
	}
	if !s.ZF() {
		t.Error("ZF should be set: result is zero")
	}
}

func TestAndForcesCFAndOFClear(t *testing.T) {
	s := machine.New()
	s.SetFlag(machine.FlagCF, true)
	s.SetFlag(machine.FlagOF, true)
	s.Set(machine.EAX, 0xFF)
	s.Set(machine.ECX, 0xFF)
	step(t, s, []byte{0x21, 0xC8}) // and eax, ecx
	if s.CF() || s.OF() {
		t.Error("AND must clear CF and OF")
	}
}

func TestIncDoesNotTouchCF(t *testing.T) {
	s := machine.New()
	s.SetFlag(machine.FlagCF, true)
	s.Set(machine.EAX, 0xFFFFFFFF)
	step(t, s, []byte{0xFF, 0xC0}) // inc eax
	if s.Get(machine.EAX) != 0 {
		t.Errorf("EAX = %#x, want 0", s.Get(machine.EAX))
	}
	if !s.ZF() {
		t.Error("ZF should be set after wrapping to zero")
	}
	if !s.CF() {
		t.Error("INC must preserve CF, not clear it")
	}
}

func TestCmpALALAlwaysEqual(t *testing.T) {
	s := machine.New()
	s.Set(machine.AL, 0x42)
	step(t, s, []byte{0x38, 0xC0}) // cmp al, al
	if !s.ZF() || s.CF() {
		t.Error("cmp al,al should set ZF and clear CF")
	}
}

func TestPushPopThroughMemory(t *testing.T) {
	s := machine.New()
	s.Set(machine.RSP, 0x9000)
	s.Set(machine.EAX, 0x1234)
	s.RIP = 0
	step(t, s, []byte{0x50})       // push rax
	s.Set(machine.EAX, 0)
	step(t, s, []byte{0x58})       // pop rax
	if s.Get(machine.RAX) != 0x1234 {
		t.Errorf("RAX after push/pop = %#x, want 0x1234", s.Get(machine.RAX))
	}
}

func TestDivByZeroIsFatal(t *testing.T) {
	s := machine.New()
	s.Set(machine.EAX, 10)
	s.Set(machine.ECX, 0)
	s.Write(0, []byte{0xF7, 0xF1}) // div ecx
	d := decode.New(s)
	ex := New(s)
	ins := d.Decode(0)
	err := ex.Execute(ins, uint64(ins.Length))
	if _, ok := err.(*ErrDivide); !ok {
		t.Errorf("Execute error = %v, want *ErrDivide", err)
	}
}

func TestDivReadsDoubleWidthDividend(t *testing.T) {
	// edx:eax = 2:0 (0x2_0000_0000), div by 4 -> quotient 0x80000000, remainder 0
	s := machine.New()
	s.Set(machine.EDX, 2)
	s.Set(machine.EAX, 0)
	s.Set(machine.ECX, 4)
	step(t, s, []byte{0xF7, 0xF1}) // div ecx
	if s.Get(machine.EAX) != 0x80000000 {
		t.Errorf("EAX = %#x, want 0x80000000", s.Get(machine.EAX))
	}
	if s.Get(machine.EDX) != 0 {
		t.Errorf("EDX = %#x, want 0", s.Get(machine.EDX))
	}
}

func TestLeaveRestoresFramePointer(t *testing.T) {
	s := machine.New()
	s.Set(machine.RSP, 0x1000)
	s.Set(machine.RBP, 0x2000)
	s.Write(0x2000, leBytes(0x3000, 64)) // saved RBP at [old RBP]
	step(t, s, []byte{0xC9})             // leave
	if s.Get(machine.RBP) != 0x3000 {
		t.Errorf("RBP = %#x, want 0x3000", s.Get(machine.RBP))
	}
	if s.Get(machine.RSP) != 0x2008 {
		t.Errorf("RSP = %#x, want 0x2008", s.Get(machine.RSP))
	}
}

func TestInt3IsFatalButIntImm8Halts(t *testing.T) {
	s := machine.New()
	s.Write(0, []byte{0xCC}) // int3
	d := decode.New(s)
	ex := New(s)
	ins := d.Decode(0)
	if err := ex.Execute(ins, uint64(ins.Length)); err == nil {
		t.Error("int3 should be a fatal error")
	} else if _, ok := err.(*ErrHalt); ok {
		t.Error("int3 must not be treated as a clean halt")
	}

	s2 := machine.New()
	s2.Write(0, []byte{0xCD, 0x80}) // int 0x80
	d2 := decode.New(s2)
	ex2 := New(s2)
	ins2 := d2.Decode(0)
	if _, ok := ex2.Execute(ins2, uint64(ins2.Length)).(*ErrHalt); !ok {
		t.Error("int 0x80 should be a clean ErrHalt")
	}
}

func TestMovzxWritesFull64Bits(t *testing.T) {
	s := machine.New()
	s.Set(machine.RAX, 0xFFFFFFFFFFFFFFFF)
	s.Set(machine.BL, 0x7F)
	step(t, s, []byte{0x0F, 0xB6, 0xC3}) // movzx eax, bl
	if s.Get(machine.RAX) != 0x7F {
		t.Errorf("RAX = %#x, want 0x7f (upper bits must be zeroed)", s.Get(machine.RAX))
	}
}

func TestCpuidExtendedLeafReportsLongMode(t *testing.T) {
	s := machine.New()
	s.Set(machine.EAX, 0x80000001)
	step(t, s, []byte{0x0F, 0xA2}) // cpuid
	if s.Get(machine.EDX)&(1<<29) == 0 {
		t.Error("leaf 0x80000001 EDX should report long-mode support (bit 29)")
	}
}

func TestOutWritesTraceAndContinues(t *testing.T) {
	s := machine.New()
	s.Stderr = new(bytes.Buffer)
	s.Set(machine.AL, 0x41)
	s.Set(machine.DX, 0x3F8)
	step(t, s, []byte{0xEE}) // out dx, al
	if s.Stderr.(*bytes.Buffer).Len() == 0 {
		t.Error("OUT should write a trace line to Stderr")
	}
}

func TestHltReturnsErrHalt(t *testing.T) {
	s := machine.New()
	s.Write(0, []byte{0xF4})
	d := decode.New(s)
	ex := New(s)
	ins := d.Decode(0)
	err := ex.Execute(ins, uint64(ins.Length))
	if _, ok := err.(*ErrHalt); !ok {
		t.Errorf("Execute error = %v, want *ErrHalt", err)
	}
}
