package driver

import (
	"bytes"
	"testing"

	"x86emu/internal/machine"
)

func newState(bytes_ []byte, entry uint64) *machine.State {
	s := machine.New()
	s.Stdout = new(bytes.Buffer)
	s.Stderr = new(bytes.Buffer)
	s.Write(entry, bytes_)
	s.RIP = entry
	s.Set(machine.RSP, 0x90000)
	return s
}

func TestRunMovIntHalts(t *testing.T) {
	// mov eax, 1 ; int 0x80
	s := newState([]byte{0xB8, 0x01, 0x00, 0x00, 0x00, 0xCD, 0x80}, 0)
	result, err := Run(s, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.InstructionCount != 2 {
		t.Errorf("InstructionCount = %d, want 2", result.InstructionCount)
	}
	if s.Get(machine.EAX) != 1 {
		t.Errorf("EAX = %#x, want 1", s.Get(machine.EAX))
	}
}

func TestRunRepMovsbCopiesBuffer(t *testing.T) {
	// rep movsb ; hlt, with RSI/RDI/RCX pre-set and a source buffer.
	s := newState([]byte{0xF3, 0xA4, 0xF4}, 0x2000)
	srcAddr := uint64(0x3000)
	dstAddr := uint64(0x4000)
	s.Write(srcAddr, []byte("hello"))
	s.Set(machine.RSI, srcAddr)
	s.Set(machine.RDI, dstAddr)
	s.Set(machine.RCX, 5)

	_, err := Run(s, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := s.Read(dstAddr, 5)
	if string(got) != "hello" {
		t.Errorf("copied buffer = %q, want \"hello\"", got)
	}
	if s.Get(machine.RCX) != 0 {
		t.Errorf("RCX after rep movsb = %d, want 0", s.Get(machine.RCX))
	}
}

func TestRunCallThenPopRecoversReturnAddress(t *testing.T) {
	// call next; next: pop rax; hlt
	// E8 00 00 00 00 (call +0, i.e. the very next instruction)
	s := newState([]byte{0xE8, 0x00, 0x00, 0x00, 0x00, 0x58, 0xF4}, 0)
	_, err := Run(s, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Get(machine.RAX) != 5 { // address right after the call instruction
		t.Errorf("RAX = %#x, want 5", s.Get(machine.RAX))
	}
}

func TestRunDivideByZeroIsFatal(t *testing.T) {
	s := newState([]byte{0x31, 0xC9, 0xF7, 0xF1}, 0) // xor ecx,ecx ; div ecx
	_, err := Run(s, Options{})
	if err == nil {
		t.Fatal("Run should report a fatal error on divide by zero")
	}
}

func TestRunIncRaxWrapsToZeroWithZF(t *testing.T) {
	// mov rax, -1 ; inc rax ; int 0x80
	s := newState([]byte{0x48, 0xC7, 0xC0, 0xFF, 0xFF, 0xFF, 0xFF, 0x48, 0xFF, 0xC0, 0xCD, 0x80}, 0)
	_, err := Run(s, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Get(machine.RAX) != 0 {
		t.Errorf("RAX = %#x, want 0", s.Get(machine.RAX))
	}
	if !s.ZF() {
		t.Error("ZF should be set after wrapping to zero")
	}
}

func TestRunPushPopAddRecombinesStackedValues(t *testing.T) {
	// push 5 ; push 7 ; pop rax ; pop rbx ; add rax, rbx ; int 0x80
	s := newState([]byte{0x6A, 0x05, 0x6A, 0x07, 0x58, 0x5B, 0x48, 0x01, 0xD8, 0xCD, 0x80}, 0)
	_, err := Run(s, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Get(machine.RAX) != 12 {
		t.Errorf("RAX = %#x, want 12", s.Get(machine.RAX))
	}
	if s.CF() || s.OF() {
		t.Error("CF and OF should both be clear: 5+7 does not overflow")
	}
}

func TestRunCmpAlAlAlwaysEqual(t *testing.T) {
	s := newState([]byte{0x3C, 0x00, 0x38, 0xC0, 0xF4}, 0) // cmp al, 0 ; cmp al, al ; hlt
	s.Set(machine.AL, 0x99)
	_, err := Run(s, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !s.ZF() || s.CF() || s.SF() || s.OF() {
		t.Error("cmp al,al should set ZF and clear CF/SF/OF regardless of AL")
	}
}
