package machine

import (
	"bytes"
	"testing"
)

func TestDumpRestoreRoundTrip(t *testing.T) {
	s := New()
	s.Set(RAX, 0x1234)
	s.Write(0x5000, []byte("hi"))
	s.RIP = 0x400000
	s.InstructionCount = 42

	var buf bytes.Buffer
	if err := s.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	r := New()
	if err := r.Restore(&buf); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if r.Get(RAX) != 0x1234 {
		t.Errorf("RAX = %#x, want 0x1234", r.Get(RAX))
	}
	if r.RIP != 0x400000 {
		t.Errorf("RIP = %#x, want 0x400000", r.RIP)
	}
	if got := r.Read(0x5000, 2); string(got) != "hi" {
		t.Errorf("memory at 0x5000 = %q, want \"hi\"", got)
	}
	if r.InstructionCount != 42 {
		t.Errorf("InstructionCount = %d, want 42", r.InstructionCount)
	}
}
