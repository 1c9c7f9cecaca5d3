package machine

import "testing"

func TestComputeFlagsZero(t *testing.T) {
	s := New()
	s.ComputeFlags(0, 32)
	if !s.ZF() {
		t.Error("ZF should be set for a zero result")
	}
	if s.SF() {
		t.Error("SF should be clear for a zero result")
	}
	if !s.PF() {
		t.Error("PF should be set: zero has even parity")
	}
}

func TestComputeFlagsDoesNotTouchCFOrOF(t *testing.T) {
	s := New()
	s.SetFlag(FlagCF, true)
	s.SetFlag(FlagOF, true)
	s.ComputeFlags(0, 32)
	if !s.CF() || !s.OF() {
		t.Error("ComputeFlags must not modify CF/OF")
	}
}

func TestComputeFlagsSignBitByWidth(t *testing.T) {
	s := New()
	s.ComputeFlags(0x80, 8)
	if !s.SF() {
		t.Error("0x80 at width 8 should set SF")
	}

	s.ComputeFlags(0x80, 16)
	if s.SF() {
		t.Error("0x80 at width 16 should not set SF")
	}
}
