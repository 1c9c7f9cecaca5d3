package decode

import (
	"testing"

	"x86emu/internal/machine"
)

func newDecoderWithBytes(b []byte) (*Decoder, *machine.State) {
	s := machine.New()
	s.Write(0, b)
	return New(s), s
}

func TestDecodeMovRegImmediate32(t *testing.T) {
	// mov eax, 0x12345678  -> B8 78 56 34 12
	d, _ := newDecoderWithBytes([]byte{0xB8, 0x78, 0x56, 0x34, 0x12})
	ins := d.Decode(0)
	if ins.Kind != KindMov {
		t.Fatalf("Kind = %v, want KindMov", ins.Kind)
	}
	if ins.Op1.Register != machine.EAX {
		t.Errorf("Op1 register = %v, want EAX", ins.Op1.Register)
	}
	if ins.Op2.Immediate != 0x12345678 {
		t.Errorf("Op2 immediate = %#x, want 0x12345678", ins.Op2.Immediate)
	}
	if ins.Length != 5 {
		t.Errorf("Length = %d, want 5", ins.Length)
	}
}

func TestDecodeMovRegImmediate64WithREX(t *testing.T) {
	// REX.W mov rax, imm64 -> 48 B8 <8 bytes>
	d, _ := newDecoderWithBytes([]byte{0x48, 0xB8, 1, 0, 0, 0, 0, 0, 0, 0})
	ins := d.Decode(0)
	if ins.Size != 64 {
		t.Errorf("Size = %d, want 64", ins.Size)
	}
	if ins.Length != 10 {
		t.Errorf("Length = %d, want 10", ins.Length)
	}
}

func TestDecodeArithmeticRowMatchesGroup1SubOp(t *testing.T) {
	// add eax, ecx -> 01 C8 ; cmp al, 1 -> 3C 01
	d, _ := newDecoderWithBytes([]byte{0x01, 0xC8})
	ins := d.Decode(0)
	if ins.Kind != KindArithmetic || ins.SubOp != 0 {
		t.Errorf("add decoded as kind=%v sub=%d, want KindArithmetic sub=0", ins.Kind, ins.SubOp)
	}

	d2, _ := newDecoderWithBytes([]byte{0x3C, 0x01})
	ins2 := d2.Decode(0)
	if ins2.Kind != KindArithmetic || ins2.SubOp != 7 {
		t.Errorf("cmp decoded as kind=%v sub=%d, want KindArithmetic sub=7", ins2.Kind, ins2.SubOp)
	}
}

func TestDecodeRIPRelativeModRM(t *testing.T) {
	// mov eax, [rip+0x10] -> 8B 05 10 00 00 00
	d, _ := newDecoderWithBytes([]byte{0x8B, 0x05, 0x10, 0x00, 0x00, 0x00})
	ins := d.Decode(0)
	if ins.Op2.Kind != OperandMemory {
		t.Fatalf("Op2 kind = %v, want OperandMemory", ins.Op2.Kind)
	}
	if ins.Op2.Base == nil || *ins.Op2.Base != machine.RIP {
		t.Errorf("Op2 base = %v, want RIP", ins.Op2.Base)
	}
	if ins.Op2.Displacement != 0x10 {
		t.Errorf("Op2 displacement = %d, want 16", ins.Op2.Displacement)
	}
}

func TestDecodeSIBNoIndex(t *testing.T) {
	// mov eax, [rsp] -> 8B 04 24
	d, _ := newDecoderWithBytes([]byte{0x8B, 0x04, 0x24})
	ins := d.Decode(0)
	if ins.Op2.Index != nil {
		t.Errorf("Op2 index = %v, want nil (SIB index field 100 means none)", ins.Op2.Index)
	}
	if ins.Op2.Base == nil || *ins.Op2.Base != machine.RSP {
		t.Errorf("Op2 base = %v, want RSP", ins.Op2.Base)
	}
	if ins.Length != 3 {
		t.Errorf("Length = %d, want 3", ins.Length)
	}
}

func TestDecodeCacheReturnsSameEntry(t *testing.T) {
	d, _ := newDecoderWithBytes([]byte{0x90})
	a := d.Decode(0)
	b := d.Decode(0)
	if a != b {
		t.Error("Decode should return the cached pointer for a repeated RIP")
	}
}

func TestDecodeLeaveHasNoOperands(t *testing.T) {
	d, _ := newDecoderWithBytes([]byte{0xC9})
	ins := d.Decode(0)
	if ins.Kind != KindLeave || ins.Length != 1 {
		t.Errorf("kind=%v length=%d, want KindLeave length=1", ins.Kind, ins.Length)
	}
}

func TestDecodeLgdtCapturesMemoryOperand(t *testing.T) {
	// lgdt [rax] -> 0F 01 10 (ModRM: mod=00 reg=010 rm=000)
	d, _ := newDecoderWithBytes([]byte{0x0F, 0x01, 0x10})
	ins := d.Decode(0)
	if ins.Kind != KindDescriptorLoad || ins.SubOp != 0 {
		t.Errorf("kind=%v sub=%d, want KindDescriptorLoad sub=0 (LGDT)", ins.Kind, ins.SubOp)
	}
	if ins.Op1 == nil || ins.Op1.Kind != OperandMemory {
		t.Fatalf("Op1 = %v, want a memory operand", ins.Op1)
	}
}

func TestDecodeJccRel8(t *testing.T) {
	// jz +5 -> 74 05
	d, _ := newDecoderWithBytes([]byte{0x74, 0x05})
	ins := d.Decode(0)
	if ins.Kind != KindJcc || ins.SubOp != 4 {
		t.Errorf("kind=%v sub=%d, want KindJcc sub=4 (JZ)", ins.Kind, ins.SubOp)
	}
	if ins.Op1.Immediate != 5 {
		t.Errorf("displacement = %d, want 5", ins.Op1.Immediate)
	}
}
