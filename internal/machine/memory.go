// memory.go - demand-paged virtual memory and the three-level page walk.
//
// Grounded on cpu_x86.go's read8/16/32/write8/16/32 little-endian byte
// helpers, generalized from a flat 32 MiB array to a lazily-allocated
// page map (spec.md section 4.1: "demand-allocated 4 KiB pages keyed by
// page number"). The page walk is a documented three-level partial
// implementation of the real four-level x86-64 scheme, matching the
// behavior observed in original_source/src/mmu.rs and called out as an
// open question in spec.md section 9.
package machine

const (
	pageSize  = 4096
	pageShift = 12
	pageMask  = pageSize - 1
)

// vgaBase/vgaEnd bound the text-mode console window; writes landing on
// an even offset inside it are mirrored to State.VGA as a single byte,
// matching spec.md's "side effect" note for the Linux boot path.
const (
	vgaBase = 0xB8000
	vgaEnd  = vgaBase + 80*25*2
)

// Memory is a demand-paged byte-addressable physical address space.
type Memory struct {
	pages map[uint64][]byte
	// vga receives the low byte of every even-offset write that lands
	// in the VGA text window. Nil disables the side effect.
	vga func(b byte)
}

// NewMemory returns an empty memory with no pages materialized.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint64][]byte)}
}

// SetVGASink installs the callback invoked on VGA text-window writes.
func (m *Memory) SetVGASink(fn func(b byte)) {
	m.vga = fn
}

func (m *Memory) page(number uint64, allocate bool) []byte {
	p, ok := m.pages[number]
	if !ok {
		if !allocate {
			return nil
		}
		p = make([]byte, pageSize)
		m.pages[number] = p
	}
	return p
}

// ReadByte reads a single byte at physical address pa, returning zero
// for unmapped pages (they read as if zero-filled, per spec.md).
func (m *Memory) ReadByte(pa uint64) byte {
	p := m.page(pa>>pageShift, false)
	if p == nil {
		return 0
	}
	return p[pa&pageMask]
}

// Read reads `length` bytes starting at pa, straddling pages as needed.
func (m *Memory) Read(pa uint64, length int) []byte {
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = m.ReadByte(pa + uint64(i))
	}
	return out
}

// WriteByte writes a single byte at physical address pa, materializing
// its page on first touch.
func (m *Memory) WriteByte(pa uint64, v byte) {
	p := m.page(pa>>pageShift, true)
	p[pa&pageMask] = v
	if m.vga != nil && pa >= vgaBase && pa < vgaEnd && pa%2 == 0 {
		m.vga(v)
	}
}

// Write writes data starting at physical address pa.
func (m *Memory) Write(pa uint64, data []byte) {
	for i, b := range data {
		m.WriteByte(pa+uint64(i), b)
	}
}

// Translate converts a virtual address to a physical one. When cr3 is
// zero the mapping is identity (flat/real mode). Otherwise it performs
// the documented three-level walk: index bits 12-21, 21-30 and 30-39
// select successive table entries; bits 39 and above are ignored and the
// fourth level is elided, matching the behavior inherited from the
// original implementation (see spec.md section 9 and DESIGN.md).
//
// TODO: a faithful x86-64 walk needs a fourth table level (bits 39-48);
// the source this was ported from only implements three, so virtual
// addresses that differ only in bit 39 or above (512 GiB and up)
// translate to the same physical address. Kept as-is to match the
// reference behavior.
func (m *Memory) Translate(va uint64, cr3 uint64) uint64 {
	if cr3 == 0 {
		return va
	}
	offset := va & pageMask
	idx1 := (va >> 12) & 0x1FF
	idx2 := (va >> 21) & 0x1FF
	idx3 := (va >> 30) & 0x1FF

	level3 := m.readTableBase(cr3, idx3)
	level2 := m.readTableBase(level3, idx2)
	level1 := m.readTableBase(level2, idx1)
	return level1 + offset
}

// readTableBase reads the 8-byte descriptor at tableBase+index*8 and
// masks off the low 12 bits to produce the next table's base address.
func (m *Memory) readTableBase(tableBase uint64, index uint64) uint64 {
	addr := tableBase + index*8
	b := m.Read(addr, 8)
	var entry uint64
	for i := 7; i >= 0; i-- {
		entry = entry<<8 | uint64(b[i])
	}
	return entry &^ pageMask
}
