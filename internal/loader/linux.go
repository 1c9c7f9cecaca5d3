// linux.go - loads a Linux bzImage using the 64-bit boot protocol.
//
// Grounded on original_source/src/loader/linux.rs (supplemented into
// SPEC_FULL.md: spec.md's distillation only names "a Linux loader",
// not its exact layout) and implemented with encoding/binary, the
// standard library's idiomatic tool for fixed-layout binary headers —
// no example repo in the pack parses a boot-sector-style header, so
// there is no third-party precedent to follow instead.
package loader

import (
	"encoding/binary"
	"fmt"
	"os"

	"x86emu/internal/machine"
)

const (
	setupSectsOffset  = 0x1F1
	bootFlagOffset    = 0x1FE
	headerMagicOffset = 0x202
	versionOffset     = 0x206
	jumpFieldOffset   = 0x201 // size, in bytes beyond 0x202, of the rest of the setup header
	codeEntry64Offset = 0x0200 // offset from the start of protected-mode code to the 64-bit entry point

	kernelLoadAddress = 0x100000
	zeroPageAddress   = 0x140a0
	cmdlineAddress    = 0x20000
	cmdlinePtrOffset  = 0x228 // zero-page offset of the command-line pointer (hdr.cmd_line_ptr)

	screenInfoOffset = 0 // struct screen_info sits at the start of the zero page
)

// LoadLinux reads a bzImage file, copies its protected-mode kernel
// image to 1 MiB, builds a "zero page" boot_params structure at
// 0x140a0, places an (empty) command-line string at 0x20000, and
// returns the 64-bit entry point. The exact offsets follow
// original_source/src/loader/linux.rs, which spec.md's distillation
// only described as "a Linux loader" without the byte-level layout.
func LoadLinux(path string, state *machine.State) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("loader: read %s: %w", path, err)
	}
	if len(data) < 0x400 {
		return 0, fmt.Errorf("loader: %s is too small to be a bzImage", path)
	}

	bootFlag := binary.LittleEndian.Uint16(data[bootFlagOffset:])
	if bootFlag != 0xAA55 {
		return 0, fmt.Errorf("loader: %s has no valid boot signature", path)
	}
	magic := binary.LittleEndian.Uint32(data[headerMagicOffset:])
	if magic != 0x53726448 { // "HdrS"
		return 0, fmt.Errorf("loader: %s has no HdrS setup header", path)
	}

	version := binary.LittleEndian.Uint16(data[versionOffset:])
	if version < 0x020A {
		return 0, fmt.Errorf("loader: bzImage protocol %04x predates the 64-bit entry point", version)
	}

	setupSects := int(data[setupSectsOffset])
	if setupSects == 0 {
		setupSects = 4
	}
	setupSize := (setupSects + 1) * 512
	if setupSize >= len(data) {
		return 0, fmt.Errorf("loader: setup_sects implies a header larger than the file")
	}

	kernelImage := data[setupSize:]
	state.Write(kernelLoadAddress, kernelImage)

	zeroPage := make([]byte, 0x1000)

	headerEnd := headerMagicOffset + int(data[jumpFieldOffset])
	if headerEnd > len(data) {
		headerEnd = len(data)
	}
	copy(zeroPage[setupSectsOffset:], data[setupSectsOffset:headerEnd])

	// screen_info: origin-video-mode-independent fields a guest's early
	// console driver reads before it has probed anything itself.
	zeroPage[screenInfoOffset+1] = 9  // orig_video_page count placeholder / orig_video_mode
	zeroPage[screenInfoOffset+6] = 6  // orig_video_ega_bx low byte
	zeroPage[screenInfoOffset+7] = 80 // orig_video_cols
	zeroPage[screenInfoOffset+14] = 25 // orig_video_lines

	binary.LittleEndian.PutUint32(zeroPage[cmdlinePtrOffset:], uint32(cmdlineAddress))

	state.Write(zeroPageAddress, zeroPage)
	state.Write(cmdlineAddress, []byte{0}) // empty command line, NUL-terminated

	state.Set(machine.RSI, zeroPageAddress)

	return kernelLoadAddress + codeEntry64Offset, nil
}
