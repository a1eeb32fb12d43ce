package reflection

import (
	"encoding/binary"
	"fmt"

	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
)

const spirvMagic = 0x07230203

// ValidateBytecode checks that a blob is plausibly SPIR-V before it is
// registered as a precompiled shader: non-empty, word-aligned, at least a
// full header, correct magic number.
func ValidateBytecode(bytecode []byte) error {
	if len(bytecode) == 0 {
		return fmt.Errorf("%w: empty bytecode", interfaces.ErrInvalidBytecode)
	}
	if len(bytecode)%4 != 0 || len(bytecode) < spirvHeaderWords*4 {
		return fmt.Errorf("%w: truncated bytecode (%d bytes)", interfaces.ErrInvalidBytecode, len(bytecode))
	}
	if magic := binary.LittleEndian.Uint32(bytecode); magic != spirvMagic {
		return fmt.Errorf("%w: bad magic 0x%08x", interfaces.ErrInvalidBytecode, magic)
	}
	return nil
}
