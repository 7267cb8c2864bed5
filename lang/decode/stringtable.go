package decode

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/mna/vmdecompile/lang/ir"
)

// stringXorMask masks each UTF-16 code unit's low byte, per original §6:
// "XOR'd with 0x0080 (low byte)".
const stringXorMask = 0x0080

// StringTable decodes the auxiliary string-table byte vector (original
// §4.2/§6): repeating records of {length:u32LE, codeUnits:length x u16LE},
// each code unit XOR'd with 0x0080 to recover the source character.
// Decoding stops gracefully at end-of-stream or when a record's length
// would overrun the buffer, returning everything decoded so far -- this
// mirrors the byte decoder's "best effort, never all-or-nothing" policy
// (original §7).
func StringTable(data []byte) *ir.StringTable {
	var entries []string
	i := 0
	for i+4 <= len(data) {
		length := binary.LittleEndian.Uint32(data[i : i+4])
		i += 4

		need := int(length) * 2
		if need < 0 || i+need > len(data) {
			break
		}

		units := make([]uint16, length)
		for u := 0; u < int(length); u++ {
			raw := binary.LittleEndian.Uint16(data[i : i+2])
			units[u] = raw ^ stringXorMask
			i += 2
		}
		entries = append(entries, string(utf16.Decode(units)))
	}
	return ir.NewStringTable(entries)
}

// EncodeStringTable is the trivial encoder StringTable inverts (original
// §8, R3): length-prefix each string's UTF-16 code units and XOR each unit's
// low byte with 0x80. It exists for tests and for any caller that needs to
// build a synthetic payload.
func EncodeStringTable(strs []string) []byte {
	var out []byte
	for _, s := range strs {
		units := utf16.Encode([]rune(s))
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(len(units)))
		out = append(out, lenBuf...)
		for _, u := range units {
			unitBuf := make([]byte, 2)
			binary.LittleEndian.PutUint16(unitBuf, u^stringXorMask)
			out = append(out, unitBuf...)
		}
	}
	return out
}
