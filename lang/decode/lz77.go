package decode

import "encoding/binary"

// InflateLZ77 reverses the V2 minimal back-reference scheme described in
// original §6: a sequence of groups, each led by a flag byte whose 8 bits
// (LSB-first) select, for each of the following up to eight slots, a
// literal byte (bit=1) or a (distance,length) copy (bit=0), both 16-bit
// little-endian. Decoding halts when the input is exhausted, even
// mid-group -- a truncated final group is not an error.
func InflateLZ77(data []byte) []byte {
	var out []byte
	i := 0
	for i < len(data) {
		flag := data[i]
		i++
		for bit := 0; bit < 8 && i < len(data); bit++ {
			isLiteral := flag&(1<<uint(bit)) != 0
			if isLiteral {
				out = append(out, data[i])
				i++
				continue
			}
			if i+4 > len(data) {
				// truncated back-reference at end of stream: stop gracefully
				// rather than panic or fabricate bytes.
				return out
			}
			distance := binary.LittleEndian.Uint16(data[i : i+2])
			length := binary.LittleEndian.Uint16(data[i+2 : i+4])
			i += 4
			start := len(out) - int(distance)
			if start < 0 {
				return out
			}
			for n := 0; n < int(length); n++ {
				out = append(out, out[start+n])
			}
		}
	}
	return out
}

// DeflateLZ77 is the trivial encoder InflateLZ77 inverts; it emits every
// byte as a literal. It exists only to give the decoder's round-trip tests
// (original §8, R3's sibling property for the bytecode transport) a
// reference encoder, mirroring how the string-table decoder's tests build
// fixtures from its own trivial encoder.
func DeflateLZ77(data []byte) []byte {
	var out []byte
	for i := 0; i < len(data); i += 8 {
		chunk := data[i:]
		if len(chunk) > 8 {
			chunk = chunk[:8]
		}
		out = append(out, 0xFF) // all eight slots literal
		out = append(out, chunk...)
	}
	return out
}
