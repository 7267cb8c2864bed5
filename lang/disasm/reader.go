package disasm

import (
	"encoding/binary"
	"math"

	"github.com/mna/vmdecompile/lang/ir"
)

// reader is a bounds-checked cursor over a decoded instruction stream.
// Every read method reports ir.ErrOperandUnderrun instead of panicking when
// asked to read past the end, per original §4.3/§7.4: an operand underrun
// annotates the instruction in progress and halts that body, it never
// crashes the process.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) done() bool {
	return r.pos >= len(r.data)
}

func (r *reader) addr() uint32 {
	return uint32(r.pos)
}

func (r *reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return ir.ErrOperandUnderrun
	}
	return nil
}

func (r *reader) readByte() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readDword() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *reader) readSignedDword() (int32, error) {
	v, err := r.readDword()
	return int32(v), err
}

func (r *reader) readDouble() (float64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ir.ErrOperandUnderrun
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
