package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpString(t *testing.T) {
	for op := Op(0); op < opMax; op++ {
		if opNames[op] == "" {
			t.Errorf("missing string representation of op %d", int(op))
		}
		if s := op.String(); strings.Contains(s, "illegal") {
			t.Errorf("invalid string representation of op %d", int(op))
		}
	}
}

func TestOpByName(t *testing.T) {
	op, ok := OpByName("ADD")
	require.True(t, ok)
	require.Equal(t, OpAdd, op)

	_, ok = OpByName("NOT_A_REAL_OP")
	require.False(t, ok)
}

func TestOpcodeMap(t *testing.T) {
	m := NewOpcodeMap()
	m.Set(0x42, OpAdd)
	m.Set(0x17, OpSub)

	op, ok := m.Lookup(0x42)
	require.True(t, ok)
	require.Equal(t, OpAdd, op)

	require.Equal(t, "ADD", m.Name(0x42))
	require.Equal(t, "UNKNOWN_99", m.Name(99))
	require.Equal(t, 2, m.Len())
	require.Equal(t, []uint8{0x17, 0x42}, m.RawOpcodes())
}

func TestSwappedOpcodes(t *testing.T) {
	s := NewSwappedOpcodes()
	require.False(t, s.Contains(5))
	s.Add(5)
	require.True(t, s.Contains(5))
}
