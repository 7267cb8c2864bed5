package ir

import "fmt"

// StringTable is the ordered vector of strings decoded from the payload's
// auxiliary byte array (original §4.2). It is read-only after construction
// and may be freely aliased across nested disassembly/lifting recursions.
type StringTable struct {
	entries []string
}

// NewStringTable wraps entries (already decoded) as a StringTable.
func NewStringTable(entries []string) *StringTable {
	return &StringTable{entries: entries}
}

// Len returns the number of entries in the table.
func (t *StringTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// At returns the string at idx, and whether idx was in range. A missing
// string table or an out-of-range index is not fatal anywhere in the
// pipeline: callers fall back to a placeholder (original §7.1 "strings not
// found: recover by emitting string indices in place of literals").
func (t *StringTable) At(idx uint32) (string, bool) {
	if t == nil || idx >= uint32(len(t.entries)) {
		return "", false
	}
	return t.entries[idx], true
}

// AtOrPlaceholder returns the string at idx, or a "<string#N>" placeholder
// if the table is absent or idx is out of range.
func (t *StringTable) AtOrPlaceholder(idx uint32) string {
	if s, ok := t.At(idx); ok {
		return s
	}
	return fmt.Sprintf("<string#%d>", idx)
}
