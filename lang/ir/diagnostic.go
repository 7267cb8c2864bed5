package ir

import "fmt"

// Diagnostic is a non-fatal finding recorded by any pipeline stage, per
// original §7's "best effort, never all-or-nothing" error policy: version
// ambiguity, an unknown opcode, a lifter-side stack underflow, a structuring
// fallback to unstructured labels, and so on all become a Diagnostic instead
// of aborting the run.
type Diagnostic struct {
	Component string // e.g. "decode", "disasm", "region", "lift"
	Message   string
	Addr      uint32 // 0 if not applicable to a specific address
	HasAddr   bool
}

func (d Diagnostic) String() string {
	if d.HasAddr {
		return fmt.Sprintf("%s: %s (addr=%d)", d.Component, d.Message, d.Addr)
	}
	return fmt.Sprintf("%s: %s", d.Component, d.Message)
}

// DiagnosticSink accumulates Diagnostics across every stage of one
// decompile run. It is threaded by pointer from decode through disasm, cfg,
// region and lift; nothing in the pipeline runs concurrently, so a plain
// slice needs no locking (original §5, "no shared mutable state... no
// cross-thread coordination").
type DiagnosticSink struct {
	diags []Diagnostic
}

// NewDiagnosticSink returns an empty sink.
func NewDiagnosticSink() *DiagnosticSink {
	return &DiagnosticSink{}
}

// Add records a diagnostic with no associated address.
func (s *DiagnosticSink) Add(component, message string) {
	if s == nil {
		return
	}
	s.diags = append(s.diags, Diagnostic{Component: component, Message: message})
}

// Addf is Add with fmt.Sprintf-style formatting.
func (s *DiagnosticSink) Addf(component, format string, args ...any) {
	s.Add(component, fmt.Sprintf(format, args...))
}

// AddAt records a diagnostic tied to a specific address.
func (s *DiagnosticSink) AddAt(component string, addr uint32, message string) {
	if s == nil {
		return
	}
	s.diags = append(s.diags, Diagnostic{Component: component, Message: message, Addr: addr, HasAddr: true})
}

// All returns every diagnostic recorded so far, in recording order.
func (s *DiagnosticSink) All() []Diagnostic {
	if s == nil {
		return nil
	}
	return s.diags
}

// Len returns the number of diagnostics recorded so far.
func (s *DiagnosticSink) Len() int {
	if s == nil {
		return 0
	}
	return len(s.diags)
}
