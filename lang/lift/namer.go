package lift

import "fmt"

// scopeVar is the (scopeId, varSlot) key original §4.7's naming bijection is
// keyed by.
type scopeVar struct {
	scope int
	slot  int
}

const (
	maxSaneScope = 1000
	maxSaneSlot  = 10000
)

// Namer assigns stable var_N names to (scopeId, varSlot) pairs, minting a
// fresh name the first time a pair is seen. It is shared across a whole
// payload's lift, including every nested BUILD_FUNCTION recursion, so
// numbering stays monotonic across function bodies (original §5's
// shared-resource policy extended to this lifter-owned resource).
type Namer struct {
	next  int
	names map[scopeVar]string
}

// NewNamer returns an empty Namer.
func NewNamer() *Namer {
	return &Namer{names: make(map[scopeVar]string)}
}

// Name returns the variable name for (scope, slot). Pairs outside the sane
// bounds (original §4.7: scope > 1000 or slot > 10000, or either negative)
// never enter the bijection -- each out-of-bounds sighting mints its own
// fresh var_unknown_N rather than collapsing distinct garbage values onto a
// shared normalized (0,0) key.
func (n *Namer) Name(scope, slot int) string {
	if scope < 0 || scope > maxSaneScope || slot < 0 || slot > maxSaneSlot {
		name := fmt.Sprintf("var_unknown_%d", n.next)
		n.next++
		return name
	}

	key := scopeVar{scope, slot}
	if name, ok := n.names[key]; ok {
		return name
	}
	name := fmt.Sprintf("var_%d", n.next)
	n.next++
	n.names[key] = name
	return name
}
