package ledger

// Machine is the per-contract epoch state machine: either no epoch has been
// observed yet, or an epoch index is active. The pointer only moves forward.
type Machine struct {
	Active bool
	Index  uint64
}

// MachineFor builds the machine from a stored current-epoch pointer. A zero
// pointer on a row that exists is indistinguishable from epoch 0 being
// active, which is the desired reading.
func MachineFor(currentIndex uint64, exists bool) Machine {
	return Machine{Active: exists, Index: currentIndex}
}

// Transition feeds an observed epoch index into the machine. It returns the
// resulting machine and whether the pointer advanced. Stale or equal indexes
// leave the machine untouched.
func (m Machine) Transition(observed uint64) (Machine, bool) {
	if !m.Active || observed > m.Index {
		return Machine{Active: true, Index: observed}, true
	}
	return m, false
}
