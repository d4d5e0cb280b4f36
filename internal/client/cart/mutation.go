package cart

// Op identifies a line-item-mutating operation.
type Op string

const (
	// OpAdd appends a new line item.
	OpAdd Op = "add"
	// OpUpdate changes a line item's quantity.
	OpUpdate Op = "update"
	// OpRemove deletes a line item.
	OpRemove Op = "remove"
	// OpClear empties the cart.
	OpClear Op = "clear"
)

// MutationState is the tagged state of one pending mutation. Every
// operation walks idle → applied → confirmed or rolled-back.
type MutationState string

const (
	// MutationIdle is the initial state before the local change is made.
	MutationIdle MutationState = "idle"
	// MutationApplied means the optimistic local change is in place.
	MutationApplied MutationState = "applied"
	// MutationConfirmed means the remote accepted the change (or no
	// session exists, making the optimistic state final).
	MutationConfirmed MutationState = "confirmed"
	// MutationRolledBack means the remote rejected the change and the
	// compensating action ran.
	MutationRolledBack MutationState = "rolled-back"
)

// Mutation tracks one operation through its state machine.
type Mutation struct {
	// Op is the operation kind.
	Op Op
	// ItemID is the affected line item, empty for clear.
	ItemID string
	// State is the current tagged state.
	State MutationState
}

// transition advances a mutation and reports it to the hook, if set.
func (e *Engine) transition(m *Mutation, state MutationState) {
	m.State = state
	if e.TransitionHook != nil {
		e.TransitionHook(*m)
	}
}
