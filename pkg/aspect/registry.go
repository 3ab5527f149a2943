package aspect

import (
	"fmt"

	"yqhp/aspect/pkg/controller"
)

// TraitKey is the controller trait a HookTable is stored under.
const TraitKey = "aspects"

// Attach gives t its own HookTable if it has none and returns it.
func Attach(t *controller.Type) *HookTable {
	v := t.TraitOrInit(TraitKey, func() any { return NewHookTable() })
	return v.(*HookTable)
}

// Table returns the HookTable that applies to t: its own, or the nearest
// ancestor's. It returns nil when no type in the chain has one.
func Table(t *controller.Type) *HookTable {
	if t == nil {
		return nil
	}
	v, _, ok := t.AncestralTrait(TraitKey)
	if !ok {
		return nil
	}
	table, _ := v.(*HookTable)
	return table
}

// Before registers block on t ahead of actions, or all actions when none
// are given.
func Before(t *controller.Type, block Block, actions ...string) {
	Attach(t).Before(block, actions...)
}

// BeforeAll registers block on t ahead of every action.
func BeforeAll(t *controller.Type, block Block) {
	Attach(t).BeforeAll(block)
}

// After registers block on t after actions, or all actions when none are
// given.
func After(t *controller.Type, block Block, actions ...string) {
	Attach(t).After(block, actions...)
}

// AfterAll registers block on t after every action.
func AfterAll(t *controller.Type, block Block) {
	Attach(t).AfterAll(block)
}

// Wrap registers block on t before and after actions, or all actions when
// none are given.
func Wrap(t *controller.Type, block Block, actions ...string) {
	Attach(t).Wrap(block, actions...)
}

// WrapAll registers block on t before and after every action.
func WrapAll(t *controller.Type, block Block) {
	Attach(t).WrapAll(block)
}

// Register stores block on t for phase p, which may also be "wrap". An
// unknown phase leaves t untouched.
func Register(t *controller.Type, phase string, block Block, actions ...string) error {
	if !ValidPhase(phase) {
		return &PhaseError{Phase: phase}
	}
	table := Attach(t)
	switch phase {
	case string(PhaseBefore), "pre":
		table.Before(block, actions...)
	case string(PhaseAfter), "post":
		table.After(block, actions...)
	default:
		table.Wrap(block, actions...)
	}
	return nil
}

// PhaseError reports an unknown phase name.
type PhaseError struct {
	Phase string
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("unknown aspect phase %q (want before, after or wrap)", e.Phase)
}

// ValidPhase reports whether Register accepts phase.
func ValidPhase(phase string) bool {
	switch phase {
	case string(PhaseBefore), "pre", string(PhaseAfter), "post", "wrap":
		return true
	}
	return false
}
