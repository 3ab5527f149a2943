package aspect

import (
	"sync"

	"yqhp/aspect/pkg/controller"
)

// Block is a hook body. It runs against the live action instance.
type Block func(inst *controller.Instance) error

// Phase selects which side of the action body a hook runs on.
type Phase string

const (
	// PhaseBefore runs ahead of the action body.
	PhaseBefore Phase = "before"
	// PhaseAfter runs once the action body returned.
	PhaseAfter Phase = "after"
)

// TargetAll names the catch-all slot in logs and observer callbacks.
const TargetAll = "*"

// phaseMap holds the hooks of one phase. The catch-all slot is kept apart
// from the named entries so no action name can collide with it.
type phaseMap struct {
	named map[string]Block
	all   Block
}

func newPhaseMap() *phaseMap {
	return &phaseMap{named: make(map[string]Block)}
}

// All returns the catch-all hook.
func (m *phaseMap) All() (Block, bool) {
	return m.all, m.all != nil
}

// Len counts registered hooks, the catch-all included.
func (m *phaseMap) Len() int {
	n := len(m.named)
	if m.all != nil {
		n++
	}
	return n
}

// Targets lists the action names with a named hook.
func (m *phaseMap) Targets() []string {
	out := make([]string, 0, len(m.named))
	for name := range m.named {
		out = append(out, name)
	}
	return out
}

// HookTable stores the before and after hooks of one controller type.
type HookTable struct {
	mu     sync.RWMutex
	before *phaseMap
	after  *phaseMap
}

// NewHookTable returns a table with both phases present and empty.
func NewHookTable() *HookTable {
	return &HookTable{
		before: newPhaseMap(),
		after:  newPhaseMap(),
	}
}

func (t *HookTable) phase(p Phase) *phaseMap {
	if p == PhaseAfter {
		return t.after
	}
	return t.before
}

// set stores block under each action of phase p, or under the catch-all slot
// when actions is empty. Later registrations replace earlier ones.
func (t *HookTable) set(p Phase, block Block, actions []string) {
	if block == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.phase(p)
	if len(actions) == 0 {
		m.all = block
		return
	}
	for _, name := range actions {
		m.named[name] = block
	}
}

// Before registers block ahead of the given actions, or all actions when
// none are given.
func (t *HookTable) Before(block Block, actions ...string) {
	if len(actions) == 0 {
		t.BeforeAll(block)
		return
	}
	t.set(PhaseBefore, block, actions)
}

// BeforeAll registers block ahead of every action.
func (t *HookTable) BeforeAll(block Block) {
	t.set(PhaseBefore, block, nil)
}

// After registers block after the given actions, or all actions when none
// are given.
func (t *HookTable) After(block Block, actions ...string) {
	if len(actions) == 0 {
		t.AfterAll(block)
		return
	}
	t.set(PhaseAfter, block, actions)
}

// AfterAll registers block after every action.
func (t *HookTable) AfterAll(block Block) {
	t.set(PhaseAfter, block, nil)
}

// Wrap registers block both before and after the given actions, or all
// actions when none are given.
func (t *HookTable) Wrap(block Block, actions ...string) {
	if len(actions) == 0 {
		t.WrapAll(block)
		return
	}
	t.Before(block, actions...)
	t.After(block, actions...)
}

// WrapAll registers block before and after every action.
func (t *HookTable) WrapAll(block Block) {
	t.BeforeAll(block)
	t.AfterAll(block)
}

// Pre is an alias of Before.
func (t *HookTable) Pre(block Block, actions ...string) { t.Before(block, actions...) }

// PreAll is an alias of BeforeAll.
func (t *HookTable) PreAll(block Block) { t.BeforeAll(block) }

// Post is an alias of After.
func (t *HookTable) Post(block Block, actions ...string) { t.After(block, actions...) }

// PostAll is an alias of AfterAll.
func (t *HookTable) PostAll(block Block) { t.AfterAll(block) }

// hook pairs a block with the target it was registered under.
type hook struct {
	target string
	block  Block
}

// lookup returns the hooks that apply to action in phase p: the named hook
// first, then the catch-all.
func (t *HookTable) lookup(p Phase, action string) []hook {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := t.phase(p)
	hooks := make([]hook, 0, 2)
	if b, ok := m.named[action]; ok && b != nil {
		hooks = append(hooks, hook{target: action, block: b})
	}
	if m.all != nil {
		hooks = append(hooks, hook{target: TargetAll, block: m.all})
	}
	return hooks
}

// Count returns how many hooks phase p holds.
func (t *HookTable) Count(p Phase) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase(p).Len()
}

// Targets returns the named targets of phase p.
func (t *HookTable) Targets(p Phase) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase(p).Targets()
}

// HasAll reports whether phase p has a catch-all hook.
func (t *HookTable) HasAll(p Phase) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.phase(p).All()
	return ok
}
