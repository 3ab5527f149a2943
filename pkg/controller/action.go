package controller

// Lifecycle is the pair of hook points an action runs between.
type Lifecycle interface {
	BeforeProcess(a *Action) error
	AfterProcess(a *Action) error
}

// NopLifecycle does nothing at either hook point.
type NopLifecycle struct{}

// BeforeProcess implements Lifecycle.
func (NopLifecycle) BeforeProcess(*Action) error { return nil }

// AfterProcess implements Lifecycle.
func (NopLifecycle) AfterProcess(*Action) error { return nil }

// Action is one resolved invocation of a named controller action.
type Action struct {
	Name       string
	Path       string // empty when the controller has no method for Name
	Controller *Type
	Instance   *Instance
	Params     []string

	method ActionFunc
}

// NewAction binds name on t to inst. The method is looked up through the
// ancestry of t; Path stays empty when no ancestor defines it.
func NewAction(t *Type, name string, inst *Instance, params ...string) *Action {
	a := &Action{
		Name:       name,
		Controller: t,
		Instance:   inst,
		Params:     params,
	}
	if t != nil {
		if fn, _, ok := t.LookupAction(name); ok {
			a.method = fn
			a.Path = t.actionPath(name)
		}
	}
	if inst != nil {
		inst.Action = a
		inst.Params = params
		if inst.State == nil && t != nil {
			inst.State = t.newState()
		}
	}
	return a
}

// Resolved reports whether the action has a method to run.
func (a *Action) Resolved() bool {
	return a.method != nil && a.Path != ""
}

// Process runs before hooks, the action body, then after hooks. The first
// error ends processing and is returned as is.
func (a *Action) Process(lc Lifecycle) (any, error) {
	if lc == nil {
		lc = NopLifecycle{}
	}
	if err := lc.BeforeProcess(a); err != nil {
		return nil, err
	}

	var body any
	if a.method != nil {
		out, err := a.method(a.Instance)
		if err != nil {
			return nil, err
		}
		body = out
	}

	if err := lc.AfterProcess(a); err != nil {
		return nil, err
	}
	return body, nil
}
