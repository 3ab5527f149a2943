package aspect

import (
	"time"

	"go.uber.org/zap"

	"yqhp/aspect/pkg/controller"
)

// Observer is told about every hook block the Dispatcher ran.
type Observer interface {
	ObserveHook(e HookEvent)
}

// HookEvent describes one executed hook block.
type HookEvent struct {
	Controller string
	Action     string
	Phase      Phase
	Target     string // action name, or TargetAll
	Duration   time.Duration
	Err        error
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger hook executions are reported to.
func WithLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithObserver adds an observer of hook executions.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}

// Dispatcher runs the hooks of an action's controller around the action
// body. It implements controller.Lifecycle.
type Dispatcher struct {
	log       *zap.Logger
	observers []Observer
}

var _ controller.Lifecycle = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BeforeProcess implements controller.Lifecycle.
func (d *Dispatcher) BeforeProcess(a *controller.Action) error {
	return d.RunBefore(a)
}

// AfterProcess implements controller.Lifecycle.
func (d *Dispatcher) AfterProcess(a *controller.Action) error {
	return d.RunAfter(a)
}

// RunBefore runs the before hooks that apply to a.
func (d *Dispatcher) RunBefore(a *controller.Action) error {
	return d.run(PhaseBefore, a)
}

// RunAfter runs the after hooks that apply to a, in the same order as
// RunBefore: the named hook, then the catch-all.
func (d *Dispatcher) RunAfter(a *controller.Action) error {
	return d.run(PhaseAfter, a)
}

// run executes the hooks of phase p for a. An action without a resolved
// path, or a controller chain without any HookTable, is a no-op. The first
// hook error is returned untouched.
func (d *Dispatcher) run(p Phase, a *controller.Action) error {
	if a == nil || a.Path == "" || a.Controller == nil {
		return nil
	}
	table := Table(a.Controller)
	if table == nil {
		return nil
	}

	for _, h := range table.lookup(p, a.Name) {
		start := time.Now()
		err := h.block(a.Instance)
		elapsed := time.Since(start)

		d.log.Debug("aspect hook executed",
			zap.String("controller", a.Controller.Name()),
			zap.String("action", a.Name),
			zap.String("phase", string(p)),
			zap.String("target", h.target),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		d.notify(HookEvent{
			Controller: a.Controller.Name(),
			Action:     a.Name,
			Phase:      p,
			Target:     h.target,
			Duration:   elapsed,
			Err:        err,
		})

		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) notify(e HookEvent) {
	for _, o := range d.observers {
		o.ObserveHook(e)
	}
}
