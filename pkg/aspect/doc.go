// Package aspect lets controller types wrap their actions with before and
// after hook blocks.
//
// Hooks are declared against a controller type, either for specific action
// names or for all actions:
//
//	aspect.Before(greeter, func(inst *controller.Instance) error {
//		inst.Set("started", time.Now())
//		return nil
//	}, "hello", "bye")
//
//	aspect.AfterAll(greeter, audit)
//
// The Dispatcher is installed as the controller.Lifecycle of an Invoker. For
// each phase it runs the hook registered for the action's name first, then
// the hook registered for all actions. The same order applies to the after
// phase; the catch-all hook is not nested outside the named one.
//
// A controller type without its own hook table uses the table of its nearest
// ancestor that has one. Tables are not merged along the chain.
package aspect
