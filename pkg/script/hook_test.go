package script

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yqhp/aspect/pkg/aspect"
	"yqhp/aspect/pkg/controller"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newInstance(t *testing.T, ctrl *controller.Type, action string) *controller.Instance {
	t.Helper()
	inst := controller.NewInstance(context.Background(), "req-1")
	inst.Query["name"] = "ada"
	controller.NewAction(ctrl, action, inst, "p0")
	return inst
}

func greeter() *controller.Type {
	return controller.NewType("greeter", "/greet").
		Action("hello", func(inst *controller.Instance) (any, error) {
			return inst.GetString("greeting"), nil
		})
}

func TestCompileRejectsEmptyAndInvalid(t *testing.T) {
	_, err := Compile("empty", "   ")
	assert.Error(t, err)

	_, err = Compile("broken", "this.set(")
	assert.Error(t, err)
}

func TestRunBindsInstanceAsThis(t *testing.T) {
	h, err := Compile("greet", `
		this.set("greeting", "hi " + this.query.name + " via " + this.controller + "#" + this.action);
		this.set("first", this.params[0]);
		this.set("seen", this.has("greeting"));
	`)
	require.NoError(t, err)

	inst := newInstance(t, greeter(), "hello")
	require.NoError(t, h.Run(inst))

	assert.Equal(t, "hi ada via greeter#hello", inst.GetString("greeting"))
	assert.Equal(t, "p0", inst.GetString("first"))
	seen, _ := inst.Get("seen")
	assert.Equal(t, true, seen)
}

func TestRunReadsValuesSetByGo(t *testing.T) {
	h, err := Compile("count", `this.set("count", this.get("count") + 1)`)
	require.NoError(t, err)

	inst := newInstance(t, greeter(), "hello")
	inst.Set("count", 41)
	require.NoError(t, h.Run(inst))

	count, _ := inst.Get("count")
	assert.EqualValues(t, 42, count)
}

func TestHaltReturnsHaltError(t *testing.T) {
	h, err := Compile("guard", `
		if (!this.get("user")) { this.halt(401, "login required"); }
		this.set("after_halt", true);
	`)
	require.NoError(t, err)

	inst := newInstance(t, greeter(), "hello")
	err = h.Run(inst)
	var halt *controller.HaltError
	require.ErrorAs(t, err, &halt)
	assert.Equal(t, 401, halt.Status)
	assert.Equal(t, "login required", halt.Message)
	assert.False(t, inst.Has("after_halt"))
}

func TestThrownExceptionBecomesError(t *testing.T) {
	h, err := Compile("thrower", `throw new Error("nope")`)
	require.NoError(t, err)

	err = h.Run(newInstance(t, greeter(), "hello"))
	var scriptErr *Error
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, "thrower", scriptErr.Hook)
	assert.Contains(t, scriptErr.Message, "nope")
}

func TestTimeoutInterruptsScript(t *testing.T) {
	h, err := Compile("spin", `for (;;) {}`, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	err = h.Run(newInstance(t, greeter(), "hello"))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCancelledContextInterruptsScript(t *testing.T) {
	h, err := Compile("spin", `for (;;) {}`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	inst := controller.NewInstance(ctx, "")
	controller.NewAction(greeter(), "hello", inst)
	time.AfterFunc(20*time.Millisecond, cancel)

	err = h.Run(inst)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsoleWritesToLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h, err := Compile("noisy", `console.log("hello", 1); console.warn("careful")`, WithLogger(zap.New(core)))
	require.NoError(t, err)

	require.NoError(t, h.Run(newInstance(t, greeter(), "hello")))
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "hello 1", logs.All()[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.Equal(t, "noisy", logs.All()[1].ContextMap()["hook"])
}

func TestScriptHookThroughDispatcher(t *testing.T) {
	ctrl := greeter()
	before, err := Compile("before-hello", `this.set("greeting", "hello " + this.query.name)`)
	require.NoError(t, err)
	after, err := Compile("after-all", `this.set("done", true)`)
	require.NoError(t, err)

	aspect.Before(ctrl, before.Block(), "hello")
	aspect.AfterAll(ctrl, after.Block())

	inst := newInstance(t, ctrl, "hello")
	body, err := inst.Action.Process(aspect.NewDispatcher())
	require.NoError(t, err)
	assert.Equal(t, "hello ada", body)
	assert.True(t, inst.Has("done"))
}

func TestHookErrorStopsDispatch(t *testing.T) {
	ctrl := greeter()
	failing, err := Compile("failing", `throw "bad"`)
	require.NoError(t, err)
	aspect.BeforeAll(ctrl, failing.Block())

	inst := newInstance(t, ctrl, "hello")
	_, err = inst.Action.Process(aspect.NewDispatcher())
	var scriptErr *Error
	assert.True(t, errors.As(err, &scriptErr))
}
