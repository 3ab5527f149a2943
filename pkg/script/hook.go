// Package script 提供以 JavaScript 编写的钩子块。
//
// 脚本作为函数体编译，每次执行时 this 绑定到当前动作实例：
//
//	this.set("greeting", "hi " + (this.query.name || "guest"))
//	if (!this.get("user")) { this.halt(401, "login required") }
//
// 可用成员: id, action, controller, params, query, get(k), set(k, v),
// has(k), halt(status, message)，以及 console.log/info/warn/error。
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"yqhp/aspect/pkg/aspect"
	"yqhp/aspect/pkg/controller"
)

// DefaultTimeout 脚本默认执行超时
const DefaultTimeout = 5 * time.Second

// ErrTimeout 脚本执行超时
var ErrTimeout = errors.New("script hook timed out")

// Hook 编译后的脚本钩子，可被多个请求并发使用
type Hook struct {
	name    string
	program *goja.Program
	timeout time.Duration
	log     *zap.Logger
}

// Option 脚本钩子选项
type Option func(*Hook)

// WithTimeout 设置执行超时，<=0 时使用 DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(h *Hook) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger 设置 console 输出使用的日志
func WithLogger(l *zap.Logger) Option {
	return func(h *Hook) {
		if l != nil {
			h.log = l
		}
	}
}

// Compile 编译脚本钩子
func Compile(name, source string, opts ...Option) (*Hook, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("脚本钩子 %s 内容为空", name)
	}
	program, err := goja.Compile(name, "(function() {\n"+source+"\n})", true)
	if err != nil {
		return nil, fmt.Errorf("编译脚本钩子 %s 失败: %w", name, err)
	}

	h := &Hook{
		name:    name,
		program: program,
		timeout: DefaultTimeout,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Name 返回钩子名称
func (h *Hook) Name() string {
	return h.name
}

// Block 将脚本钩子转换为 aspect.Block
func (h *Hook) Block() aspect.Block {
	return h.Run
}

// Run 以 inst 作为 this 执行脚本
func (h *Hook) Run(inst *controller.Instance) error {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	var halt error
	h.setupConsole(vm, inst)
	self := h.newThis(vm, inst, &halt)

	value, err := vm.RunProgram(h.program)
	if err != nil {
		return fmt.Errorf("加载脚本钩子 %s 失败: %w", h.name, err)
	}
	fn, ok := goja.AssertFunction(value)
	if !ok {
		return fmt.Errorf("脚本钩子 %s 不是函数", h.name)
	}

	ctx := context.Background()
	if inst != nil {
		ctx = inst.Context()
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	// 超时或取消时中断脚本
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	_, err = fn(self)
	close(done)

	if halt != nil {
		return halt
	}
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%s: %w", h.name, ErrTimeout)
			}
			return fmt.Errorf("%s: %w", h.name, ctx.Err())
		}
		return &Error{Hook: h.name, Message: err.Error(), Cause: err}
	}
	return nil
}

// newThis 构造脚本中的 this 对象
func (h *Hook) newThis(vm *goja.Runtime, inst *controller.Instance, halt *error) *goja.Object {
	self := vm.NewObject()
	if inst == nil {
		return self
	}

	_ = self.Set("id", inst.ID)
	_ = self.Set("params", inst.Params)
	_ = self.Set("query", inst.Query)
	if a := inst.Action; a != nil {
		_ = self.Set("action", a.Name)
		if a.Controller != nil {
			_ = self.Set("controller", a.Controller.Name())
		}
	}

	_ = self.Set("get", func(key string) goja.Value {
		v, ok := inst.Get(key)
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(v)
	})
	_ = self.Set("set", func(key string, value goja.Value) {
		if value == nil || goja.IsUndefined(value) {
			inst.Set(key, nil)
			return
		}
		inst.Set(key, value.Export())
	})
	_ = self.Set("has", func(key string) bool {
		return inst.Has(key)
	})
	_ = self.Set("halt", func(status int, message string) {
		*halt = controller.Halt(status, message)
		vm.Interrupt(*halt)
	})
	return self
}

// setupConsole 设置 console 对象，输出写入日志
func (h *Hook) setupConsole(vm *goja.Runtime, inst *controller.Instance) {
	console := vm.NewObject()
	fields := []zap.Field{zap.String("hook", h.name)}
	if inst != nil {
		fields = append(fields, zap.String("request_id", inst.ID))
	}

	write := func(level string) func(call goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			msg := strings.Join(parts, " ")
			switch level {
			case "warn":
				h.log.Warn(msg, fields...)
			case "error":
				h.log.Error(msg, fields...)
			default:
				h.log.Info(msg, fields...)
			}
			return goja.Undefined()
		}
	}

	_ = console.Set("log", write("info"))
	_ = console.Set("info", write("info"))
	_ = console.Set("warn", write("warn"))
	_ = console.Set("error", write("error"))
	_ = vm.Set("console", console)
}

// Error 脚本执行抛出的异常
type Error struct {
	Hook    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("script hook %s: %s", e.Hook, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}
