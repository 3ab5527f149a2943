// Package controller 提供控制器类型、动作查找以及动作执行的生命周期。
//
// 控制器类型之间通过显式的父指针形成继承链，动作和 trait 都按
// "自身 -> 父类型 -> 祖父类型 ..." 的顺序查找，先找到者生效。
package controller

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/duke-git/lancet/v2/slice"
)

// ActionFunc 动作函数，返回值作为响应体
type ActionFunc func(inst *Instance) (any, error)

// Option 控制器类型选项
type Option func(*Type)

// WithParent 设置父控制器类型
func WithParent(parent *Type) Option {
	return func(t *Type) {
		t.parent = parent
	}
}

// WithState 设置每个请求的实例状态工厂
func WithState(fn func() any) Option {
	return func(t *Type) {
		t.state = fn
	}
}

// Type 控制器类型定义
type Type struct {
	name    string
	mapping string
	parent  *Type
	state   func() any

	mu      sync.RWMutex
	actions map[string]ActionFunc
	traits  map[string]any
}

// NewType 创建控制器类型。mapping 为空时使用 "/<name>"。
func NewType(name, mapping string, opts ...Option) *Type {
	if mapping == "" {
		mapping = "/" + name
	}
	t := &Type{
		name:    name,
		mapping: normalizeMapping(mapping),
		actions: make(map[string]ActionFunc),
		traits:  make(map[string]any),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name 返回控制器名称
func (t *Type) Name() string {
	return t.name
}

// Mapping 返回控制器挂载的 URL 前缀
func (t *Type) Mapping() string {
	return t.mapping
}

// Parent 返回父控制器类型，没有时返回 nil
func (t *Type) Parent() *Type {
	return t.parent
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	return fmt.Sprintf("%s(%s)", t.name, t.mapping)
}

// Action 注册动作，同名动作会被覆盖
func (t *Type) Action(name string, fn ActionFunc) *Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.actions[name] = fn
	return t
}

// LookupAction 沿继承链查找动作，返回动作函数和定义它的类型
func (t *Type) LookupAction(name string) (ActionFunc, *Type, bool) {
	for cur := t; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		fn, ok := cur.actions[name]
		cur.mu.RUnlock()
		if ok && fn != nil {
			return fn, cur, true
		}
	}
	return nil, nil, false
}

// Actions 返回自身及继承得到的全部动作名，按字母排序
func (t *Type) Actions() []string {
	var names []string
	for cur := t; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		for name := range cur.actions {
			names = append(names, name)
		}
		cur.mu.RUnlock()
	}
	names = slice.Unique(names)
	sort.Strings(names)
	return names
}

// Ancestors 返回从自身开始的继承链
func (t *Type) Ancestors() []*Type {
	var chain []*Type
	for cur := t; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	return chain
}

// IsA 判断 t 是否为 other 或其子类型
func (t *Type) IsA(other *Type) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Trait 读取自身定义的 trait，不查找父类型
func (t *Type) Trait(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.traits[key]
	return v, ok
}

// SetTrait 设置自身的 trait
func (t *Type) SetTrait(key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.traits[key] = value
}

// TraitOrInit 读取自身的 trait，不存在时用 init 的结果初始化
func (t *Type) TraitOrInit(key string, init func() any) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.traits[key]; ok {
		return v
	}
	v := init()
	t.traits[key] = v
	return v
}

// AncestralTrait 沿继承链查找 trait，返回值和定义它的类型
func (t *Type) AncestralTrait(key string) (any, *Type, bool) {
	for cur := t; cur != nil; cur = cur.parent {
		if v, ok := cur.Trait(key); ok {
			return v, cur, true
		}
	}
	return nil, nil, false
}

// newState 创建实例状态
func (t *Type) newState() any {
	for cur := t; cur != nil; cur = cur.parent {
		if cur.state != nil {
			return cur.state()
		}
	}
	return nil
}

// actionPath 返回动作的完整路径
func (t *Type) actionPath(name string) string {
	if t.mapping == "/" {
		return "/" + name
	}
	return t.mapping + "/" + name
}

func normalizeMapping(mapping string) string {
	mapping = "/" + strings.Trim(mapping, "/")
	return mapping
}
