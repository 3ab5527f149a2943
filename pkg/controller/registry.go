package controller

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/duke-git/lancet/v2/slice"
)

// DefaultAction 路径中未给出动作名时使用的动作
const DefaultAction = "index"

// Registry 管理控制器类型的注册和路径解析。
type Registry struct {
	mu       sync.RWMutex
	mappings map[string]*Type
	names    map[string]*Type
}

// NewRegistry 创建一个新的控制器注册表。
func NewRegistry() *Registry {
	return &Registry{
		mappings: make(map[string]*Type),
		names:    make(map[string]*Type),
	}
}

// Register 注册控制器类型。
// 名称或映射路径已被占用时返回错误。
func (r *Registry) Register(t *Type) error {
	if t == nil {
		return fmt.Errorf("不能注册空控制器")
	}
	if t.Name() == "" {
		return fmt.Errorf("控制器名称不能为空")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[t.Name()]; exists {
		return fmt.Errorf("控制器已注册: %s", t.Name())
	}
	if other, exists := r.mappings[t.Mapping()]; exists {
		return fmt.Errorf("%w: %s 已被 %s 使用", ErrDuplicateMapping, t.Mapping(), other.Name())
	}

	r.names[t.Name()] = t
	r.mappings[t.Mapping()] = t
	return nil
}

// MustRegister 注册控制器类型，如果出错则 panic。
func (r *Registry) MustRegister(t *Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup 按名称获取控制器类型。
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.names[name]
	return t, ok
}

// LookupOrError 按名称获取控制器类型，如果不存在则返回错误。
func (r *Registry) LookupOrError(name string) (*Type, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrControllerNotFound, name)
	}
	return t, nil
}

// Types 返回所有已注册的控制器类型，按映射路径排序。
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]*Type, 0, len(r.mappings))
	for _, t := range r.mappings {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].Mapping() < types[j].Mapping()
	})
	return types
}

// Resolve 将请求路径解析为控制器、动作名和参数。
// 使用最长匹配的映射路径；剩余第一段为动作名，其余为参数。
// 第一段不是动作但控制器有 index 动作时，全部剩余段作为 index 的参数。
func (r *Registry) Resolve(reqPath string) (*Type, string, []string, error) {
	clean := path.Clean("/" + reqPath)

	r.mu.RLock()
	var (
		matched *Type
		best    = -1
	)
	for mapping, t := range r.mappings {
		if !mappingMatches(mapping, clean) {
			continue
		}
		if len(mapping) > best {
			best = len(mapping)
			matched = t
		}
	}
	r.mu.RUnlock()

	if matched == nil {
		return nil, "", nil, &NotFoundError{Path: reqPath}
	}

	rest := strings.TrimPrefix(clean, matched.Mapping())
	segments := slice.Filter(strings.Split(rest, "/"), func(_ int, s string) bool {
		return s != ""
	})

	if len(segments) == 0 {
		if _, _, ok := matched.LookupAction(DefaultAction); ok {
			return matched, DefaultAction, nil, nil
		}
		return nil, "", nil, &NotFoundError{Path: reqPath, Controller: matched.Name(), Action: DefaultAction}
	}

	if _, _, ok := matched.LookupAction(segments[0]); ok {
		return matched, segments[0], segments[1:], nil
	}
	if _, _, ok := matched.LookupAction(DefaultAction); ok {
		return matched, DefaultAction, segments, nil
	}
	return nil, "", nil, &NotFoundError{Path: reqPath, Controller: matched.Name(), Action: segments[0]}
}

// Route 一条可访问的动作路由
type Route struct {
	Controller string `json:"controller"`
	Action     string `json:"action"`
	Path       string `json:"path"`
}

// Routes 返回全部控制器的动作路由
func (r *Registry) Routes() []Route {
	var routes []Route
	for _, t := range r.Types() {
		for _, name := range t.Actions() {
			routes = append(routes, Route{
				Controller: t.Name(),
				Action:     name,
				Path:       t.actionPath(name),
			})
		}
	}
	return routes
}

func mappingMatches(mapping, reqPath string) bool {
	if mapping == "/" {
		return true
	}
	return reqPath == mapping || strings.HasPrefix(reqPath, mapping+"/")
}

// Request 一次动作调用的输入
type Request struct {
	ID    string
	Path  string
	Query map[string]string
}

// Result 动作调用结果
type Result struct {
	Action *Action
	Body   any
}

// Invoker 解析请求并按生命周期执行动作
type Invoker struct {
	registry  *Registry
	lifecycle Lifecycle
}

// NewInvoker 创建动作调用器，lifecycle 为空时不执行任何钩子
func NewInvoker(registry *Registry, lifecycle Lifecycle) *Invoker {
	if lifecycle == nil {
		lifecycle = NopLifecycle{}
	}
	return &Invoker{
		registry:  registry,
		lifecycle: lifecycle,
	}
}

// Registry 返回调用器使用的注册表
func (iv *Invoker) Registry() *Registry {
	return iv.registry
}

// Invoke 解析 req.Path 并执行对应动作
func (iv *Invoker) Invoke(ctx context.Context, req Request) (*Result, error) {
	t, name, params, err := iv.registry.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	inst := NewInstance(ctx, req.ID)
	for k, v := range req.Query {
		inst.Query[k] = v
	}
	action := NewAction(t, name, inst, params...)

	body, err := action.Process(iv.lifecycle)
	if err != nil {
		return &Result{Action: action}, err
	}
	return &Result{Action: action, Body: body}, nil
}
