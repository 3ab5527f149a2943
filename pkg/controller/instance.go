package controller

import (
	"context"

	"github.com/google/uuid"
)

// Instance 单次请求中动作及其钩子共享的执行实例
type Instance struct {
	// ID 请求标识
	ID string
	// Action 当前执行的动作
	Action *Action
	// Params 路径中动作名之后的参数
	Params []string
	// Query 查询参数
	Query map[string]string
	// State 由控制器类型的状态工厂创建
	State any

	ctx  context.Context
	vars map[string]any
}

// NewInstance 创建执行实例，id 为空时生成 UUID
func NewInstance(ctx context.Context, id string) *Instance {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		id = uuid.New().String()
	}
	return &Instance{
		ID:    id,
		Query: make(map[string]string),
		ctx:   ctx,
		vars:  make(map[string]any),
	}
}

// Context 返回请求上下文
func (i *Instance) Context() context.Context {
	return i.ctx
}

// Set 设置实例变量
func (i *Instance) Set(key string, value any) {
	i.vars[key] = value
}

// Get 读取实例变量
func (i *Instance) Get(key string) (any, bool) {
	v, ok := i.vars[key]
	return v, ok
}

// GetString 读取字符串类型的实例变量，不存在或类型不符时返回空串
func (i *Instance) GetString(key string) string {
	if v, ok := i.vars[key].(string); ok {
		return v
	}
	return ""
}

// Has 判断实例变量是否存在
func (i *Instance) Has(key string) bool {
	_, ok := i.vars[key]
	return ok
}

// Vars 返回实例变量的副本
func (i *Instance) Vars() map[string]any {
	out := make(map[string]any, len(i.vars))
	for k, v := range i.vars {
		out[k] = v
	}
	return out
}
