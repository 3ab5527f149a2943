package app

import (
	"fmt"
	"html"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"yqhp/aspect/pkg/aspect"
	"yqhp/aspect/pkg/controller"
	"yqhp/aspect/pkg/helper/link"
)

// DefaultName 未指定名字时的问候对象
const DefaultName = "World"

// Controllers 创建示例控制器：
//
//	base    /        根控制器，为所有动作记录 trail
//	greeter /greet   继承 base，拥有自己的钩子表
//	plain   /plain   继承 base，没有自己的钩子表，沿用 base 的钩子
//
// 每次调用都返回新的类型，钩子表互不共享。
func Controllers(log *zap.Logger) []*controller.Type {
	if log == nil {
		log = zap.NewNop()
	}

	var greeter *controller.Type

	base := controller.NewType("base", "/").
		Action("index", func(inst *controller.Instance) (any, error) {
			return "<h1>aspect</h1><p>" + link.A("greeter", link.Href(link.R(greeter))) + "</p>", nil
		})
	aspect.BeforeAll(base, func(inst *controller.Instance) error {
		inst.Set("trail", "base")
		return nil
	})

	var farewells atomic.Int64
	greeter = controller.NewType("greeter", "/greet", controller.WithParent(base)).
		Action("index", func(inst *controller.Instance) (any, error) {
			items := []string{
				link.A("hello", link.Href(link.R(greeter, "hello"))),
				link.A("bye", link.Href(link.R(greeter, "bye"))),
			}
			return link.Breadcrumbs(greeter.Mapping()) + "<ul><li>" + strings.Join(items, "</li><li>") + "</li></ul>", nil
		}).
		Action("hello", func(inst *controller.Instance) (any, error) {
			return fmt.Sprintf("Hello, %s!", html.EscapeString(inst.GetString("name"))), nil
		}).
		Action("bye", func(inst *controller.Instance) (any, error) {
			return fmt.Sprintf("Bye, %s!", html.EscapeString(inst.GetString("name"))), nil
		}).
		Action("farewells", func(inst *controller.Instance) (any, error) {
			return map[string]any{"count": farewells.Load(), "trail": inst.GetString("trail")}, nil
		})

	aspect.BeforeAll(greeter, func(inst *controller.Instance) error {
		inst.Set("trail", "greeter")
		return nil
	})
	aspect.Before(greeter, resolveName, "hello", "bye")
	aspect.After(greeter, func(inst *controller.Instance) error {
		n := farewells.Add(1)
		log.Debug("farewell", zap.String("name", inst.GetString("name")), zap.Int64("count", n))
		return nil
	}, "bye")

	plain := controller.NewType("plain", "/plain", controller.WithParent(base)).
		Action("trail", func(inst *controller.Instance) (any, error) {
			return map[string]any{"trail": inst.GetString("trail"), "params": inst.Params}, nil
		})

	return []*controller.Type{base, greeter, plain}
}

// resolveName 取第一个路径参数，其次是 name 查询参数，最后是 DefaultName
func resolveName(inst *controller.Instance) error {
	name := DefaultName
	switch {
	case len(inst.Params) > 0:
		name = inst.Params[0]
	case inst.Query["name"] != "":
		name = inst.Query["name"]
	}
	inst.Set("name", name)
	return nil
}
