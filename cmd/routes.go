package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/aspect/internal/app"
	"yqhp/aspect/pkg/aspect"
)

// routesCmd 列出控制器动作和钩子
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "列出全部动作路由及每个动作会执行的钩子数",
	Args:  cobra.NoArgs,
	RunE:  runRoutes,
}

// configCmd 输出生效的配置
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "输出合并后的配置",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := cfg.Serialize()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(configCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(cfg, zap.NewNop())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONTROLLER\tACTION\tPATH\tBEFORE\tAFTER")
	for _, r := range a.Registry().Routes() {
		t, _ := a.Registry().Lookup(r.Controller)
		table := aspect.Table(t)
		before := hookCount(table, aspect.PhaseBefore, r.Action)
		after := hookCount(table, aspect.PhaseAfter, r.Action)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", r.Controller, r.Action, r.Path, before, after)
	}
	return w.Flush()
}

// hookCount 统计动作在某阶段会执行的钩子数：命名钩子和通配钩子各计一次
func hookCount(table *aspect.HookTable, p aspect.Phase, action string) int {
	if table == nil {
		return 0
	}
	n := 0
	if slice.Contain(table.Targets(p), action) {
		n++
	}
	if table.HasAll(p) {
		n++
	}
	return n
}
