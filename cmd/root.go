// Package cmd 提供 aspect CLI 的命令实现
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/aspect/internal/config"
	"yqhp/aspect/pkg/logger"
)

// Version 是当前版本号
const Version = "0.1.0"

var (
	// 全局配置
	cfgFile   string
	debug     bool
	overrides []string
)

// rootCmd 是根命令
var rootCmd = &cobra.Command{
	Use:   "aspect",
	Short: "带前置/后置钩子的控制器动作服务",
	Long: `aspect 按路径把请求分发给控制器动作，并在动作前后执行注册的钩子。
钩子可以在代码中注册，也可以在配置文件中以 JavaScript 声明。`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().StringArrayVar(&overrides, "set", nil, "覆盖配置项，格式 key=value，可重复")

	// 禁用默认的 completion 命令
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("aspect {{.Version}}\n")
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig 按 默认值 < 文件 < 环境变量 < --set 的顺序加载并校验配置
func loadConfig() (*config.Config, error) {
	args, err := config.ParseSetFlags(overrides)
	if err != nil {
		return nil, err
	}
	loader := config.NewLoader().
		WithConfigPath(cfgFile).
		WithCmdArgs(args)
	if cfgFile != "" {
		// 显式指定的配置文件必须存在
		loader.RequireConfigFile()
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger 创建并设置全局日志
func newLogger(cfg *config.Config) *zap.Logger {
	l := logger.New(&cfg.Log)
	logger.Set(l)
	return l
}
