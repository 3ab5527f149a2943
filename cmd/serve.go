package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"yqhp/aspect/internal/app"
	"yqhp/aspect/pkg/logger"
)

// serveCmd 启动 HTTP 服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	Long:  `加载配置，注册控制器与脚本钩子，然后启动 HTTP 服务。收到 SIGINT/SIGTERM 时优雅关闭。`,
	Example: `  # 使用默认配置启动
  aspect serve

  # 使用配置文件并覆盖监听地址
  aspect serve --config config.yaml --set server.address=:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer logger.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}
