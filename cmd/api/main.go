package main

import (
	"context"
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"waste-recycling-tracker/internal/app"
	"waste-recycling-tracker/internal/core/config"
	"waste-recycling-tracker/internal/core/logger"
	"waste-recycling-tracker/internal/transport/http/router"
)

func main() { os.Exit(run()) }

// run 里的 defer 全部执行完才退出进程
func run() int {
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log, syncLog := logger.New(cfg.Log)
	defer syncLog()

	// 对外全部接口
	if err := app.Run(context.Background(), cfg, log, "api", cfg.App.HTTP, router.NewAPIEngine); err != nil {
		log.Error("api exited", zap.Error(err))
		return 1
	}
	return 0
}
