package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense_bot/internal/app"
	"expense_bot/internal/config"
	"expense_bot/internal/logger"
)

func main() {
	// 初始化logger
	logger.Init()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatalf("Failed to load config: %v", err)
	}

	// 装配应用
	application, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.L().Fatalf("Failed to initialize app: %v", err)
	}
	application.Start()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: application.Server.Router(),
	}

	go func() {
		logger.L().Infof("Listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L().Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.L().Errorf("HTTP server shutdown failed: %v", err)
	}
	if err := application.Close(shutdownCtx); err != nil {
		logger.L().Errorf("Failed to close services: %v", err)
	}
}
