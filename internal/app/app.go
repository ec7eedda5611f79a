package app

import (
	"context"
	"fmt"

	"expense_bot/internal/config"
	"expense_bot/internal/ledger"
	"expense_bot/internal/logger"
	"expense_bot/internal/mongo"
	"expense_bot/internal/rates"
	"expense_bot/internal/scheduler"
	"expense_bot/internal/server"
	"expense_bot/internal/store"
	"expense_bot/internal/telegram"
)

// App 应用服务容器
// 负责按依赖顺序装配所有组件并管理生命周期
type App struct {
	Config    *config.Config
	Server    *server.Server
	Scheduler *scheduler.Scheduler // BACKFILL_SCHEDULE 为空时为 nil

	mongoClient *mongo.Client // sheets 后端时为 nil
}

// New 装配应用
// 存储后端 → 汇率解析器 → 记账服务 → Telegram 接入 → HTTP 路由。
// 任何一步失败都直接返回错误，由 main 决定退出。
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	transactions, ratesTable, err := app.buildStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 两张表的表头在启动时就位，回填扫描依赖 amount_base 列存在
	if err := transactions.EnsureHeader(ctx, store.TransactionsHeader); err != nil {
		return nil, fmt.Errorf("failed to ensure transactions header: %w", err)
	}
	if err := ratesTable.EnsureHeader(ctx, store.RatesHeader); err != nil {
		return nil, fmt.Errorf("failed to ensure rates header: %w", err)
	}

	source := rates.NewHTTPSource(cfg.RateAPIBaseURL, cfg.RateAPITimeout)
	service := ledger.NewService(cfg, transactions, rates.NewResolver(ratesTable, source))

	bot, err := telegram.New(cfg.TelegramToken, service)
	if err != nil {
		return nil, fmt.Errorf("init telegram failed: %w", err)
	}

	app.Server = server.New(bot, service)

	if cfg.BackfillSchedule != "" {
		sched, err := scheduler.New(cfg.BackfillSchedule, service)
		if err != nil {
			return nil, fmt.Errorf("invalid BACKFILL_SCHEDULE: %w", err)
		}
		app.Scheduler = sched
	}

	return app, nil
}

// buildStores 按配置的后端创建交易表和汇率表的存储实例
func (a *App) buildStores(ctx context.Context, cfg *config.Config) (store.RowStore, store.RowStore, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendSheets:
		service, err := store.NewSheetsService(ctx, cfg.Sheets.SAEmail, cfg.Sheets.SAPrivateKey)
		if err != nil {
			return nil, nil, fmt.Errorf("init sheets failed: %w", err)
		}
		transactions := store.NewSheetsStore(service, cfg.Sheets.SheetID, store.TransactionsSheet)
		ratesTable := store.NewSheetsStore(service, cfg.Sheets.SheetID, store.RatesSheet)
		return transactions, ratesTable, nil

	case config.StoreBackendMongo:
		client, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, fmt.Errorf("init MongoDB failed: %w", err)
		}
		a.mongoClient = client

		transactions := store.NewMongoStore(client.Database(), store.TransactionsSheet)
		ratesTable := store.NewMongoStore(client.Database(), store.RatesSheet)
		for _, s := range []*store.MongoStore{transactions, ratesTable} {
			if err := s.EnsureIndexes(ctx); err != nil {
				return nil, nil, err
			}
		}
		return transactions, ratesTable, nil

	default:
		return nil, nil, fmt.Errorf("invalid store backend: %s", cfg.StoreBackend)
	}
}

// Start 启动后台组件（目前只有回填定时器）
func (a *App) Start() {
	if a.Scheduler != nil {
		a.Scheduler.Start()
	}
}

// Close 优雅关闭所有服务
func (a *App) Close(ctx context.Context) error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Close(ctx); err != nil {
			return fmt.Errorf("close MongoDB failed: %w", err)
		}
	}
	logger.L().Info("All services closed")
	return nil
}
