package scheduler

import (
	"context"

	"expense_bot/internal/ledger"
	"expense_bot/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler 进程内的回填定时器
// 部署在没有外部 cron 的环境时启用；有外部定时器打 /api/cron 的话
// 保持 BACKFILL_SCHEDULE 为空即可。
type Scheduler struct {
	cron *cron.Cron
}

// New 按 cron 表达式创建回填定时器
func New(spec string, service *ledger.Service) (*Scheduler, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		updated, err := service.Backfill(context.Background())
		if err != nil {
			logger.L().Errorf("Scheduled backfill failed: %v", err)
			return
		}
		logger.L().Infof("Scheduled backfill updated %d row(s)", updated)
	})
	if err != nil {
		return nil, err
	}

	return &Scheduler{cron: c}, nil
}

// Start 启动定时器
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.L().Info("Backfill scheduler started")
}

// Stop 停止定时器并等待在跑的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.L().Info("Backfill scheduler stopped")
}
