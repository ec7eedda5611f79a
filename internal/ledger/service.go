package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expense_bot/internal/config"
	"expense_bot/internal/logger"
	"expense_bot/internal/rates"
	"expense_bot/internal/store"

	"github.com/google/uuid"
)

// Status 一次记账请求的处理结果
type Status string

// 处理结果
const (
	// StatusIgnored 消息被忽略（发送者不在白名单或解析被拒），对上游等同成功
	StatusIgnored Status = "ignored"
	// StatusAccepted 记录已写入
	StatusAccepted Status = "accepted"
	// StatusFailed 汇率或写入失败，应向上游返回错误
	StatusFailed Status = "failed"
)

// Result 记账结果
// Detail 是机器可读标签（拒绝原因或 RATE_ERROR:/STORE_ERROR: 前缀），
// 只进日志，从不回给发送者。
type Result struct {
	Status      Status
	Detail      string
	Transaction *Transaction
}

// Service 记账与回填的编排层
type Service struct {
	cfg          *config.Config
	transactions store.RowStore
	resolver     *rates.Resolver

	// now 可注入，测试时固定时间
	now func() time.Time
}

// NewService 创建记账服务
func NewService(cfg *config.Config, transactions store.RowStore, resolver *rates.Resolver) *Service {
	return &Service{
		cfg:          cfg,
		transactions: transactions,
		resolver:     resolver,
		now:          time.Now,
	}
}

// Ingest 处理一条原始消息
// 白名单检查 → 解析 → 折算基准金额 → 追加行。
// 被忽略的消息（非白名单、解析失败）不算错误：上游消息源不应重试它们。
func (s *Service) Ingest(ctx context.Context, text string, senderID int64) Result {
	// 唯一放行的发送者，其他人静默忽略
	if senderID != s.cfg.AllowedUserID {
		logger.L().Debugf("Ignoring message from non-allowed sender %d", senderID)
		return Result{Status: StatusIgnored, Detail: "sender_not_allowed"}
	}

	parsed, reject := Parse(text, s.cfg.BaseCurrency)
	if reject != RejectNone {
		logger.L().Debugf("Ignoring unparseable message: %s", reject)
		return Result{Status: StatusIgnored, Detail: string(reject)}
	}

	now := s.now().In(s.cfg.Location)
	date := now.Format(DateLayout)

	// 同币种直接用原金额，不走解析器
	amountBase := parsed.Amount
	if !strings.EqualFold(parsed.Currency, s.cfg.BaseCurrency) {
		// 汇率方向是 base→quote，折回基准货币要除
		rate, err := s.resolver.EnsureRate(ctx, date, s.cfg.BaseCurrency, parsed.Currency)
		if err != nil {
			logger.L().Errorf("Rate resolution failed for %s/%s on %s: %v",
				s.cfg.BaseCurrency, parsed.Currency, date, err)
			return Result{Status: StatusFailed, Detail: fmt.Sprintf("RATE_ERROR:%v", err)}
		}
		amountBase = round2(parsed.Amount / rate)
	}

	tx := &Transaction{
		ID:             uuid.NewString(),
		TimestampLocal: now,
		Date:           date,
		Amount:         parsed.Amount,
		Currency:       parsed.Currency,
		AmountBase:     amountBase,
		BaseCurrency:   s.cfg.BaseCurrency,
		Category:       parsed.Category,
		Subcategory:    parsed.Subcategory,
		Description:    parsed.Description,
	}

	if err := s.transactions.AppendRow(ctx, tx.Row()); err != nil {
		logger.L().Errorf("Failed to append transaction %s: %v", tx.ID, err)
		return Result{Status: StatusFailed, Detail: fmt.Sprintf("STORE_ERROR:%v", err)}
	}

	logger.L().Infof("Recorded transaction %s: %s %s (%s %s)",
		tx.ID, formatAmount(tx.Amount), tx.Currency, formatAmount(tx.AmountBase), tx.BaseCurrency)
	return Result{Status: StatusAccepted, Transaction: tx}
}
