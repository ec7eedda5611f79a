package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"expense_bot/internal/logger"
	"expense_bot/internal/store"
)

// Backfill 扫描交易表，补齐所有 amount_base 为空的行
// 汇率按行里自己的 date / base_currency / currency 取（历史日期，
// 不是今天），只回写 amount_base 一个单元格。已有值的行原样跳过，
// 所以重复运行是幂等的。单行失败记日志后留给下一轮；
// 只有表头缺少 amount_base 列才中止整个扫描。
func (s *Service) Backfill(ctx context.Context) (int, error) {
	rows, err := s.transactions.ReadAllRows(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read transactions: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: amount_base (empty table)", store.ErrMissingColumn)
	}

	idx := store.HeaderIndex(rows[0])
	for _, name := range []string{"amount_base", "date", "amount", "currency", "base_currency"} {
		if _, ok := idx[name]; !ok {
			return 0, fmt.Errorf("%w: %s", store.ErrMissingColumn, name)
		}
	}
	baseCol := idx["amount_base"]

	updated := 0
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if cell(row, baseCol) != "" {
			continue // 已经算过，不重算
		}

		date := cell(row, idx["date"])
		currency := cell(row, idx["currency"])
		baseCurrency := cell(row, idx["base_currency"])
		if baseCurrency == "" {
			// 老行没记基准货币时用当前配置
			baseCurrency = s.cfg.BaseCurrency
		}

		amount, err := strconv.ParseFloat(cell(row, idx["amount"]), 64)
		if err != nil {
			logger.L().Warnf("Backfill: skipping row %d with bad amount %q", i, cell(row, idx["amount"]))
			continue
		}
		if date == "" || currency == "" {
			logger.L().Warnf("Backfill: skipping row %d with missing date/currency", i)
			continue
		}

		// 汇率是 base→quote，折回基准货币要除
		rate := 1.0
		if !strings.EqualFold(currency, baseCurrency) {
			rate, err = s.resolver.EnsureRate(ctx, date, baseCurrency, currency)
			if err != nil {
				// 留给下一轮，不中止扫描
				logger.L().Warnf("Backfill: rate resolution failed for row %d (%s/%s on %s): %v",
					i, baseCurrency, currency, date, err)
				continue
			}
		}

		amountBase := round2(amount / rate)
		if err := s.transactions.UpdateCell(ctx, i, baseCol, formatAmount(amountBase)); err != nil {
			logger.L().Warnf("Backfill: failed to update row %d: %v", i, err)
			continue
		}
		updated++
	}

	logger.L().Infof("Backfill finished: %d row(s) updated", updated)
	return updated, nil
}

// cell 取一行中某列的值，短行（表格省略尾部空单元格）按空处理
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
