package rates

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"expense_bot/internal/logger"
	"expense_bot/internal/store"
)

// Resolver 按日缓存的汇率解析器
// Rates 表既是持久日志也是缓存：命中读第一条匹配行，未命中时请求
// 上游并把结果追加回表。并发未命中可能写出重复行，读语义按先到为准，
// 不依赖键唯一性。
type Resolver struct {
	table  store.RowStore
	source Source
}

// NewResolver 创建汇率解析器
func NewResolver(table store.RowStore, source Source) *Resolver {
	return &Resolver{table: table, source: source}
}

// EnsureRate 返回指定日期 1 单位 base 折合多少 quote
// 解析顺序：同币种恒等 → 缓存表 → 上游 API（成功后回写缓存）。
// 需要 quote→base 方向的调用方自行取倒数，解析器本身从不取倒数。
func (r *Resolver) EnsureRate(ctx context.Context, date, base, quote string) (float64, error) {
	base = strings.ToUpper(base)
	quote = strings.ToUpper(quote)

	// 同币种无需任何 I/O
	if base == quote {
		return 1.0, nil
	}

	rows, err := r.table.ReadAllRows(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read rate cache: %w", err)
	}

	// 跳过表头，第一条完全匹配的行为准
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 4 {
			continue
		}
		if row[0] != date || !strings.EqualFold(row[1], base) || !strings.EqualFold(row[2], quote) {
			continue
		}

		rate, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			// 坏行不算命中，继续向下找
			logger.L().Warnf("Skipping malformed rate cache row %d: %q", i, row[3])
			continue
		}
		return rate, nil
	}

	// 缓存未命中，请求上游
	rate, err := r.source.FetchRate(ctx, date, base, quote)
	if err != nil {
		return 0, err
	}

	// 回写缓存。失败只记日志：本次调用已拿到汇率，不应因此失败
	cacheRow := []string{date, base, quote, strconv.FormatFloat(rate, 'f', 6, 64)}
	if err := r.table.AppendRow(ctx, cacheRow); err != nil {
		logger.L().Errorf("Failed to persist rate cache entry %v: %v", cacheRow, err)
	}

	return rate, nil
}
