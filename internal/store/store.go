package store

import (
	"context"
	"errors"
)

// 工作表名称（与原始表格中的两个工作表对应）
const (
	TransactionsSheet = "Transactions"
	RatesSheet        = "Rates"
)

// 交易表固定列顺序
var TransactionsHeader = []string{
	"id",
	"timestamp_local",
	"date",
	"amount",
	"currency",
	"amount_base",
	"base_currency",
	"category",
	"subcategory",
	"description",
}

// 汇率缓存表固定列顺序
var RatesHeader = []string{"date", "base", "quote", "rate"}

// ErrMissingColumn 表头缺少预期列（配置/表结构错误，中止整个操作）
var ErrMissingColumn = errors.New("missing expected column")

// RowStore 行存储端口
// 行为约定按电子表格建模：追加行、读全部行（首行为表头）、改单个单元格。
// 行与列索引都从 0 开始计（含表头行）。
type RowStore interface {
	// EnsureHeader 空表时写入表头行，已有数据时不做任何修改
	EnsureHeader(ctx context.Context, header []string) error

	// AppendRow 在表尾追加一行
	AppendRow(ctx context.Context, row []string) error

	// ReadAllRows 按存储顺序读出所有行，首行为表头
	ReadAllRows(ctx context.Context) ([][]string, error)

	// UpdateCell 只改写 (rowIndex, colIndex) 一个单元格，不触碰其他列
	UpdateCell(ctx context.Context, rowIndex, colIndex int, value string) error
}

// HeaderIndex 把表头行转成 列名->索引 的映射
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}
