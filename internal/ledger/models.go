package ledger

import (
	"strconv"
	"time"
)

// 行内时间序列化格式
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Transaction 一条账目记录
// 金额带符号：负数为支出，正数为收入。AmountBase 是折算到基准货币的
// 金额，回填任务补齐后不再重算。
type Transaction struct {
	ID             string
	TimestampLocal time.Time // 记账时区下的墙钟时间
	Date           string    // 记账日期（汇率缓存的键粒度）
	Amount         float64
	Currency       string
	AmountBase     float64
	BaseCurrency   string
	Category       string
	Subcategory    string
	Description    string
}

// Row 按 Transactions 表固定列顺序序列化
func (t *Transaction) Row() []string {
	return []string{
		t.ID,
		t.TimestampLocal.Format(TimestampLayout),
		t.Date,
		formatAmount(t.Amount),
		t.Currency,
		formatAmount(t.AmountBase),
		t.BaseCurrency,
		t.Category,
		t.Subcategory,
		t.Description,
	}
}

// IsExpense 是否为支出
func (t *Transaction) IsExpense() bool {
	return t.Amount < 0
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
