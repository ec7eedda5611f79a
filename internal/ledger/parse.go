package ledger

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"expense_bot/internal/config"
)

// RejectReason 消息被拒绝的机器可读原因（只用于日志，不回给发送者）
type RejectReason string

// 拒绝原因
const (
	RejectNone        RejectReason = ""
	RejectNoSign      RejectReason = "no_sign_match"
	RejectAmountParse RejectReason = "amount_parse_error"
)

// rejectUnsupportedCurrency 拼出 unsupported_currency:<CODE> 形式的原因
func rejectUnsupportedCurrency(code string) RejectReason {
	return RejectReason("unsupported_currency:" + code)
}

// Parsed 从消息文本解析出的账目字段
type Parsed struct {
	Amount      float64 // 带符号，保留两位小数
	Currency    string  // 大写三字母代码，固定集合内
	Category    string
	Subcategory string
	Description string
}

var (
	// 金额：数字，至多一个 . 或 , 作小数点
	magnitudeRegex = regexp.MustCompile(`^([0-9]+(?:[.,][0-9]+)?)`)

	// 可选货币代码：紧跟金额的三个字母，后面必须是单词边界
	// （"cof" 不会从 "coffee" 中截出来）
	currencyRegex = regexp.MustCompile(`^\s*([A-Za-z]{3})\b`)

	// 标签：# 后接一段非空白非 # 字符
	tagRegex = regexp.MustCompile(`#[^#\s]+`)
)

// Parse 把一条消息文本解析成账目字段
// 文法（按顺序匹配）：
//
//	[空白] ("+"|"-") 金额 [货币代码] 尾部
//
// 尾部中第一个 #标签 给出分类（按第一个 / 切成 分类/子分类），
// 其余标签忽略；去掉标签后的尾部折叠空白即为描述。
// 没写货币代码时默认基准货币。解析纯计算，无任何 I/O。
func Parse(text, baseCurrency string) (*Parsed, RejectReason) {
	rest := strings.TrimLeft(text, " \t\r\n")

	// 1. 必须以 + 或 - 开头
	if rest == "" || (rest[0] != '+' && rest[0] != '-') {
		return nil, RejectNoSign
	}
	sign := 1.0
	if rest[0] == '-' {
		sign = -1.0
	}
	rest = rest[1:]

	// 2. 金额（, 归一化成 . 再解析）
	m := magnitudeRegex.FindStringSubmatch(rest)
	if m == nil {
		return nil, RejectAmountParse
	}
	magnitude, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return nil, RejectAmountParse
	}
	rest = rest[len(m[0]):]

	// 3. 可选货币代码，缺省用基准货币
	currency := strings.ToUpper(baseCurrency)
	if c := currencyRegex.FindStringSubmatch(rest); c != nil {
		currency = strings.ToUpper(c[1])
		rest = rest[len(c[0]):]
	}

	// 4. 货币必须在固定集合内
	if !config.IsSupportedCurrency(currency) {
		return nil, rejectUnsupportedCurrency(currency)
	}

	// 5. 第一个标签决定分类，后续标签忽略
	var category, subcategory string
	if tags := tagRegex.FindAllString(rest, -1); len(tags) > 0 {
		category = strings.TrimPrefix(tags[0], "#")
		if i := strings.Index(category, "/"); i >= 0 {
			subcategory = category[i+1:]
			category = category[:i]
		}
	}

	// 6. 描述 = 去掉标签后的尾部，折叠空白
	description := strings.Join(strings.Fields(tagRegex.ReplaceAllString(rest, " ")), " ")

	return &Parsed{
		Amount:      round2(sign * magnitude),
		Currency:    currency,
		Category:    category,
		Subcategory: subcategory,
		Description: description,
	}, RejectNone
}

// round2 四舍五入到两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
