package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 存储后端类型
const (
	StoreBackendSheets = "sheets"
	StoreBackendMongo  = "mongo"
)

// Config 应用程序配置
// 启动时从环境变量加载一次，之后只读，按引用传入各组件
type Config struct {
	TelegramToken string // Telegram Bot API Token（可为空，为空时不发送确认回复）
	AllowedUserID int64  // 唯一允许记账的 Telegram 用户 ID
	BaseCurrency  string // 基准货币（所有金额折算到该货币）
	Timezone      string // 记账时区名称，例如 "Asia/Almaty"
	Location      *time.Location

	StoreBackend string // 行存储后端：sheets / mongo
	Sheets       SheetsConfig
	MongoURI     string // MongoDB 连接 URI（StoreBackend=mongo 时必填）
	MongoDBName  string // MongoDB 数据库名称

	RateAPIBaseURL   string        // 汇率 API 基础地址
	RateAPITimeout   time.Duration // 汇率 API 请求超时
	BackfillSchedule string        // 内置回填任务的 cron 表达式（为空则禁用）
	Port             string        // HTTP 监听端口
}

// SheetsConfig Google Sheets 存储配置
type SheetsConfig struct {
	SheetID      string // 表格 ID
	SAEmail      string // Service Account 邮箱
	SAPrivateKey string // Service Account 私钥（PEM，环境变量中换行为 \n 转义）
}

// SupportedCurrencies 固定支持的货币集合
// 扩展该集合属于数据模型变更，不做成配置项
var SupportedCurrencies = []string{"RUB", "KZT", "USD", "EUR"}

// IsSupportedCurrency 检查货币代码是否在固定集合内（不区分大小写）
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		BaseCurrency:   strings.ToUpper(getEnv("BASE_CURRENCY", "RUB")),
		Timezone:       getEnv("TIMEZONE", "Asia/Almaty"),
		StoreBackend:   getEnv("STORE_BACKEND", StoreBackendSheets),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "expense_bot"),
		RateAPIBaseURL: getEnv("RATE_API_BASE_URL", "https://api.exchangerate.host"),
		Port:           getEnv("PORT", "8080"),
	}

	// 解析ALLOWED_USER_ID（必填，唯一放行的发送者）
	allowedStr := strings.TrimSpace(os.Getenv("ALLOWED_USER_ID"))
	if allowedStr == "" {
		return nil, fmt.Errorf("ALLOWED_USER_ID is required")
	}
	allowed, err := strconv.ParseInt(allowedStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ALLOWED_USER_ID: %w", err)
	}
	cfg.AllowedUserID = allowed

	if !IsSupportedCurrency(cfg.BaseCurrency) {
		return nil, fmt.Errorf("unsupported BASE_CURRENCY: %s", cfg.BaseCurrency)
	}

	// 解析时区（记账时间戳与日期都按该时区取值）
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	// 解析RATE_API_TIMEOUT_SECONDS（默认10秒）
	if timeoutStr := strings.TrimSpace(os.Getenv("RATE_API_TIMEOUT_SECONDS")); timeoutStr != "" {
		seconds, err := strconv.Atoi(timeoutStr)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid RATE_API_TIMEOUT_SECONDS: %s", timeoutStr)
		}
		cfg.RateAPITimeout = time.Duration(seconds) * time.Second
	} else {
		cfg.RateAPITimeout = 10 * time.Second
	}

	cfg.BackfillSchedule = strings.TrimSpace(os.Getenv("BACKFILL_SCHEDULE"))

	// 按后端校验存储配置
	switch cfg.StoreBackend {
	case StoreBackendSheets:
		sheetsCfg, err := loadSheetsConfig()
		if err != nil {
			return nil, err
		}
		cfg.Sheets = sheetsCfg
	case StoreBackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when STORE_BACKEND=mongo")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %s", cfg.StoreBackend)
	}

	return cfg, nil
}

func loadSheetsConfig() (SheetsConfig, error) {
	cfg := SheetsConfig{
		SheetID: strings.TrimSpace(os.Getenv("SHEET_ID")),
		SAEmail: strings.TrimSpace(os.Getenv("GCP_SA_EMAIL")),
		// 部署平台的环境变量里私钥换行是字面 \n，还原成真实换行
		SAPrivateKey: strings.ReplaceAll(os.Getenv("GCP_SA_PRIVATE_KEY"), `\n`, "\n"),
	}

	if cfg.SheetID == "" {
		return SheetsConfig{}, fmt.Errorf("SHEET_ID is required when STORE_BACKEND=sheets")
	}
	if cfg.SAEmail == "" {
		return SheetsConfig{}, fmt.Errorf("GCP_SA_EMAIL is required when STORE_BACKEND=sheets")
	}
	if cfg.SAPrivateKey == "" {
		return SheetsConfig{}, fmt.Errorf("GCP_SA_PRIVATE_KEY is required when STORE_BACKEND=sheets")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultVal
}
