package telegram

import (
	"context"
	"fmt"

	"expense_bot/internal/ledger"
	"expense_bot/internal/logger"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// Bot Telegram 接入层
// 记账本身由 ledger.Service 完成，这里只负责从 update 里取出文本和
// 发送者，并在记账成功后回一条确认消息。
type Bot struct {
	client  *bot.Bot // 未配置 token 时为 nil，只记账不回复
	service *ledger.Service
}

// New 创建 Telegram 接入层
// token 可为空：webhook 照常处理，只是不发确认回复。
func New(token string, service *ledger.Service) (*Bot, error) {
	t := &Bot{service: service}
	if token == "" {
		logger.L().Warn("TELEGRAM_TOKEN not set, confirmation replies disabled")
		return t, nil
	}

	// webhook 模式下不需要 getMe，跳过以免启动时多一次网络调用
	client, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	t.client = client
	return t, nil
}

// HandleUpdate 处理一条 webhook update
// 非文本消息与记账无关，按忽略处理。确认回复尽力而为：
// 发送失败只记日志，不影响记账结果。
func (b *Bot) HandleUpdate(ctx context.Context, update *botModels.Update) ledger.Result {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return ledger.Result{Status: ledger.StatusIgnored, Detail: "not_a_message"}
	}
	msg := update.Message

	result := b.service.Ingest(ctx, msg.Text, msg.From.ID)
	if result.Status == ledger.StatusAccepted {
		b.reply(ctx, msg.Chat.ID, confirmationText(result.Transaction))
	}
	return result
}

// reply 发送确认回复
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if b.client == nil {
		return
	}
	_, err := b.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		logger.L().Warnf("Failed to send confirmation to chat %d: %v", chatID, err)
	}
}

// confirmationText 拼确认消息文本
func confirmationText(tx *ledger.Transaction) string {
	icon := "💰"
	if tx.IsExpense() {
		icon = "🧾"
	}

	text := fmt.Sprintf("%s 已记账：%.2f %s", icon, tx.Amount, tx.Currency)
	if tx.Currency != tx.BaseCurrency {
		text += fmt.Sprintf("（%.2f %s）", tx.AmountBase, tx.BaseCurrency)
	}
	if tx.Category != "" {
		text += "\n分类：" + tx.Category
		if tx.Subcategory != "" {
			text += " / " + tx.Subcategory
		}
	}
	return text
}
