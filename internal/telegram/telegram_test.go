package telegram

import (
	"context"
	"testing"
	"time"

	"expense_bot/internal/config"
	"expense_bot/internal/ledger"
	"expense_bot/internal/rates"
	"expense_bot/internal/store"

	botModels "github.com/go-telegram/bot/models"
)

type stubSource struct{ rate float64 }

func (s stubSource) FetchRate(ctx context.Context, date, base, quote string) (float64, error) {
	return s.rate, nil
}

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	cfg := &config.Config{
		AllowedUserID: 77,
		BaseCurrency:  "RUB",
		Location:      time.UTC,
	}
	transactions := store.NewMemoryStoreWithRows([][]string{store.TransactionsHeader})
	ratesTable := store.NewMemoryStoreWithRows([][]string{store.RatesHeader})
	service := ledger.NewService(cfg, transactions, rates.NewResolver(ratesTable, stubSource{rate: 5}))

	b, err := New("", service)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b
}

func TestHandleUpdate_NonMessageIgnored(t *testing.T) {
	b := newTestBot(t)

	result := b.HandleUpdate(context.Background(), &botModels.Update{})
	if result.Status != ledger.StatusIgnored {
		t.Fatalf("expected ignored, got %s", result.Status)
	}
	if result.Detail != "not_a_message" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestHandleUpdate_AllowedSenderAccepted(t *testing.T) {
	b := newTestBot(t)

	update := &botModels.Update{
		Message: &botModels.Message{
			Text: "-100 lunch #food",
			From: &botModels.User{ID: 77},
			Chat: botModels.Chat{ID: 123},
		},
	}
	result := b.HandleUpdate(context.Background(), update)
	if result.Status != ledger.StatusAccepted {
		t.Fatalf("expected accepted, got %s (%s)", result.Status, result.Detail)
	}
}

func TestHandleUpdate_OtherSenderIgnored(t *testing.T) {
	b := newTestBot(t)

	update := &botModels.Update{
		Message: &botModels.Message{
			Text: "-100 lunch",
			From: &botModels.User{ID: 78},
			Chat: botModels.Chat{ID: 123},
		},
	}
	result := b.HandleUpdate(context.Background(), update)
	if result.Status != ledger.StatusIgnored {
		t.Fatalf("expected ignored, got %s", result.Status)
	}
}

func TestConfirmationText(t *testing.T) {
	tx := &ledger.Transaction{
		Amount:       -1200,
		Currency:     "KZT",
		AmountBase:   -240,
		BaseCurrency: "RUB",
		Category:     "food",
		Subcategory:  "coffee",
	}
	got := confirmationText(tx)
	want := "🧾 已记账：-1200.00 KZT（-240.00 RUB）\n分类：food / coffee"
	if got != want {
		t.Fatalf("unexpected confirmation:\nwant: %q\ngot:  %q", want, got)
	}

	income := &ledger.Transaction{Amount: 300, Currency: "RUB", AmountBase: 300, BaseCurrency: "RUB"}
	if got := confirmationText(income); got != "💰 已记账：300.00 RUB" {
		t.Fatalf("unexpected confirmation: %q", got)
	}
}
