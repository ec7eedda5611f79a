package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"expense_bot/internal/config"
	"expense_bot/internal/rates"
	"expense_bot/internal/store"
)

// fakeSource 可编程的汇率来源
type fakeSource struct {
	rate  float64
	err   error
	calls int
}

func (f *fakeSource) FetchRate(ctx context.Context, date, base, quote string) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.rate, nil
}

type fixture struct {
	service      *Service
	transactions *store.MemoryStore
	ratesTable   *store.MemoryStore
	source       *fakeSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		AllowedUserID: 1000,
		BaseCurrency:  "RUB",
		Location:      time.UTC,
	}
	transactions := store.NewMemoryStoreWithRows([][]string{store.TransactionsHeader})
	ratesTable := store.NewMemoryStoreWithRows([][]string{store.RatesHeader})
	source := &fakeSource{rate: 5.0}

	service := NewService(cfg, transactions, rates.NewResolver(ratesTable, source))
	service.now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	}

	return &fixture{
		service:      service,
		transactions: transactions,
		ratesTable:   ratesTable,
		source:       source,
	}
}

func (f *fixture) rowCount(t *testing.T) int {
	t.Helper()
	rows, err := f.transactions.ReadAllRows(context.Background())
	if err != nil {
		t.Fatalf("ReadAllRows failed: %v", err)
	}
	return len(rows)
}

func TestIngest_NonAllowedSenderIgnored(t *testing.T) {
	f := newFixture(t)

	result := f.service.Ingest(context.Background(), "-100 food", 9999)
	if result.Status != StatusIgnored {
		t.Fatalf("expected ignored, got %s", result.Status)
	}
	if result.Detail != "sender_not_allowed" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
	if f.rowCount(t) != 1 {
		t.Fatalf("no row must be written for non-allowed sender")
	}
}

func TestIngest_ParseRejectionIgnored(t *testing.T) {
	f := newFixture(t)

	result := f.service.Ingest(context.Background(), "1200 coffee", 1000)
	if result.Status != StatusIgnored {
		t.Fatalf("expected ignored, got %s", result.Status)
	}
	if result.Detail != "no_sign_match" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
	if f.rowCount(t) != 1 {
		t.Fatalf("no row must be written for rejected message")
	}
}

func TestIngest_UnsupportedCurrencyNoRowWritten(t *testing.T) {
	f := newFixture(t)

	result := f.service.Ingest(context.Background(), "-10 XYZ snack", 1000)
	if result.Status != StatusIgnored {
		t.Fatalf("expected ignored, got %s", result.Status)
	}
	if result.Detail != "unsupported_currency:XYZ" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
	if f.rowCount(t) != 1 {
		t.Fatalf("no row must be written for unsupported currency")
	}
}

func TestIngest_BaseCurrencySkipsResolver(t *testing.T) {
	f := newFixture(t)

	result := f.service.Ingest(context.Background(), "-250 groceries #food", 1000)
	if result.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s (%s)", result.Status, result.Detail)
	}
	if f.source.calls != 0 {
		t.Fatalf("identity case must not call the rate source")
	}

	tx := result.Transaction
	if tx.Amount != -250.00 || tx.AmountBase != -250.00 {
		t.Fatalf("unexpected amounts: %v / %v", tx.Amount, tx.AmountBase)
	}
	if tx.Currency != "RUB" || tx.BaseCurrency != "RUB" {
		t.Fatalf("unexpected currencies: %s / %s", tx.Currency, tx.BaseCurrency)
	}
}

func TestIngest_ForeignCurrencyConverted(t *testing.T) {
	f := newFixture(t)
	f.source.rate = 5.0 // 1 RUB = 5 KZT

	result := f.service.Ingest(context.Background(), "-1200 KZT coffee #food/coffee", 1000)
	if result.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s (%s)", result.Status, result.Detail)
	}

	tx := result.Transaction
	if tx.AmountBase != -240.00 {
		t.Fatalf("expected amount_base -240.00, got %v", tx.AmountBase)
	}
	if tx.Date != "2024-03-01" {
		t.Fatalf("unexpected date: %s", tx.Date)
	}
	if tx.ID == "" {
		t.Fatalf("expected generated id")
	}

	// 折算结果写进了行存储
	rows, _ := f.transactions.ReadAllRows(context.Background())
	if len(rows) != 2 {
		t.Fatalf("expected 1 appended row, got %d", len(rows)-1)
	}
	row := rows[1]
	if row[3] != "-1200.00" || row[4] != "KZT" || row[5] != "-240.00" || row[6] != "RUB" {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[7] != "food" || row[8] != "coffee" || row[9] != "coffee" {
		t.Fatalf("unexpected labels in row: %v", row)
	}
}

func TestIngest_AmountBaseRoundedToTwoDigits(t *testing.T) {
	f := newFixture(t)
	f.source.rate = 3.0 // 1000/3 = 333.333...

	result := f.service.Ingest(context.Background(), "-1000 kzt", 1000)
	if result.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s (%s)", result.Status, result.Detail)
	}
	if result.Transaction.AmountBase != -333.33 {
		t.Fatalf("expected -333.33, got %v", result.Transaction.AmountBase)
	}
}

func TestIngest_RateErrorFails(t *testing.T) {
	f := newFixture(t)
	f.source.err = rates.ErrSourceUnavailable

	result := f.service.Ingest(context.Background(), "-10 USD", 1000)
	if result.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if !strings.HasPrefix(result.Detail, "RATE_ERROR:") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
	if f.rowCount(t) != 1 {
		t.Fatalf("no row must be written when rate resolution fails")
	}
}

func TestIngest_StoreErrorFails(t *testing.T) {
	f := newFixture(t)
	f.transactions.AppendErr = errors.New("quota exceeded")

	result := f.service.Ingest(context.Background(), "-100 lunch", 1000)
	if result.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if !strings.HasPrefix(result.Detail, "STORE_ERROR:") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestIngest_RatePersistedForReuse(t *testing.T) {
	f := newFixture(t)

	if r := f.service.Ingest(context.Background(), "-10 USD", 1000); r.Status != StatusAccepted {
		t.Fatalf("first ingest failed: %s", r.Detail)
	}
	if r := f.service.Ingest(context.Background(), "-20 USD", 1000); r.Status != StatusAccepted {
		t.Fatalf("second ingest failed: %s", r.Detail)
	}
	if f.source.calls != 1 {
		t.Fatalf("expected a single source fetch, got %d", f.source.calls)
	}
}
