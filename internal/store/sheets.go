package store

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore 行存储的 Google Sheets 实现
// 一个实例对应一个电子表格里的一个工作表
type SheetsStore struct {
	service   *sheets.Service
	sheetID   string
	worksheet string
}

// NewSheetsService 用 Service Account 凭据创建 Sheets API 客户端
func NewSheetsService(ctx context.Context, saEmail, saPrivateKey string) (*sheets.Service, error) {
	conf := &jwt.Config{
		Email:      saEmail,
		PrivateKey: []byte(saPrivateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return service, nil
}

// NewSheetsStore 创建指向单个工作表的存储实例
func NewSheetsStore(service *sheets.Service, sheetID, worksheet string) *SheetsStore {
	return &SheetsStore{
		service:   service,
		sheetID:   sheetID,
		worksheet: worksheet,
	}
}

// EnsureHeader 空工作表时写入表头行
func (s *SheetsStore) EnsureHeader(ctx context.Context, header []string) error {
	rows, err := s.ReadAllRows(ctx)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	return s.AppendRow(ctx, header)
}

// AppendRow 在工作表末尾追加一行
func (s *SheetsStore) AppendRow(ctx context.Context, row []string) error {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}

	_, err := s.service.Spreadsheets.Values.
		Append(s.sheetID, s.worksheet+"!A1", &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to %s: %w", s.worksheet, err)
	}
	return nil
}

// ReadAllRows 读取整个工作表（首行为表头）
func (s *SheetsStore) ReadAllRows(ctx context.Context) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.sheetID, s.worksheet).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", s.worksheet, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// UpdateCell 改写单个单元格（0 基行列索引，含表头行）
func (s *SheetsStore) UpdateCell(ctx context.Context, rowIndex, colIndex int, value string) error {
	cellRange := fmt.Sprintf("%s!%s%d", s.worksheet, columnName(colIndex), rowIndex+1)

	_, err := s.service.Spreadsheets.Values.
		Update(s.sheetID, cellRange, &sheets.ValueRange{Values: [][]interface{}{{value}}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update cell %s: %w", cellRange, err)
	}
	return nil
}

// columnName 把 0 基列索引转成 A1 记法的列名（0->A, 25->Z, 26->AA）
func columnName(colIndex int) string {
	name := ""
	for colIndex >= 0 {
		name = string(rune('A'+colIndex%26)) + name
		colIndex = colIndex/26 - 1
	}
	return name
}
