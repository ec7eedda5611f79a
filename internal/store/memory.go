package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore 行存储的进程内实现
// 只用于测试和本地试跑，不做持久化
type MemoryStore struct {
	mu   sync.Mutex
	rows [][]string

	// 故障注入开关（测试用）
	AppendErr error
	ReadErr   error
	UpdateErr error
}

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWithRows 用给定行（含表头）初始化内存存储
func NewMemoryStoreWithRows(rows [][]string) *MemoryStore {
	copied := make([][]string, 0, len(rows))
	for _, row := range rows {
		copied = append(copied, append([]string(nil), row...))
	}
	return &MemoryStore{rows: copied}
}

// EnsureHeader 空表时写入表头行
func (s *MemoryStore) EnsureHeader(ctx context.Context, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) > 0 {
		return nil
	}
	s.rows = append(s.rows, append([]string(nil), header...))
	return nil
}

// AppendRow 在表尾追加一行
func (s *MemoryStore) AppendRow(ctx context.Context, row []string) error {
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, append([]string(nil), row...))
	return nil
}

// ReadAllRows 读出所有行
func (s *MemoryStore) ReadAllRows(ctx context.Context) ([][]string, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([][]string, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, append([]string(nil), row...))
	}
	return rows, nil
}

// UpdateCell 改写单个单元格
func (s *MemoryStore) UpdateCell(ctx context.Context, rowIndex, colIndex int, value string) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rowIndex < 0 || rowIndex >= len(s.rows) {
		return fmt.Errorf("row %d not found", rowIndex)
	}
	if colIndex < 0 {
		return fmt.Errorf("column %d out of range for row %d", colIndex, rowIndex)
	}
	// 短行补齐到目标列，和表格后端的行为一致
	for len(s.rows[rowIndex]) <= colIndex {
		s.rows[rowIndex] = append(s.rows[rowIndex], "")
	}
	s.rows[rowIndex][colIndex] = value
	return nil
}
