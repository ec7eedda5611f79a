package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// rowDocument 表格行在 MongoDB 里的形态
// row_index 从 0 开始，0 号行固定为表头
type rowDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RowIndex  int64              `bson:"row_index"`
	Cells     []string           `bson:"cells"`
	CreatedAt time.Time          `bson:"created_at"`
}

// MongoStore 行存储的 MongoDB 实现
// 本地运行或没有 Google 凭据时替代 Sheets 后端，一个集合对应一个工作表。
// 追加行的下一个行号取自当前文档数，并发追加可能争用；
// 与表格后端一样按"先到先得"读语义处理，不做唯一性保证。
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore 创建指向单个集合（工作表）的存储实例
func NewMongoStore(db *mongo.Database, worksheet string) *MongoStore {
	return &MongoStore{
		collection: db.Collection("rows_" + worksheet),
	}
}

// EnsureHeader 空集合时写入表头行
func (s *MongoStore) EnsureHeader(ctx context.Context, header []string) error {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.AppendRow(ctx, header)
}

// AppendRow 在表尾追加一行
func (s *MongoStore) AppendRow(ctx context.Context, row []string) error {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}

	doc := rowDocument{
		RowIndex:  count,
		Cells:     append([]string(nil), row...),
		CreatedAt: time.Now(),
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

// ReadAllRows 按行号升序读出所有行
func (s *MongoStore) ReadAllRows(ctx context.Context) ([][]string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "row_index", Value: 1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []rowDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, doc.Cells)
	}
	return rows, nil
}

// UpdateCell 只改写一行中的一个单元格
func (s *MongoStore) UpdateCell(ctx context.Context, rowIndex, colIndex int, value string) error {
	filter := bson.M{"row_index": rowIndex}
	update := bson.M{"$set": bson.M{fmt.Sprintf("cells.%d", colIndex): value}}

	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update cell (%d,%d): %w", rowIndex, colIndex, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("row %d not found", rowIndex)
	}
	return nil
}

// EnsureIndexes 确保行号索引存在
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys: bson.D{{Key: "row_index", Value: 1}},
	}
	if _, err := s.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create row index: %w", err)
	}
	return nil
}
