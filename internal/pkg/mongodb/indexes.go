package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"ytfactory/internal/model/job"
)

// Indexed 自带索引定义的集合模型
type Indexed interface {
	Collection() string
	EnsureIndexes(ctx context.Context, db *mongo.Database) error
}

// EnsureIndexes 创建所有模型的索引，启动时调用
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, &job.Job{})
}

func ensure(ctx context.Context, db *mongo.Database, models ...Indexed) error {
	for _, m := range models {
		if err := m.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", m.Collection(), err)
		}
	}
	return nil
}
