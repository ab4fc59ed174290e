package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"ytfactory/internal/config"
)

const connectTimeout = 10 * time.Second

// Client MongoDB 客户端封装
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// New 连接 MongoDB 并确认可用
func New(ctx context.Context, cfg *config.MongoConfig) (*Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is empty")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongo database is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Client{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

// Database 获取数据库
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Ping 就绪检查
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close 关闭连接
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
