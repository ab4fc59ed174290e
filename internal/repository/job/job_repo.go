package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ytfactory/internal/model/job"
)

var (
	// ErrNotFound 任务不存在
	ErrNotFound = errors.New("job not found")
	// ErrDuplicateID 任务ID已存在
	ErrDuplicateID = errors.New("job id already exists")
)

// JobRepository 任务仓库接口
type JobRepository interface {
	Create(ctx context.Context, j *job.Job) error
	Save(ctx context.Context, j *job.Job) error
	FindByID(ctx context.Context, id, userID string) (*job.Job, error)
	List(ctx context.Context, userID string, page, pageSize int64, status string) ([]*job.Job, int64, error)
}

// Repo 实现 JobRepository
type Repo struct {
	coll *mongo.Collection
}

// NewRepo 创建任务仓库
func NewRepo(db *mongo.Database) *Repo {
	var j job.Job
	return &Repo{coll: db.Collection(j.Collection())}
}

// Create 创建任务
func (r *Repo) Create(ctx context.Context, j *job.Job) error {
	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, j); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, j.ID)
		}
		return err
	}
	return nil
}

// Save 按 ID 写入任务的最新状态，不存在时插入
func (r *Repo) Save(ctx context.Context, j *job.Job) error {
	now := time.Now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": j.ID}, j, options.Replace().SetUpsert(true))
	return err
}

// FindByID 根据ID查询任务，userID 非空时确保归属
func (r *Repo) FindByID(ctx context.Context, id, userID string) (*job.Job, error) {
	var j job.Job
	filter := bson.M{"id": id}
	if userID != "" {
		filter["user_id"] = userID
	}
	if err := r.coll.FindOne(ctx, filter).Decode(&j); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// List 查询任务列表（支持状态筛选 + 分页）
func (r *Repo) List(ctx context.Context, userID string, page, pageSize int64, status string) ([]*job.Job, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * pageSize).
		SetLimit(pageSize)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	list := []*job.Job{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// NormalizePage 分页参数归一化
func NormalizePage(page, pageSize int64) (int64, int64) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}
