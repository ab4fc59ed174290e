// Package job 视频生成任务记录
package job

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Status 任务状态
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Stage 流水线阶段
type Stage string

const (
	StageScript   Stage = "script"
	StageSpeech   Stage = "speech"
	StageImages   Stage = "images"
	StageTimeline Stage = "timeline"
	StagePersist  Stage = "persist"
	StageRender   Stage = "render"
	StagePublish  Stage = "publish"
	StageUpload   Stage = "upload"
)

// Stages 按执行顺序排列的全部阶段
var Stages = []Stage{
	StageScript, StageSpeech, StageImages, StageTimeline,
	StagePersist, StageRender, StagePublish, StageUpload,
}

// Progress 阶段开始时的总体进度（0.0-1.0）
func (s Stage) Progress() float64 {
	for i, st := range Stages {
		if st == s {
			return float64(i) / float64(len(Stages))
		}
	}
	return 0
}

// Job 任务实体
// 一个 Job 表示一次 topic → 视频 的完整运行
type Job struct {
	ID           string     `bson:"id" json:"id"`
	UserID       string     `bson:"user_id,omitempty" json:"user_id,omitempty"` // 提交者（token subject）
	Topic        string     `bson:"topic" json:"topic"`
	Minutes      float64    `bson:"minutes" json:"minutes"`
	Status       Status     `bson:"status" json:"status"`
	Stage        Stage      `bson:"stage,omitempty" json:"stage,omitempty"` // 当前或失败的阶段
	Progress     float64    `bson:"progress" json:"progress"`
	TimelinePath string     `bson:"timeline_path,omitempty" json:"timeline_path,omitempty"`
	VideoPath    string     `bson:"video_path,omitempty" json:"video_path,omitempty"`
	VideoURL     string     `bson:"video_url,omitempty" json:"video_url,omitempty"`   // publish 阶段的存储地址
	YouTubeID    string     `bson:"youtube_id,omitempty" json:"youtube_id,omitempty"` // upload 阶段返回的视频 ID
	Warnings     []string   `bson:"warnings,omitempty" json:"warnings,omitempty"`     // 时间线质量警告
	Error        string     `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
	FinishedAt   *time.Time `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
}

// Collection 返回集合名称
func (j *Job) Collection() string { return "jobs" }

// Finished 任务是否已结束
func (j *Job) Finished() bool {
	return j.Status == StatusSucceeded || j.Status == StatusFailed
}

// EnsureIndexes 创建和维护索引
func (j *Job) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(j.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_user_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
