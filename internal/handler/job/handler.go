package job

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"ytfactory/internal/model/job"
	"ytfactory/internal/pkg/ctxutil"
	httputil "ytfactory/internal/pkg/http"
	"ytfactory/internal/pkg/id"
	jobrepo "ytfactory/internal/repository/job"
	"ytfactory/internal/service/jobqueue"
)

// ErrorResponse 复用通用错误响应
type ErrorResponse = httputil.ErrorResponse

const (
	CodeInvalidRequest = 40001
	CodeInvalidJobID   = 40002
	CodeJobNotFound    = 40401
	CodeInternal       = 50001
	CodeQueueFull      = 50301
)

const createAttempts = 3

// JobFactory 校验输入并创建任务，*pipeline.Driver 实现了它
type JobFactory interface {
	ValidateInput(topic string, minutes float64) error
	NewJob(topic string, minutes float64) *job.Job
}

// Submitter 任务入队，*jobqueue.Queue 实现了它
type Submitter interface {
	Submit(j *job.Job) error
}

// Handler 任务处理器
type Handler struct {
	repo    jobrepo.JobRepository
	factory JobFactory
	queue   Submitter
}

// NewHandler 创建任务处理器
func NewHandler(repo jobrepo.JobRepository, factory JobFactory, queue Submitter) *Handler {
	return &Handler{repo: repo, factory: factory, queue: queue}
}

// JobInfo 任务 DTO
type JobInfo struct {
	ID           string   `json:"id"`
	Topic        string   `json:"topic"`
	Minutes      float64  `json:"minutes"`
	Status       string   `json:"status"`
	Stage        string   `json:"stage,omitempty"`
	Progress     float64  `json:"progress"`
	TimelinePath string   `json:"timeline_path,omitempty"`
	VideoPath    string   `json:"video_path,omitempty"`
	VideoURL     string   `json:"video_url,omitempty"`
	YouTubeID    string   `json:"youtube_id,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	Error        string   `json:"error,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	FinishedAt   string   `json:"finished_at,omitempty"`
}

func toJobInfo(j *job.Job) JobInfo {
	info := JobInfo{
		ID:           j.ID,
		Topic:        j.Topic,
		Minutes:      j.Minutes,
		Status:       string(j.Status),
		Stage:        string(j.Stage),
		Progress:     j.Progress,
		TimelinePath: j.TimelinePath,
		VideoPath:    j.VideoPath,
		VideoURL:     j.VideoURL,
		YouTubeID:    j.YouTubeID,
		Warnings:     j.Warnings,
		Error:        j.Error,
		CreatedAt:    j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    j.UpdatedAt.Format(time.RFC3339),
	}
	if j.FinishedAt != nil {
		info.FinishedAt = j.FinishedAt.Format(time.RFC3339)
	}
	return info
}

// CreateJobRequest 创建任务请求
type CreateJobRequest struct {
	Topic   string  `json:"topic" binding:"required"`
	Minutes float64 `json:"minutes" binding:"required"`
}

// CreateJobResponseData 创建任务响应
type CreateJobResponseData struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// CreateJob 提交视频生成任务
// @Summary      提交任务
// @Description  为主题生成视频，任务进入队列后异步执行
// @Tags         任务
// @Accept       json
// @Produce      json
// @Param        request  body      CreateJobRequest  true  "任务参数"
// @Success      202      {object}  httputil.SuccessResponse  "已入队"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      503      {object}  ErrorResponse  "队列已满"
// @Router       /api/v1/jobs [post]
func (h *Handler) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(CodeInvalidRequest, "invalid request body", err.Error()))
		return
	}
	if err := h.factory.ValidateInput(req.Topic, req.Minutes); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(CodeInvalidRequest, "invalid job parameters", err.Error()))
		return
	}

	ctx := c.Request.Context()
	j := h.factory.NewJob(req.Topic, req.Minutes)
	if subject, ok := ctxutil.Subject(ctx); ok {
		j.UserID = subject
	}

	if err := h.create(ctx, j); err != nil {
		log.Error().Err(err).Str("job_id", j.ID).Msg("create job record failed")
		c.JSON(http.StatusInternalServerError, httputil.NewErrorResponse(CodeInternal, "failed to create job"))
		return
	}

	if err := h.queue.Submit(j); err != nil {
		h.reject(ctx, j, err)
		c.JSON(http.StatusServiceUnavailable, httputil.NewErrorResponse(CodeQueueFull, "job queue is not accepting jobs", err.Error()))
		return
	}

	c.JSON(http.StatusAccepted, httputil.NewSuccessResponse("accepted", CreateJobResponseData{
		JobID:  j.ID,
		Status: string(j.Status),
	}))
}

// create 写入任务记录，ID 冲突时追加随机后缀重试
func (h *Handler) create(ctx context.Context, j *job.Job) error {
	base := j.ID
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		if attempt > 0 {
			j.ID = id.WithSuffix(base)
		}
		if err = h.repo.Create(ctx, j); !errors.Is(err, jobrepo.ErrDuplicateID) {
			return err
		}
		log.Warn().Str("job_id", j.ID).Msg("job id collision, retrying")
	}
	return err
}

// reject 入队失败时把任务记为失败，避免留下永远 queued 的记录
func (h *Handler) reject(ctx context.Context, j *job.Job, cause error) {
	now := time.Now()
	j.Status = job.StatusFailed
	j.Error = cause.Error()
	j.FinishedAt = &now
	if err := h.repo.Save(ctx, j); err != nil {
		log.Warn().Err(err).Str("job_id", j.ID).Msg("mark rejected job failed")
	}
	if errors.Is(cause, jobqueue.ErrQueueFull) {
		log.Warn().Str("job_id", j.ID).Msg("job rejected: queue full")
	}
}

// GetJob 查询任务
// @Summary      查询任务
// @Tags         任务
// @Produce      json
// @Param        id   path      string  true  "任务ID"
// @Success      200  {object}  httputil.SuccessResponse
// @Failure      400  {object}  ErrorResponse  "任务ID不合法"
// @Failure      404  {object}  ErrorResponse  "任务不存在"
// @Router       /api/v1/jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("id")
	if !id.IsSafeJobID(jobID) {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(CodeInvalidJobID, "invalid job id"))
		return
	}

	ctx := c.Request.Context()
	subject, _ := ctxutil.Subject(ctx)
	j, err := h.repo.FindByID(ctx, jobID, subject)
	if err != nil {
		if errors.Is(err, jobrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, httputil.NewErrorResponse(CodeJobNotFound, "job not found"))
			return
		}
		log.Error().Err(err).Str("job_id", jobID).Msg("find job failed")
		c.JSON(http.StatusInternalServerError, httputil.NewErrorResponse(CodeInternal, "failed to load job"))
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("success", toJobInfo(j)))
}

// ListJobs 任务列表
// @Summary      任务列表
// @Tags         任务
// @Produce      json
// @Param        status     query     string  false  "状态筛选"
// @Param        page       query     int     false  "页码"
// @Param        page_size  query     int     false  "每页数量"
// @Success      200  {object}  httputil.SuccessResponse
// @Router       /api/v1/jobs [get]
func (h *Handler) ListJobs(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	pageSize, _ := strconv.ParseInt(c.DefaultQuery("page_size", "20"), 10, 64)
	page, pageSize = jobrepo.NormalizePage(page, pageSize)
	status := c.Query("status")

	ctx := c.Request.Context()
	subject, _ := ctxutil.Subject(ctx)
	list, total, err := h.repo.List(ctx, subject, page, pageSize, status)
	if err != nil {
		log.Error().Err(err).Msg("list jobs failed")
		c.JSON(http.StatusInternalServerError, httputil.NewErrorResponse(CodeInternal, "failed to list jobs"))
		return
	}

	items := make([]JobInfo, 0, len(list))
	for _, j := range list {
		items = append(items, toJobInfo(j))
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse("success", httputil.PageData{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}))
}
