package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending     TaskStatus = "pending"     // 待执行
	TaskStatusRunning     TaskStatus = "running"     // 执行中
	TaskStatusCompleted   TaskStatus = "completed"   // 已完成
	TaskStatusInterrupted TaskStatus = "interrupted" // 被中断(可恢复)
	TaskStatusFailed      TaskStatus = "failed"      // 失败
)

// ScrapeStats 采集统计
type ScrapeStats struct {
	TotalArticles    int     `json:"total_articles"`     // 采集文献总数
	PagesFetched     int     `json:"pages_fetched"`      // 成功抓取页数
	FailedPages      int     `json:"failed_pages"`       // 失败页数
	RateLimitedPages int     `json:"rate_limited_pages"` // 被限流(429)页数
	YearsCompleted   int     `json:"years_completed"`    // 已完成年份数
	DuplicatesMerged int     `json:"duplicates_merged"`  // 合并时去除的重复记录数
	RequestsUsed     int     `json:"requests_used"`      // 本次会话消耗的请求数
	Duration         float64 `json:"duration"`           // 总耗时(秒)
}

// ScrapeConfig 采集配置
type ScrapeConfig struct {
	Query           string `json:"query" mapstructure:"query"`                       // 检索短语(按精确短语查询)
	YearStart       int    `json:"year_start" mapstructure:"year_start"`             // 起始年份
	YearEnd         int    `json:"year_end" mapstructure:"year_end"`                 // 结束年份(0表示当前年)
	MaxPages        int    `json:"max_pages" mapstructure:"max_pages"`               // 每年最多抓取页数
	Concurrency     int    `json:"concurrency" mapstructure:"concurrency"`           // 并发请求数
	DelayMin        int    `json:"delay_min" mapstructure:"delay_min"`               // 请求间最小延迟(秒)
	DelayMax        int    `json:"delay_max" mapstructure:"delay_max"`               // 请求间最大延迟(秒)
	SessionRequests int    `json:"session_requests" mapstructure:"session_requests"` // 单次会话请求预算
	Timeout         int    `json:"timeout" mapstructure:"timeout"`                   // 单请求超时(秒)
	Resume          bool   `json:"resume" mapstructure:"resume"`                     // 是否从进度文件恢复
}

// Validate 验证配置
func (c *ScrapeConfig) Validate() error {
	if c.Query == "" {
		return fmt.Errorf("检索短语不能为空")
	}
	if c.YearStart < 1900 || c.YearStart > 2100 {
		return fmt.Errorf("起始年份必须在1900-2100之间,当前值: %d", c.YearStart)
	}
	if c.YearEnd != 0 && c.YearEnd < c.YearStart {
		return fmt.Errorf("结束年份不能早于起始年份: %d < %d", c.YearEnd, c.YearStart)
	}
	if c.MaxPages < 1 || c.MaxPages > MaxPagesPerQuery {
		return fmt.Errorf("每年页数必须在1-%d之间,当前值: %d", MaxPagesPerQuery, c.MaxPages)
	}
	if c.Concurrency < 1 || c.Concurrency > 10 {
		return fmt.Errorf("并发数必须在1-10之间,当前值: %d", c.Concurrency)
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return fmt.Errorf("延迟区间无效: [%d, %d]", c.DelayMin, c.DelayMax)
	}
	if c.SessionRequests < 1 {
		return fmt.Errorf("会话请求预算必须大于0,当前值: %d", c.SessionRequests)
	}
	if c.Timeout < 1 || c.Timeout > 120 {
		return fmt.Errorf("超时必须在1-120秒之间,当前值: %d", c.Timeout)
	}
	return nil
}

// EffectiveYearEnd 返回实际的结束年份(0替换为当前年)
func (c *ScrapeConfig) EffectiveYearEnd(now time.Time) int {
	if c.YearEnd == 0 {
		return now.Year()
	}
	return c.YearEnd
}

// ScrapeTask 采集任务
type ScrapeTask struct {
	// 基本信息
	ID          string     `json:"id"`                     // 任务唯一ID (UUID)
	Query       string     `json:"query"`                  // 检索短语
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	StartedAt   *time.Time `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置快照
	Config ScrapeConfig `json:"config"`

	// 执行状态
	Status TaskStatus `json:"status"`

	// 统计信息
	Stats ScrapeStats `json:"stats"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewScrapeTask 创建新任务
func NewScrapeTask(config ScrapeConfig) (*ScrapeTask, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ScrapeTask{
		ID:        generateID(),
		Query:     config.Query,
		CreatedAt: time.Now(),
		Config:    config,
		Status:    TaskStatusPending,
		Stats:     ScrapeStats{},
	}, nil
}

// MarkStarted 标记任务开始
func (t *ScrapeTask) MarkStarted() {
	now := time.Now()
	t.StartedAt = &now
	t.Status = TaskStatusRunning
}

// MarkCompleted 标记任务完成
func (t *ScrapeTask) MarkCompleted(stats ScrapeStats) {
	now := time.Now()
	t.CompletedAt = &now
	t.Status = TaskStatusCompleted
	t.Stats = stats
}

// MarkInterrupted 标记任务被中断(预算耗尽或收到信号)
func (t *ScrapeTask) MarkInterrupted(stats ScrapeStats, reason string) {
	now := time.Now()
	t.CompletedAt = &now
	t.Status = TaskStatusInterrupted
	t.Stats = stats
	t.ErrorMessage = reason
}

// ToJSON 序列化为JSON
func (t *ScrapeTask) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromJSON 从JSON反序列化
func (t *ScrapeTask) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}
