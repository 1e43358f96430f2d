package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ProgressFilename 默认进度文件名
const ProgressFilename = "scraping_progress.json"

// ScrapeProgress 采集进度检查点
// 每完成一个年份写盘一次,进程被杀后可以从进度文件恢复,
// 不会重新抓取已完成年份,也不会产生重复记录
type ScrapeProgress struct {
	// 任务信息
	TaskID string `json:"task_id"` // 关联的任务ID
	Query  string `json:"query"`   // 检索短语

	// 进度信息
	YearsCompleted []int     `json:"years_completed"` // 已完成年份列表
	Articles       []Article `json:"articles"`        // 已累积的文献记录
	TotalArticles  int       `json:"total_articles"`  // 记录总数

	// 时间戳
	LastUpdated string `json:"last_updated"` // 最后更新时间 (20060102_150405)

	// 配置快照
	Config ScrapeConfig `json:"config"`
}

// NewScrapeProgress 创建空进度
func NewScrapeProgress(taskID string, config ScrapeConfig) *ScrapeProgress {
	return &ScrapeProgress{
		TaskID:         taskID,
		Query:          config.Query,
		YearsCompleted: make([]int, 0),
		Articles:       make([]Article, 0),
		Config:         config,
	}
}

// IsYearCompleted 判断年份是否已完成
func (p *ScrapeProgress) IsYearCompleted(year int) bool {
	for _, y := range p.YearsCompleted {
		if y == year {
			return true
		}
	}
	return false
}

// AddYear 记录一个已完成的年份及其文献
// 为每条记录打上search_year标记;同一年份重复提交时忽略
func (p *ScrapeProgress) AddYear(year int, articles []Article) {
	if p.IsYearCompleted(year) {
		return
	}

	for i := range articles {
		articles[i].SearchYear = year
	}

	p.YearsCompleted = append(p.YearsCompleted, year)
	sort.Sort(sort.Reverse(sort.IntSlice(p.YearsCompleted)))
	p.Articles = append(p.Articles, articles...)
	p.TotalArticles = len(p.Articles)
	p.LastUpdated = Timestamp(time.Now())
}

// MergedArticles 返回按URL去重后的全量文献(最终数据集)
// 不变式: 各年份记录的并集按URL去重后即为最终语料,
// 同一记录不会以不同年份出现两次
func (p *ScrapeProgress) MergedArticles() ([]Article, int) {
	return DedupByURL(p.Articles)
}

// ToJSON 序列化为JSON
func (p *ScrapeProgress) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// FromJSON 从JSON反序列化
func (p *ScrapeProgress) FromJSON(data []byte) error {
	return json.Unmarshal(data, p)
}

// SaveToFile 保存到文件
// 先写临时文件再重命名,避免进程被杀时留下半截进度文件
func (p *ScrapeProgress) SaveToFile(path string) error {
	data, err := p.ToJSON()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建进度目录失败: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadProgressFromFile 从文件加载进度
func LoadProgressFromFile(path string) (*ScrapeProgress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p ScrapeProgress
	if err := p.FromJSON(data); err != nil {
		return nil, fmt.Errorf("解析进度文件失败 [%s]: %w", path, err)
	}

	return &p, nil
}
