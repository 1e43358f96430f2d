package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReadingListFilename 默认阅读清单文件名
const ReadingListFilename = "reading_list.json"

// ReadingEntry 阅读清单条目
type ReadingEntry struct {
	// 标识信息
	ID string `json:"id"` // 条目唯一ID (UUID)

	// 文献元数据
	Title      string `json:"title"`
	Authors    string `json:"authors"`
	Year       string `json:"year"`                  // 4位数字或N/A
	URL        string `json:"url"`                   // 去重自然键
	Citations  int    `json:"citations"`             // 被引次数
	ScholarURL string `json:"scholar_url,omitempty"` // 按标题构造的检索链接

	// 整理信息
	Tags    []string `json:"tags"`    // 标签集合
	Notes   string   `json:"notes"`   // 笔记
	Paywall bool     `json:"paywall"` // 是否付费墙

	// 格式化引用(按需生成)
	FormattedCitations map[string]string `json:"citations_formatted,omitempty"`

	// 时间戳
	DateAdded string `json:"date_added"` // 加入日期 (2006-01-02)
}

// NewReadingEntry 创建阅读清单条目
func NewReadingEntry(title, authors, url string) *ReadingEntry {
	return &ReadingEntry{
		ID:        generateID(),
		Title:     title,
		Authors:   authors,
		Year:      FieldNA,
		URL:       url,
		Tags:      make([]string, 0),
		DateAdded: time.Now().Format("2006-01-02"),
	}
}

// HasTag 判断条目是否带有指定标签
func (e *ReadingEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag 添加标签(去重)
func (e *ReadingEntry) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" || e.HasTag(tag) {
		return
	}
	e.Tags = append(e.Tags, tag)
}

// Validate 验证条目
func (e *ReadingEntry) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("条目标题不能为空")
	}
	if err := ValidateURL(e.URL); err != nil {
		return fmt.Errorf("条目URL无效: %w", err)
	}
	return nil
}

// ReadingList 阅读清单文档
// 整个清单由单个JSON文件持有,读-改-写整体落盘,无并发写保护
type ReadingList struct {
	Entries []*ReadingEntry `json:"reading_list"`
}

// NewReadingList 创建空清单
func NewReadingList() *ReadingList {
	return &ReadingList{Entries: make([]*ReadingEntry, 0)}
}

// FindByURL 按URL查找条目,未找到返回nil
func (l *ReadingList) FindByURL(url string) *ReadingEntry {
	for _, e := range l.Entries {
		if e.URL == url {
			return e
		}
	}
	return nil
}

// Add 添加条目,URL已存在时返回错误
func (l *ReadingList) Add(entry *ReadingEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if l.FindByURL(entry.URL) != nil {
		return fmt.Errorf("文献已在阅读清单中: %s", entry.Title)
	}
	l.Entries = append(l.Entries, entry)
	return nil
}

// Remove 按序号移除条目(序号从1开始),返回被移除的条目
func (l *ReadingList) Remove(index int) (*ReadingEntry, error) {
	if index < 1 || index > len(l.Entries) {
		return nil, fmt.Errorf("无效的序号: %d (有效范围: 1-%d)", index, len(l.Entries))
	}
	removed := l.Entries[index-1]
	l.Entries = append(l.Entries[:index-1], l.Entries[index:]...)
	return removed, nil
}

// FilterByTag 按标签过滤,tag为空返回全部条目
func (l *ReadingList) FilterByTag(tag string) []*ReadingEntry {
	if tag == "" {
		return l.Entries
	}
	result := make([]*ReadingEntry, 0)
	for _, e := range l.Entries {
		if e.HasTag(tag) {
			result = append(result, e)
		}
	}
	return result
}

// FillScholarURLs 为缺少检索链接的条目补充链接,返回补充的条目数
// build由调用方注入,按条目标题构造搜索引擎入口URL
func (l *ReadingList) FillScholarURLs(build func(title string) string) int {
	filled := 0
	for _, e := range l.Entries {
		if e.ScholarURL != "" || strings.TrimSpace(e.Title) == "" {
			continue
		}
		e.ScholarURL = build(e.Title)
		filled++
	}
	return filled
}

// ToJSON 序列化为JSON
func (l *ReadingList) ToJSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// FromJSON 从JSON反序列化
func (l *ReadingList) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, l); err != nil {
		return err
	}
	if l.Entries == nil {
		l.Entries = make([]*ReadingEntry, 0)
	}
	return nil
}

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}
