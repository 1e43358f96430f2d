package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// FieldNA 缺失字段的占位值
	// 与历史数据集保持一致,缺失的文本字段一律写入"N/A"而不是空字符串
	FieldNA = "N/A"

	// ResultsPerPage 搜索结果每页条数
	ResultsPerPage = 10

	// MaxPagesPerQuery 单个查询最多可翻页数 (搜索引擎硬上限: 999条结果)
	MaxPagesPerQuery = 100
)

// Article 一条文献记录
// 自然键为URL,合并批次时按URL去重;合并完成后不再原地修改
type Article struct {
	// 文献元数据
	Title       string `json:"title"`       // 标题
	Authors     string `json:"authors"`     // 作者(自由文本,逗号分隔)
	Publication string `json:"publication"` // 发表刊物/会议
	Year        string `json:"year"`        // 发表年份(4位数字或N/A)
	Citations   int    `json:"citations"`   // 被引次数
	Abstract    string `json:"abstract"`    // 摘要片段

	// 链接信息
	URL        string `json:"url"`         // 文献URL(去重自然键)
	RelatedURL string `json:"related_url"` // 相关文献链接

	// 采集来源信息
	Page       int `json:"page"`                  // 结果页码(从0开始)
	Position   int `json:"position"`              // 页内位置(从0开始)
	SearchYear int `json:"search_year,omitempty"` // 产生该记录的查询年份
}

// HasURL 判断记录是否带有可用于去重的URL
func (a *Article) HasURL() bool {
	return a.URL != "" && a.URL != FieldNA
}

// PubYear 解析发表年份,无法解析时返回0
func (a *Article) PubYear() int {
	year, err := strconv.Atoi(strings.TrimSpace(a.Year))
	if err != nil || year < 1000 || year > 9999 {
		return 0
	}
	return year
}

// FirstAuthor 提取第一作者(逗号或"and"之前的部分)
func (a *Article) FirstAuthor() string {
	if a.Authors == "" || a.Authors == FieldNA {
		return ""
	}
	s := a.Authors
	if idx := strings.IndexAny(s, ","); idx >= 0 {
		s = s[:idx]
	}
	if idx := strings.Index(s, " and "); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// AuthorCount 估算作者数量(逗号数+1)
func (a *Article) AuthorCount() int {
	if a.Authors == "" || a.Authors == FieldNA {
		return 0
	}
	return strings.Count(a.Authors, ",") + 1
}

// ToJSON 序列化为JSON
func (a *Article) ToJSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// DedupByURL 按URL去重合并文献列表,保留首次出现的记录
// 没有URL的记录无法判定唯一性,原样保留
// 返回去重后的列表和被移除的重复条数
func DedupByURL(articles []Article) ([]Article, int) {
	seen := make(map[string]bool, len(articles))
	result := make([]Article, 0, len(articles))
	removed := 0

	for _, a := range articles {
		if !a.HasURL() {
			result = append(result, a)
			continue
		}
		if seen[a.URL] {
			removed++
			continue
		}
		seen[a.URL] = true
		result = append(result, a)
	}

	return result, removed
}

// PagesNeeded 根据总结果数计算需要抓取的页数
// 总数为0的年份 ("About 0 results") 首页即可确认为空,只需1页;
// 上限取maxPages与搜索引擎硬上限(100页)中的较小值
func PagesNeeded(totalResults, maxPages int) int {
	if maxPages <= 0 || maxPages > MaxPagesPerQuery {
		maxPages = MaxPagesPerQuery
	}
	if totalResults <= 0 {
		return 1
	}
	pages := (totalResults + ResultsPerPage - 1) / ResultsPerPage
	if pages > maxPages {
		pages = maxPages
	}
	return pages
}

// Timestamp 生成数据文件使用的时间戳后缀 (如 20251123_133107)
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// QuerySlug 将检索词转换为文件名片段 (小写,空格换下划线)
func QuerySlug(query string) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(query)), " ", "_")
	if slug == "" {
		slug = "corpus"
	}
	return slug
}

// CorpusFilename 生成最终数据集文件名
func CorpusFilename(query string, t time.Time, ext string) string {
	return fmt.Sprintf("%s_complete_%s.%s", QuerySlug(query), Timestamp(t), ext)
}
