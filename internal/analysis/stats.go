// Package analysis 对采集到的文献语料做描述性统计与轻量文本挖掘。
// 所有结果输出为终端表格与JSON报告,不生成图片。
package analysis

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/stat"
)

// researchKeywords 调研主题的固定关键词表,统计其出现在多少篇文献的标题或摘要中
var researchKeywords = []string{
	"mental rotation", "spatial ability", "spatial visualization",
	"sex difference", "gender", "imagery", "working memory",
	"angular disparity", "chronometric", "training", "strategy", "embodied",
}

// CitationStats 引用数的描述性统计
type CitationStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	Total  int     `json:"total"`
}

// YearCount 某年份的文献数量
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// NamedCount 名称+计数 (期刊、作者等排行)
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CorpusSummary 语料整体统计报告
type CorpusSummary struct {
	TotalArticles int              `json:"total_articles"`
	WithURL       int              `json:"with_url"`
	WithAbstract  int              `json:"with_abstract"`
	WithYear      int              `json:"with_year"`
	Citations     CitationStats    `json:"citations"`
	ByYear        []YearCount      `json:"by_year"`
	BySearchYear  []YearCount      `json:"by_search_year,omitempty"`
	Keywords      []NamedCount     `json:"keywords"`
	TopVenues     []NamedCount     `json:"top_venues"`
	TopAuthors    []NamedCount     `json:"top_authors"`
	TopCited      []models.Article `json:"top_cited"`
}

// Summarize 计算语料的描述性统计
func Summarize(articles []models.Article, topN int) *CorpusSummary {
	if topN <= 0 {
		topN = 10
	}

	summary := &CorpusSummary{TotalArticles: len(articles)}

	citations := make([]float64, 0, len(articles))
	yearCounts := make(map[int]int)
	searchYearCounts := make(map[int]int)
	venueCounts := make(map[string]int)
	authorCounts := make(map[string]int)
	keywordCounts := make(map[string]int)

	for i := range articles {
		a := &articles[i]

		if a.HasURL() {
			summary.WithURL++
		}
		if a.Abstract != "" && a.Abstract != models.FieldNA {
			summary.WithAbstract++
		}
		if year := a.PubYear(); year > 0 {
			summary.WithYear++
			yearCounts[year]++
		}
		if a.SearchYear > 0 {
			searchYearCounts[a.SearchYear]++
		}
		countKeywords(a, keywordCounts)

		citations = append(citations, float64(a.Citations))
		summary.Citations.Total += a.Citations

		if a.Publication != "" && a.Publication != models.FieldNA {
			venueCounts[a.Publication]++
		}
		if author := a.FirstAuthor(); author != "" {
			authorCounts[author]++
		}
	}

	summary.Citations = citationStats(citations, summary.Citations.Total)
	summary.ByYear = sortYearCounts(yearCounts)
	summary.BySearchYear = sortYearCounts(searchYearCounts)
	summary.Keywords = topCounts(keywordCounts, len(researchKeywords))
	summary.TopVenues = topCounts(venueCounts, topN)
	summary.TopAuthors = topCounts(authorCounts, topN)
	summary.TopCited = topCited(articles, topN)

	return summary
}

// citationStats 计算引用数分布
func citationStats(values []float64, total int) CitationStats {
	cs := CitationStats{Count: len(values), Total: total}
	if len(values) == 0 {
		return cs
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	cs.Mean = stat.Mean(sorted, nil)
	cs.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	cs.Q1 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	cs.Q3 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
	cs.StdDev = stat.StdDev(sorted, nil)
	cs.Min = sorted[0]
	cs.Max = sorted[len(sorted)-1]
	return cs
}

// countKeywords 统计固定关键词在标题+摘要中的出现 (每篇每词至多计一次)
func countKeywords(a *models.Article, counts map[string]int) {
	text := strings.ToLower(a.Title)
	if a.Abstract != "" && a.Abstract != models.FieldNA {
		text += " " + strings.ToLower(a.Abstract)
	}
	for _, kw := range researchKeywords {
		if strings.Contains(text, kw) {
			counts[kw]++
		}
	}
}

// sortYearCounts 按年份升序整理
func sortYearCounts(counts map[int]int) []YearCount {
	result := make([]YearCount, 0, len(counts))
	for year, count := range counts {
		result = append(result, YearCount{Year: year, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Year < result[j].Year })
	return result
}

// topCounts 取计数最高的前N项,计数相同时按名称排序保证结果稳定
func topCounts(counts map[string]int, n int) []NamedCount {
	result := make([]NamedCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, NamedCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// topCited 取被引最多的前N篇
func topCited(articles []models.Article, n int) []models.Article {
	sorted := make([]models.Article, len(articles))
	copy(sorted, articles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Citations > sorted[j].Citations })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// RenderSummary 以表格形式输出统计报告
func RenderSummary(summary *CorpusSummary) {
	// 整体概览
	overview := table.NewWriter()
	overview.SetOutputMirror(os.Stdout)
	overview.SetTitle("语料概览")
	overview.AppendRows([]table.Row{
		{"文献总数", summary.TotalArticles},
		{"含URL", summary.WithURL},
		{"含摘要", summary.WithAbstract},
		{"含年份", summary.WithYear},
		{"总被引数", summary.Citations.Total},
	})
	overview.SetStyle(table.StyleLight)
	overview.Render()

	// 引用分布
	cites := table.NewWriter()
	cites.SetOutputMirror(os.Stdout)
	cites.SetTitle("被引次数分布")
	cites.AppendHeader(table.Row{"均值", "中位数", "标准差", "最小", "Q1", "Q3", "最大"})
	cites.AppendRow(table.Row{
		fmt.Sprintf("%.1f", summary.Citations.Mean),
		fmt.Sprintf("%.0f", summary.Citations.Median),
		fmt.Sprintf("%.1f", summary.Citations.StdDev),
		fmt.Sprintf("%.0f", summary.Citations.Min),
		fmt.Sprintf("%.0f", summary.Citations.Q1),
		fmt.Sprintf("%.0f", summary.Citations.Q3),
		fmt.Sprintf("%.0f", summary.Citations.Max),
	})
	cites.SetStyle(table.StyleLight)
	cites.Render()

	// 高被引文献
	top := table.NewWriter()
	top.SetOutputMirror(os.Stdout)
	top.SetTitle("高被引文献")
	top.AppendHeader(table.Row{"#", "标题", "年份", "被引"})
	for i, a := range summary.TopCited {
		top.AppendRow(table.Row{i + 1, truncate(a.Title, 60), a.Year, a.Citations})
	}
	top.SetStyle(table.StyleLight)
	top.Render()

	// 主题关键词
	if len(summary.Keywords) > 0 {
		renderNamedCounts("主题关键词命中", summary.Keywords)
	}

	// 高产期刊与作者
	renderNamedCounts("高频期刊/会议", summary.TopVenues)
	renderNamedCounts("高产第一作者", summary.TopAuthors)
}

// renderNamedCounts 输出名称计数排行表
func renderNamedCounts(title string, counts []NamedCount) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", "名称", "数量"})
	for i, nc := range counts {
		t.AppendRow(table.Row{i + 1, truncate(nc.Name, 60), nc.Count})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// truncate 截断过长文本
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
