package scholar

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RotateLab/scholarcrawl/internal/models"
)

var (
	// totalPagedRegex 匹配 "Page 2 of 3,470 results" 形式的总数文本
	totalPagedRegex = regexp.MustCompile(`Page\s+\d+\s+of\s+([\d,]+)\s+results?`)

	// totalAboutRegex 匹配 "About 17,300 results" 形式的总数文本
	totalAboutRegex = regexp.MustCompile(`About\s+([\d,]+)\s+results?`)

	// citedByRegex 匹配 "Cited by 128" 链接文本
	citedByRegex = regexp.MustCompile(`Cited by\s+(\d+)`)

	// yearRegex 匹配出版信息中的4位年份
	yearRegex = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// Parser 解析搜索结果页HTML
// 解析逻辑与页面当前的类名结构绑定,站点改版后需要同步更新
type Parser struct{}

// NewParser 创建解析器
func NewParser() *Parser {
	return &Parser{}
}

// ParsePage 从结果页HTML中提取文献条目
// page为页号(从0开始),用于记录文献在结果集中的位置
func (p *Parser) ParsePage(body []byte, page int) ([]models.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	articles := make([]models.Article, 0, models.ResultsPerPage)
	doc.Find(".gs_ri").Each(func(i int, s *goquery.Selection) {
		articles = append(articles, p.parseResult(s, page, i))
	})

	return articles, nil
}

// parseResult 解析单个结果条目 (.gs_ri 块)
func (p *Parser) parseResult(s *goquery.Selection, page, position int) models.Article {
	article := models.Article{
		Title:       models.FieldNA,
		Authors:     models.FieldNA,
		Publication: models.FieldNA,
		Year:        models.FieldNA,
		Abstract:    models.FieldNA,
		Page:        page,
		Position:    position,
	}

	// 标题: .gs_rt 链接文本
	// 标题前可能有 [PDF] / [BOOK] / [CITATION] 等span标记,需要剔除
	titleSel := s.Find(".gs_rt")
	if titleSel.Length() > 0 {
		cloned := titleSel.Clone()
		cloned.Find("span").Remove()
		if title := strings.TrimSpace(cloned.Text()); title != "" {
			article.Title = title
		}

		// 文献URL: 标题链接的href
		if href, exists := titleSel.Find("a").Attr("href"); exists {
			article.URL = href
		}
	}

	// 出版信息行: .gs_a — "作者 - 期刊, 年份 - 出版商"
	if byline := strings.TrimSpace(s.Find(".gs_a").Text()); byline != "" {
		p.parseByline(byline, &article)
	}

	// 摘要片段: .gs_rs
	if abstract := strings.TrimSpace(s.Find(".gs_rs").Text()); abstract != "" {
		article.Abstract = normalizeWhitespace(abstract)
	}

	// 底部链接行: .gs_fl — 引用数与相关文献链接
	s.Find(".gs_fl a").Each(func(_ int, link *goquery.Selection) {
		text := strings.TrimSpace(link.Text())

		if m := citedByRegex.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				article.Citations = n
			}
			return
		}

		if strings.HasPrefix(text, "Related articles") {
			if href, exists := link.Attr("href"); exists {
				article.RelatedURL = href
			}
		}
	})

	return article
}

// parseByline 解析出版信息行
// 格式通常为 "RN Shepard, J Metzler - Science, 1971 - science.org"
// 以 " - " 分段: 第一段为作者,第二段为期刊+年份
func (p *Parser) parseByline(byline string, article *models.Article) {
	parts := strings.Split(byline, " - ")

	if len(parts) > 0 {
		if authors := strings.TrimSpace(parts[0]); authors != "" {
			article.Authors = authors
		}
	}

	if len(parts) > 1 {
		pubInfo := strings.TrimSpace(parts[1])

		// 年份: 段落中的4位数字
		if m := yearRegex.FindString(pubInfo); m != "" {
			article.Year = m
		}

		// 期刊名: 去掉末尾的 ", 年份" 部分
		venue := pubInfo
		if idx := strings.LastIndex(pubInfo, ","); idx > 0 {
			tail := strings.TrimSpace(pubInfo[idx+1:])
			if yearRegex.MatchString(tail) {
				venue = strings.TrimSpace(pubInfo[:idx])
			}
		}
		if venue != "" && venue != article.Year {
			article.Publication = venue
		}
	}
}

// EstimateTotal 从结果页中提取检索结果总数
// 依次尝试两种文案格式,都失败时返回ok=false
func (p *Parser) EstimateTotal(body []byte) (total int, ok bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, false
	}

	// 结果统计文本位于 .gs_ab_mdw 区域
	text := doc.Find(".gs_ab_mdw").Text()
	if text == "" {
		// 兜底: 在整页文本中搜索
		text = doc.Text()
	}

	// 格式1: "Page 2 of 3,470 results"
	if m := totalPagedRegex.FindStringSubmatch(text); m != nil {
		if n, err := parseCommaNumber(m[1]); err == nil {
			return n, true
		}
	}

	// 格式2: "About 17,300 results"
	if m := totalAboutRegex.FindStringSubmatch(text); m != nil {
		if n, err := parseCommaNumber(m[1]); err == nil {
			return n, true
		}
	}

	return 0, false
}

// IsBlockedPage 检测响应内容是否为反爬验证页
// 被限流时站点有时返回200状态码但内容是人机验证页面
func (p *Parser) IsBlockedPage(body []byte) bool {
	lower := bytes.ToLower(body)
	markers := [][]byte{
		[]byte("unusual traffic"),
		[]byte("not a robot"),
		[]byte("captcha"),
	}
	for _, m := range markers {
		if bytes.Contains(lower, m) {
			return true
		}
	}
	return false
}

// parseCommaNumber 解析带千位分隔符的数字 "17,300"
func parseCommaNumber(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(s, ",", ""))
}

// normalizeWhitespace 压缩连续空白为单个空格
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
