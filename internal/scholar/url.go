package scholar

import (
	"fmt"
	"net/url"
)

const (
	// BaseURL 学术搜索入口
	BaseURL = "https://scholar.google.com/scholar"

	// Host 搜索站点域名 (用于colly的域名限速规则)
	Host = "scholar.google.com"
)

// SearchQuery 一次分页查询的参数
type SearchQuery struct {
	// Base 搜索入口地址,为空时使用BaseURL
	Base string

	// Query 检索词 (会被加引号做精确短语匹配)
	Query string

	// YearStart 起始年份 (as_ylo)
	YearStart int

	// YearEnd 结束年份 (as_yhi)
	YearEnd int

	// Start 结果偏移量 (start=页号*10)
	Start int
}

// BuildURL 构造结果页URL
// 页面偏移以结果条数计,第N页对应 start=N*10
func (sq SearchQuery) BuildURL() string {
	base := sq.Base
	if base == "" {
		base = BaseURL
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("%q", sq.Query))
	params.Set("hl", "en")
	params.Set("as_sdt", "0,5")
	if sq.YearStart > 0 {
		params.Set("as_ylo", fmt.Sprintf("%d", sq.YearStart))
	}
	if sq.YearEnd > 0 {
		params.Set("as_yhi", fmt.Sprintf("%d", sq.YearEnd))
	}
	if sq.Start > 0 {
		params.Set("start", fmt.Sprintf("%d", sq.Start))
	}
	return base + "?" + params.Encode()
}

// TitleSearchURL 构造按标题精确短语检索的入口URL
// 阅读清单用它为手工录入的条目补充检索链接
func TitleSearchURL(title string) string {
	return SearchQuery{Query: title}.BuildURL()
}

// PageURL 返回指定页号 (从0开始) 的结果页URL
func PageURL(query string, yearStart, yearEnd, page int) string {
	return SearchQuery{
		Query:     query,
		YearStart: yearStart,
		YearEnd:   yearEnd,
		Start:     page * 10,
	}.BuildURL()
}
