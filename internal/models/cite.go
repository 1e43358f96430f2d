package models

import (
	"fmt"
	"strings"
)

// 引用格式名称
const (
	CiteAPA      = "apa"
	CiteChicago  = "chicago"
	CiteBibTeX   = "bibtex"
	CiteMarkdown = "markdown"
)

// APACitation 生成APA格式引用(简化版,完整APA需要更多元数据)
func (e *ReadingEntry) APACitation() string {
	return fmt.Sprintf("%s (%s). %s.", e.Authors, e.Year, e.Title)
}

// ChicagoCitation 生成Chicago格式引用
func (e *ReadingEntry) ChicagoCitation() string {
	return fmt.Sprintf("%s. \"%s.\" %s.", e.Authors, e.Title, e.Year)
}

// BibTeXCitation 生成BibTeX条目
// 引用键由第一作者姓氏+年份构成
func (e *ReadingEntry) BibTeXCitation() string {
	key := fmt.Sprintf("%s%s", bibtexKeyAuthor(e.Authors), e.Year)

	return fmt.Sprintf(`@article{%s,
  author = {%s},
  title = {%s},
  year = {%s},
  url = {%s}
}`, key, e.Authors, e.Title, e.Year, e.URL)
}

// MarkdownCitation 生成带链接的Markdown引用
func (e *ReadingEntry) MarkdownCitation() string {
	return fmt.Sprintf("**%s** (%s). [%s](%s).", e.Authors, e.Year, e.Title, e.URL)
}

// GenerateCitations 生成全部引用格式并写入FormattedCitations
func (e *ReadingEntry) GenerateCitations() {
	if e.FormattedCitations == nil {
		e.FormattedCitations = make(map[string]string)
	}
	e.FormattedCitations[CiteAPA] = e.APACitation()
	e.FormattedCitations[CiteChicago] = e.ChicagoCitation()
	e.FormattedCitations[CiteBibTeX] = e.BibTeXCitation()
	e.FormattedCitations[CiteMarkdown] = e.MarkdownCitation()
}

// bibtexKeyAuthor 从作者文本中提取引用键用的姓氏(小写,去空格)
func bibtexKeyAuthor(authors string) string {
	first := authors
	if idx := strings.Index(first, ","); idx >= 0 {
		// "姓, 名"格式: 逗号前的最后一个词
		words := strings.Fields(first[:idx])
		if len(words) > 0 {
			first = words[len(words)-1]
		}
	} else {
		words := strings.Fields(first)
		if len(words) > 0 {
			first = words[0]
		}
	}
	return strings.ToLower(strings.ReplaceAll(first, " ", ""))
}
