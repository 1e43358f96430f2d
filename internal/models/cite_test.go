package models

import (
	"strings"
	"testing"
)

// sampleEntry 返回用于引用格式测试的条目
func sampleEntry() *ReadingEntry {
	entry := NewReadingEntry(
		"Mental rotation of three-dimensional objects",
		"RN Shepard, J Metzler",
		"https://www.science.org/doi/10.1126/science.171.3972.701",
	)
	entry.Year = "1971"
	return entry
}

func TestCitations(t *testing.T) {
	entry := sampleEntry()

	t.Run("APA格式", func(t *testing.T) {
		got := entry.APACitation()
		want := "RN Shepard, J Metzler (1971). Mental rotation of three-dimensional objects."
		if got != want {
			t.Errorf("期望 '%s', 得到 '%s'", want, got)
		}
	})

	t.Run("Chicago格式", func(t *testing.T) {
		got := entry.ChicagoCitation()
		if !strings.Contains(got, `"Mental rotation of three-dimensional objects."`) {
			t.Errorf("Chicago格式应带引号标题: '%s'", got)
		}
	})

	t.Run("BibTeX格式", func(t *testing.T) {
		got := entry.BibTeXCitation()
		if !strings.HasPrefix(got, "@article{shepard1971,") {
			t.Errorf("BibTeX引用键应为 shepard1971: '%s'", got)
		}
		for _, field := range []string{"author = {", "title = {", "year = {1971}", "url = {"} {
			if !strings.Contains(got, field) {
				t.Errorf("BibTeX缺少字段 '%s': '%s'", field, got)
			}
		}
	})

	t.Run("Markdown格式", func(t *testing.T) {
		got := entry.MarkdownCitation()
		if !strings.Contains(got, "[Mental rotation of three-dimensional objects](https://") {
			t.Errorf("Markdown格式应带链接: '%s'", got)
		}
	})
}

func TestGenerateCitations(t *testing.T) {
	entry := sampleEntry()
	entry.GenerateCitations()

	for _, format := range []string{CiteAPA, CiteChicago, CiteBibTeX, CiteMarkdown} {
		if entry.FormattedCitations[format] == "" {
			t.Errorf("格式 '%s' 未生成", format)
		}
	}
}

func TestBibTeXKeyAuthor(t *testing.T) {
	tests := []struct {
		name    string
		authors string
		want    string
	}{
		{"缩写在前", "RN Shepard, J Metzler", "shepard"},
		{"单作者单词", "Kozhevnikov", "kozhevnikov"},
		{"无逗号取首词", "Shepard and Metzler", "shepard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bibtexKeyAuthor(tt.authors); got != tt.want {
				t.Errorf("期望 '%s', 得到 '%s'", tt.want, got)
			}
		})
	}
}
