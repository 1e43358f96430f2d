package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RotateLab/scholarcrawl/internal/models"
)

func TestReadingListStore_LoadMissingFile(t *testing.T) {
	rs := NewReadingListStore(t.TempDir())

	list, err := rs.Load()
	if err != nil {
		t.Fatalf("文件不存在时应返回空清单: %v", err)
	}
	if len(list.Entries) != 0 {
		t.Errorf("期望空清单, 得到%d个条目", len(list.Entries))
	}
}

func TestReadingListStore_AddRemoveRoundTrip(t *testing.T) {
	rs := NewReadingListStore(t.TempDir())

	entry := models.NewReadingEntry("paper-1", "A Author", "https://example.com/1")
	entry.AddTag("classic")

	t.Run("添加并落盘", func(t *testing.T) {
		if err := rs.Add(entry); err != nil {
			t.Fatalf("添加失败: %v", err)
		}

		list, err := rs.Load()
		if err != nil {
			t.Fatalf("重新加载失败: %v", err)
		}
		if len(list.Entries) != 1 || list.Entries[0].Title != "paper-1" {
			t.Error("添加后重新加载应看到条目")
		}
	})

	t.Run("重复URL被拒绝", func(t *testing.T) {
		dup := models.NewReadingEntry("paper-1-dup", "B", "https://example.com/1")
		if err := rs.Add(dup); err == nil {
			t.Error("期望重复URL错误, 但无错误")
		}
	})

	t.Run("删除并落盘", func(t *testing.T) {
		removed, err := rs.Remove(1)
		if err != nil {
			t.Fatalf("删除失败: %v", err)
		}
		if removed.Title != "paper-1" {
			t.Errorf("期望删除 paper-1, 得到 '%s'", removed.Title)
		}

		list, _ := rs.Load()
		if len(list.Entries) != 0 {
			t.Error("删除后清单应为空")
		}
	})
}

func TestReadingListStore_Search(t *testing.T) {
	rs := NewReadingListStore(t.TempDir())

	shepard := models.NewReadingEntry("Mental rotation of three-dimensional objects", "RN Shepard, J Metzler", "https://example.com/shepard")
	shepard.AddTag("classic")
	linn := models.NewReadingEntry("Sex differences in spatial ability", "MC Linn, AC Petersen", "https://example.com/linn")

	if err := rs.Add(shepard); err != nil {
		t.Fatalf("添加失败: %v", err)
	}
	if err := rs.Add(linn); err != nil {
		t.Fatalf("添加失败: %v", err)
	}

	tests := []struct {
		name    string
		keyword string
		want    int
	}{
		{"按标题搜索", "rotation", 1},
		{"不区分大小写", "ROTATION", 1},
		{"按作者搜索", "shepard", 1},
		{"按标签搜索", "classic", 1},
		{"无匹配", "neuroimaging", 0},
		{"空关键词返回全部", "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, err := rs.Search(tt.keyword)
			if err != nil {
				t.Fatalf("搜索失败: %v", err)
			}
			if len(matched) != tt.want {
				t.Errorf("期望%d个结果, 得到%d个", tt.want, len(matched))
			}
		})
	}
}

func TestReadingListStore_ExportURLs(t *testing.T) {
	dir := t.TempDir()
	rs := NewReadingListStore(dir)

	for _, url := range []string{"https://example.com/b", "https://example.com/a"} {
		entry := models.NewReadingEntry("paper "+url, "A", url)
		if err := rs.Add(entry); err != nil {
			t.Fatalf("添加失败: %v", err)
		}
	}

	outPath := filepath.Join(dir, "urls.txt")
	count, err := rs.ExportURLs(outPath)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if count != 2 {
		t.Errorf("期望导出2条链接, 得到%d条", count)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("期望2行, 得到%d行", len(lines))
	}
	// 导出按字典序排序
	if lines[0] != "https://example.com/a" || lines[1] != "https://example.com/b" {
		t.Errorf("导出顺序不正确: %v", lines)
	}
}

func TestReadingListStore_ImportArticles(t *testing.T) {
	rs := NewReadingListStore(t.TempDir())

	existing := models.NewReadingEntry("already here", "A", "https://example.com/existing")
	if err := rs.Add(existing); err != nil {
		t.Fatalf("添加失败: %v", err)
	}

	articles := []models.Article{
		{Title: "new paper", Authors: "B", Year: "1980", Citations: 50, URL: "https://example.com/new"},
		{Title: "dup of existing", Authors: "C", URL: "https://example.com/existing"},
		{Title: "no url", Authors: "D", URL: models.FieldNA},
	}

	added, err := rs.ImportArticles(articles, []string{"imported"})
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if added != 1 {
		t.Errorf("期望新增1条, 得到%d条", added)
	}

	list, _ := rs.Load()
	if len(list.Entries) != 2 {
		t.Fatalf("期望清单共2条, 得到%d条", len(list.Entries))
	}

	imported := list.FindByURL("https://example.com/new")
	if imported == nil {
		t.Fatal("导入的条目未找到")
	}
	if imported.Year != "1980" || imported.Citations != 50 || !imported.HasTag("imported") {
		t.Error("导入条目的元数据不完整")
	}
}
