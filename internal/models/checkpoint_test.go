package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScrapeProgress_AddYear(t *testing.T) {
	progress := NewScrapeProgress("task-1", validScrapeConfig())

	articles1971 := []Article{
		{Title: "rotation-a", URL: "https://example.com/a"},
		{Title: "rotation-b", URL: "https://example.com/b"},
	}
	articles1972 := []Article{
		{Title: "rotation-c", URL: "https://example.com/c"},
	}

	progress.AddYear(1971, articles1971)
	progress.AddYear(1972, articles1972)

	t.Run("年份按降序记录", func(t *testing.T) {
		if len(progress.YearsCompleted) != 2 {
			t.Fatalf("期望2个年份, 得到%d个", len(progress.YearsCompleted))
		}
		if progress.YearsCompleted[0] != 1972 || progress.YearsCompleted[1] != 1971 {
			t.Errorf("年份应降序排列, 得到 %v", progress.YearsCompleted)
		}
	})

	t.Run("记录被打上查询年份标记", func(t *testing.T) {
		for _, a := range progress.Articles {
			if a.SearchYear == 0 {
				t.Errorf("记录 '%s' 缺少查询年份标记", a.Title)
			}
		}
	})

	t.Run("总数同步更新", func(t *testing.T) {
		if progress.TotalArticles != 3 {
			t.Errorf("期望3条记录, 得到%d条", progress.TotalArticles)
		}
	})

	t.Run("重复提交同一年份被忽略", func(t *testing.T) {
		progress.AddYear(1971, []Article{{Title: "dup", URL: "https://example.com/d"}})
		if progress.TotalArticles != 3 {
			t.Errorf("重复年份不应追加记录, 得到%d条", progress.TotalArticles)
		}
	})

	t.Run("IsYearCompleted判断", func(t *testing.T) {
		if !progress.IsYearCompleted(1971) {
			t.Error("1971应已完成")
		}
		if progress.IsYearCompleted(1980) {
			t.Error("1980不应已完成")
		}
	})
}

func TestScrapeProgress_MergedArticles(t *testing.T) {
	progress := NewScrapeProgress("task-1", validScrapeConfig())

	// 同一URL出现在两个年份的结果中
	progress.AddYear(1972, []Article{
		{Title: "shared", URL: "https://example.com/shared"},
		{Title: "only-1972", URL: "https://example.com/x"},
	})
	progress.AddYear(1971, []Article{
		{Title: "shared", URL: "https://example.com/shared"},
	})

	merged, removed := progress.MergedArticles()
	if len(merged) != 2 {
		t.Errorf("期望合并后2条记录, 得到%d条", len(merged))
	}
	if removed != 1 {
		t.Errorf("期望移除1条重复, 得到%d条", removed)
	}
}

func TestScrapeProgress_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", ProgressFilename)

	progress := NewScrapeProgress("task-roundtrip", validScrapeConfig())
	progress.AddYear(1971, []Article{
		{Title: "rotation-a", URL: "https://example.com/a", Citations: 100},
	})

	if err := progress.SaveToFile(path); err != nil {
		t.Fatalf("保存进度失败: %v", err)
	}

	restored, err := LoadProgressFromFile(path)
	if err != nil {
		t.Fatalf("加载进度失败: %v", err)
	}

	if restored.TaskID != "task-roundtrip" {
		t.Errorf("任务ID不一致: '%s'", restored.TaskID)
	}
	if restored.Query != progress.Query {
		t.Errorf("检索短语不一致: '%s'", restored.Query)
	}
	if !restored.IsYearCompleted(1971) {
		t.Error("恢复后1971应已完成")
	}
	if len(restored.Articles) != 1 || restored.Articles[0].Citations != 100 {
		t.Error("恢复后文献记录不完整")
	}
}

func TestLoadProgressFromFile_Errors(t *testing.T) {
	t.Run("文件不存在", func(t *testing.T) {
		if _, err := LoadProgressFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
			t.Error("期望文件不存在错误, 但无错误")
		}
	})

	t.Run("损坏的进度文件", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		if err := os.WriteFile(path, []byte(`{"task_id": "x", "articles": [`), 0644); err != nil {
			t.Fatalf("写入损坏文件失败: %v", err)
		}

		if _, err := LoadProgressFromFile(path); err == nil {
			t.Error("期望解析失败, 但无错误")
		}
	})
}
