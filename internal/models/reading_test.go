package models

import (
	"strings"
	"testing"
)

func TestReadingEntry_Validate(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		url         string
		expectError bool
	}{
		{"合法条目", "Mental rotation of three-dimensional objects", "https://www.science.org/doi/10.1126/science.171.3972.701", false},
		{"标题为空", "", "https://example.com/paper", true},
		{"标题仅空格", "   ", "https://example.com/paper", true},
		{"URL非HTTP协议", "title", "ftp://example.com/paper", true},
		{"URL缺少主机", "title", "https://", true},
		{"URL为空", "title", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewReadingEntry(tt.title, "A Author", tt.url)
			err := entry.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestReadingEntry_Tags(t *testing.T) {
	entry := NewReadingEntry("title", "author", "https://example.com/p")

	entry.AddTag("classic")
	entry.AddTag("classic")
	entry.AddTag("  imagery  ")
	entry.AddTag("")

	if len(entry.Tags) != 2 {
		t.Fatalf("期望2个标签, 得到 %v", entry.Tags)
	}
	if !entry.HasTag("classic") || !entry.HasTag("imagery") {
		t.Errorf("标签集合不正确: %v", entry.Tags)
	}
}

func TestReadingList_AddAndRemove(t *testing.T) {
	list := NewReadingList()

	entry1 := NewReadingEntry("paper-1", "A", "https://example.com/1")
	entry2 := NewReadingEntry("paper-2", "B", "https://example.com/2")

	t.Run("添加条目", func(t *testing.T) {
		if err := list.Add(entry1); err != nil {
			t.Fatalf("添加失败: %v", err)
		}
		if err := list.Add(entry2); err != nil {
			t.Fatalf("添加失败: %v", err)
		}
		if len(list.Entries) != 2 {
			t.Errorf("期望2个条目, 得到%d个", len(list.Entries))
		}
	})

	t.Run("重复URL被拒绝", func(t *testing.T) {
		dup := NewReadingEntry("paper-1-again", "C", "https://example.com/1")
		if err := list.Add(dup); err == nil {
			t.Error("期望重复URL错误, 但无错误")
		}
	})

	t.Run("按序号移除", func(t *testing.T) {
		removed, err := list.Remove(1)
		if err != nil {
			t.Fatalf("移除失败: %v", err)
		}
		if removed.Title != "paper-1" {
			t.Errorf("期望移除 paper-1, 得到 '%s'", removed.Title)
		}
		if len(list.Entries) != 1 {
			t.Errorf("移除后应剩1个条目, 得到%d个", len(list.Entries))
		}
	})

	t.Run("非法序号", func(t *testing.T) {
		if _, err := list.Remove(0); err == nil {
			t.Error("序号0应返回错误")
		}
		if _, err := list.Remove(99); err == nil {
			t.Error("越界序号应返回错误")
		}
	})
}

func TestReadingList_FilterByTag(t *testing.T) {
	list := NewReadingList()

	tagged := NewReadingEntry("tagged", "A", "https://example.com/t")
	tagged.AddTag("classic")
	untagged := NewReadingEntry("untagged", "B", "https://example.com/u")

	_ = list.Add(tagged)
	_ = list.Add(untagged)

	t.Run("按标签过滤", func(t *testing.T) {
		result := list.FilterByTag("classic")
		if len(result) != 1 || result[0].Title != "tagged" {
			t.Errorf("标签过滤结果不正确: %d个条目", len(result))
		}
	})

	t.Run("空标签返回全部", func(t *testing.T) {
		if len(list.FilterByTag("")) != 2 {
			t.Error("空标签应返回全部条目")
		}
	})

	t.Run("不存在的标签返回空", func(t *testing.T) {
		if len(list.FilterByTag("nonexistent")) != 0 {
			t.Error("不存在的标签应返回空结果")
		}
	})
}

func TestReadingList_JSONRoundTrip(t *testing.T) {
	list := NewReadingList()
	entry := NewReadingEntry("roundtrip", "A Author", "https://example.com/r")
	entry.AddTag("classic")
	entry.Notes = "经典实验"
	_ = list.Add(entry)

	data, err := list.ToJSON()
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}

	if !strings.Contains(string(data), `"reading_list"`) {
		t.Error("JSON应使用reading_list作为顶层键")
	}

	restored := NewReadingList()
	if err := restored.FromJSON(data); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}

	if len(restored.Entries) != 1 {
		t.Fatalf("期望1个条目, 得到%d个", len(restored.Entries))
	}
	got := restored.Entries[0]
	if got.Title != "roundtrip" || got.Notes != "经典实验" || !got.HasTag("classic") {
		t.Error("往返后条目字段不一致")
	}
}

func TestReadingList_FromJSON_EmptyDocument(t *testing.T) {
	list := NewReadingList()
	if err := list.FromJSON([]byte(`{}`)); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if list.Entries == nil {
		t.Error("缺少reading_list键时Entries应为空切片而非nil")
	}
}

func TestReadingList_FillScholarURLs(t *testing.T) {
	build := func(title string) string { return "https://search.example.com/?q=" + title }

	list := NewReadingList()
	withLink := NewReadingEntry("already linked", "", "https://example.com/a")
	withLink.ScholarURL = "https://search.example.com/?q=existing"
	_ = list.Add(withLink)
	_ = list.Add(NewReadingEntry("needs link", "", "https://example.com/b"))

	blank := NewReadingEntry("placeholder", "", "https://example.com/c")
	_ = list.Add(blank)
	blank.Title = "   "

	t.Run("只补充缺链接且有标题的条目", func(t *testing.T) {
		if filled := list.FillScholarURLs(build); filled != 1 {
			t.Fatalf("期望补充1条, 实际%d条", filled)
		}
		if got := list.Entries[0].ScholarURL; got != "https://search.example.com/?q=existing" {
			t.Errorf("已有链接的条目不应被覆盖: '%s'", got)
		}
		if got := list.Entries[1].ScholarURL; got != "https://search.example.com/?q=needs link" {
			t.Errorf("缺链接条目未补充: '%s'", got)
		}
		if list.Entries[2].ScholarURL != "" {
			t.Error("空标题条目不应生成链接")
		}
	})

	t.Run("重复执行不再补充", func(t *testing.T) {
		if filled := list.FillScholarURLs(build); filled != 0 {
			t.Errorf("第二次执行期望补充0条, 实际%d条", filled)
		}
	})
}
