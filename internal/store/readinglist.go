package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/RotateLab/scholarcrawl/internal/utils"
)

// ReadingListStore 阅读清单存储
// 清单整体存于一个JSON文件,所有修改都是整文件读-改-写,
// 不做并发写保护 (单用户工具,同一时间只有一个进程操作)
type ReadingListStore struct {
	path string
}

// NewReadingListStore 创建阅读清单存储
func NewReadingListStore(dataDir string) *ReadingListStore {
	return &ReadingListStore{
		path: filepath.Join(dataDir, models.ReadingListFilename),
	}
}

// Path 返回清单文件路径
func (rs *ReadingListStore) Path() string {
	return rs.path
}

// Load 加载阅读清单,文件不存在时返回空清单
func (rs *ReadingListStore) Load() (*models.ReadingList, error) {
	data, err := os.ReadFile(rs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewReadingList(), nil
		}
		return nil, fmt.Errorf("读取阅读清单失败 [%s]: %w", rs.path, err)
	}

	list := models.NewReadingList()
	if err := list.FromJSON(data); err != nil {
		return nil, fmt.Errorf("解析阅读清单失败 [%s]: %w", rs.path, err)
	}
	return list, nil
}

// Save 保存阅读清单
func (rs *ReadingListStore) Save(list *models.ReadingList) error {
	data, err := list.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化阅读清单失败: %w", err)
	}
	return utils.WriteFileAtomic(rs.path, data)
}

// Add 添加条目并保存
func (rs *ReadingListStore) Add(entry *models.ReadingEntry) error {
	list, err := rs.Load()
	if err != nil {
		return err
	}

	if err := entry.Validate(); err != nil {
		return err
	}
	if err := list.Add(entry); err != nil {
		return err
	}

	if err := rs.Save(list); err != nil {
		return err
	}
	utils.Infof("✅ 已添加到阅读清单: %s", entry.Title)
	return nil
}

// Remove 按序号 (从1开始) 删除条目并保存,返回被删除的条目
func (rs *ReadingListStore) Remove(index int) (*models.ReadingEntry, error) {
	list, err := rs.Load()
	if err != nil {
		return nil, err
	}

	entry, err := list.Remove(index)
	if err != nil {
		return nil, err
	}

	if err := rs.Save(list); err != nil {
		return nil, err
	}
	utils.Infof("✅ 已从阅读清单删除: %s", entry.Title)
	return entry, nil
}

// Search 在标题、作者和标签中搜索关键词 (不区分大小写)
func (rs *ReadingListStore) Search(keyword string) ([]*models.ReadingEntry, error) {
	list, err := rs.Load()
	if err != nil {
		return nil, err
	}

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return list.Entries, nil
	}

	matched := make([]*models.ReadingEntry, 0)
	for _, entry := range list.Entries {
		if strings.Contains(strings.ToLower(entry.Title), keyword) ||
			strings.Contains(strings.ToLower(entry.Authors), keyword) {
			matched = append(matched, entry)
			continue
		}
		for _, tag := range entry.Tags {
			if strings.Contains(strings.ToLower(tag), keyword) {
				matched = append(matched, entry)
				break
			}
		}
	}
	return matched, nil
}

// ExportURLs 导出所有带URL的条目链接 (每行一个)
func (rs *ReadingListStore) ExportURLs(outPath string) (int, error) {
	list, err := rs.Load()
	if err != nil {
		return 0, err
	}

	urls := make([]string, 0, len(list.Entries))
	for _, entry := range list.Entries {
		if entry.URL != "" {
			urls = append(urls, entry.URL)
		}
	}
	sort.Strings(urls)

	content := strings.Join(urls, "\n")
	if len(urls) > 0 {
		content += "\n"
	}
	if err := utils.WriteFileAtomic(outPath, []byte(content)); err != nil {
		return 0, err
	}
	return len(urls), nil
}

// ImportArticles 将语料中的文献批量导入阅读清单,按URL去重
// 返回新增条数
func (rs *ReadingListStore) ImportArticles(articles []models.Article, tags []string) (int, error) {
	list, err := rs.Load()
	if err != nil {
		return 0, err
	}

	added := 0
	for i := range articles {
		a := &articles[i]
		if !a.HasURL() {
			continue
		}
		if list.FindByURL(a.URL) != nil {
			continue
		}

		entry := models.NewReadingEntry(a.Title, a.Authors, a.URL)
		entry.Year = a.Year
		entry.Citations = a.Citations
		entry.Tags = append(entry.Tags, tags...)
		if err := list.Add(entry); err != nil {
			continue
		}
		added++
	}

	if added > 0 {
		if err := rs.Save(list); err != nil {
			return 0, err
		}
	}
	return added, nil
}
