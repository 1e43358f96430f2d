// Package store 负责语料与阅读清单的文件持久化。
// 所有写入都先写临时文件再重命名,进程被杀死时不会留下半截数据文件。
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/RotateLab/scholarcrawl/internal/utils"
)

// CorpusStore 文献语料存储
// 每次完整抓取产出一对带时间戳的JSON+CSV文件,历史版本保留
type CorpusStore struct {
	dataDir string
}

// NewCorpusStore 创建语料存储
func NewCorpusStore(dataDir string) *CorpusStore {
	return &CorpusStore{dataDir: dataDir}
}

// DataDir 返回数据目录
func (cs *CorpusStore) DataDir() string {
	return cs.dataDir
}

// Save 保存语料为JSON与CSV两种格式
// 返回生成的JSON文件路径
func (cs *CorpusStore) Save(query string, articles []models.Article) (string, error) {
	if err := utils.EnsureDir(cs.dataDir); err != nil {
		return "", err
	}

	now := time.Now()
	jsonPath := filepath.Join(cs.dataDir, models.CorpusFilename(query, now, "json"))
	csvPath := filepath.Join(cs.dataDir, models.CorpusFilename(query, now, "csv"))

	if err := cs.saveJSON(jsonPath, articles); err != nil {
		return "", err
	}
	if err := cs.saveCSV(csvPath, articles); err != nil {
		return "", err
	}

	utils.Infof("💾 语料已保存: %s (%d 篇)", jsonPath, len(articles))
	return jsonPath, nil
}

// saveJSON 保存JSON格式
func (cs *CorpusStore) saveJSON(path string, articles []models.Article) error {
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化语料失败: %w", err)
	}
	return utils.WriteFileAtomic(path, data)
}

// saveCSV 保存CSV格式
func (cs *CorpusStore) saveCSV(path string, articles []models.Article) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{"title", "authors", "publication", "year", "citations", "abstract", "url", "page", "position", "search_year"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("写入CSV表头失败: %w", err)
	}

	for _, a := range articles {
		record := []string{
			a.Title,
			a.Authors,
			a.Publication,
			a.Year,
			strconv.Itoa(a.Citations),
			a.Abstract,
			a.URL,
			strconv.Itoa(a.Page),
			strconv.Itoa(a.Position),
			strconv.Itoa(a.SearchYear),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("写入CSV记录失败: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("刷新CSV失败: %w", err)
	}

	return utils.WriteFileAtomic(path, []byte(sb.String()))
}

// LoadJSON 从指定JSON文件加载语料
func (cs *CorpusStore) LoadJSON(path string) ([]models.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取语料文件失败 [%s]: %w", path, err)
	}

	var articles []models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("解析语料文件失败 [%s]: %w", path, err)
	}
	return articles, nil
}

// FindLatest 返回数据目录中最新的完整语料JSON文件
// 文件名带时间戳,按名称排序即按时间排序
func (cs *CorpusStore) FindLatest(query string) (string, error) {
	slug := models.QuerySlug(query)
	pattern := filepath.Join(cs.dataDir, slug+"_complete_*.json")

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("搜索语料文件失败: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("数据目录中没有完整语料文件 (模式: %s)", pattern)
	}

	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// LoadLatest 加载最新的完整语料
func (cs *CorpusStore) LoadLatest(query string) ([]models.Article, string, error) {
	path, err := cs.FindLatest(query)
	if err != nil {
		return nil, "", err
	}

	articles, err := cs.LoadJSON(path)
	if err != nil {
		return nil, "", err
	}
	return articles, path, nil
}

// Merge 合并新抓取的文献到已有语料,按URL去重
// 返回合并结果与新增条数
func (cs *CorpusStore) Merge(existing, incoming []models.Article) ([]models.Article, int) {
	combined := make([]models.Article, 0, len(existing)+len(incoming))
	combined = append(combined, existing...)
	combined = append(combined, incoming...)

	merged, dupes := models.DedupByURL(combined)
	added := len(merged) - len(existing)
	if added < 0 {
		added = 0
	}

	utils.Debugf("语料合并: 已有 %d, 新增 %d, 重复 %d", len(existing), added, dupes)
	return merged, added
}

// ProgressPath 返回进度检查点文件路径
func (cs *CorpusStore) ProgressPath() string {
	return filepath.Join(cs.dataDir, models.ProgressFilename)
}

// RemoveProgress 删除进度检查点文件 (完整抓取结束后调用)
func (cs *CorpusStore) RemoveProgress() error {
	path := cs.ProgressPath()
	if !utils.FileExists(path) {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("删除进度文件失败: %w", err)
	}
	utils.Debugf("进度文件已删除: %s", path)
	return nil
}
