package scholar

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/RotateLab/scholarcrawl/internal/utils"
	"github.com/go-resty/resty/v2"
)

const (
	// downloadPauseMin 两次下载之间的最小暂停 (秒)
	downloadPauseMin = 5

	// downloadPauseMax 两次下载之间的最大暂停 (秒)
	downloadPauseMax = 10
)

// DownloadResult 单篇文献的下载结果
type DownloadResult struct {
	Entry    *models.ReadingEntry
	FilePath string
	Skipped  bool
	Err      error
}

// Downloader 阅读清单文献下载器
// 逐篇下载正文 (PDF或HTML快照),下载间隔随机暂停以降低请求频率
type Downloader struct {
	client    *resty.Client
	outputDir string
}

// NewDownloader 创建下载器
func NewDownloader(outputDir string, headerProvider models.HeaderProvider) (*Downloader, error) {
	client := resty.New().
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(10 * time.Second)

	// 应用自定义HTTP头部
	if headerProvider != nil {
		headers, err := headerProvider.GetHeaders()
		if err != nil {
			return nil, fmt.Errorf("获取HTTP头部失败: %w", err)
		}
		for name, values := range headers {
			if len(values) > 0 {
				client.SetHeader(name, values[0])
			}
		}
	}

	return &Downloader{
		client:    client,
		outputDir: outputDir,
	}, nil
}

// DownloadAll 下载阅读清单中所有可下载的文献
// 跳过无URL与标记为付费墙的条目;ctx取消时停止并返回已完成的结果
func (d *Downloader) DownloadAll(ctx context.Context, entries []*models.ReadingEntry) []DownloadResult {
	if err := utils.EnsureDir(d.outputDir); err != nil {
		utils.Errorf("创建下载目录失败: %v", err)
		return nil
	}

	results := make([]DownloadResult, 0, len(entries))
	bar := utils.NewProgressBar(len(entries), "下载文献")

	for i, entry := range entries {
		select {
		case <-ctx.Done():
			utils.Warn("下载被中断")
			return results
		default:
		}

		result := d.downloadOne(ctx, entry)
		results = append(results, result)
		_ = bar.Add(1)

		switch {
		case result.Err != nil:
			utils.Warnf("下载失败 [%s]: %v", utils.TruncateString(entry.Title, 50), result.Err)
		case result.Skipped:
			utils.Debugf("跳过下载 [%s]", utils.TruncateString(entry.Title, 50))
		default:
			utils.Infof("📥 下载成功: %s", filepath.Base(result.FilePath))
		}

		// 最后一篇之后不需要暂停
		if i < len(entries)-1 && !result.Skipped {
			pause := time.Duration(downloadPauseMin+rand.Intn(downloadPauseMax-downloadPauseMin+1)) * time.Second
			select {
			case <-ctx.Done():
				return results
			case <-time.After(pause):
			}
		}
	}

	return results
}

// downloadOne 下载单篇文献
func (d *Downloader) downloadOne(ctx context.Context, entry *models.ReadingEntry) DownloadResult {
	result := DownloadResult{Entry: entry}

	if entry.URL == "" {
		result.Skipped = true
		return result
	}
	if entry.Paywall {
		result.Skipped = true
		return result
	}

	resp, err := d.client.R().SetContext(ctx).Get(entry.URL)
	if err != nil {
		result.Err = fmt.Errorf("请求失败: %w", err)
		return result
	}

	if resp.StatusCode() != http.StatusOK {
		result.Err = fmt.Errorf("HTTP %d", resp.StatusCode())
		return result
	}

	body := resp.Body()
	ext := sniffExtension(resp.Header().Get("Content-Type"), body)

	// 年份缺失时记为"N/A",不能直接进文件名 (含斜杠)
	year := entry.Year
	if year == "" || year == models.FieldNA {
		year = "0000"
	}
	filename := fmt.Sprintf("%s_%s.%s", year, utils.SafeFilename(entry.Title, 80), ext)
	path := filepath.Join(d.outputDir, filename)

	if utils.FileExists(path) {
		result.Skipped = true
		result.FilePath = path
		return result
	}

	if err := os.WriteFile(path, body, 0644); err != nil {
		result.Err = fmt.Errorf("写入文件失败: %w", err)
		return result
	}

	result.FilePath = path
	return result
}

// sniffExtension 根据Content-Type与内容特征判断文件类型
// Content-Type不可靠时检查PDF魔数
func sniffExtension(contentType string, body []byte) string {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "pdf") {
		return "pdf"
	}
	if len(body) >= 5 && string(body[:5]) == "%PDF-" {
		return "pdf"
	}
	return "html"
}
