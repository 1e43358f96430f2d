package utils

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
// 每次抓取任务结束后输出一份JSON报告,记录任务配置与统计数据
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
	}
}

// GenerateScrapeReport 生成抓取任务报告
func (r *Reporter) GenerateScrapeReport(task *models.ScrapeTask) error {
	reportsDir := filepath.Join(r.outputDir, "reports")
	if err := EnsureDir(reportsDir); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	filename := fmt.Sprintf("scrape_report_%s.json", time.Now().Format("20060102_150405"))
	if err := r.saveJSONReport(reportsDir, filename, task); err != nil {
		return err
	}

	Infof("✅ 抓取报告已生成: %s", filepath.Join(reportsDir, filename))
	return nil
}

// SaveAnalysisReport 保存分析结果报告
func (r *Reporter) SaveAnalysisReport(name string, data interface{}) (string, error) {
	reportsDir := filepath.Join(r.outputDir, "reports")
	if err := EnsureDir(reportsDir); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.json", name, time.Now().Format("20060102_150405"))
	if err := r.saveJSONReport(reportsDir, filename, data); err != nil {
		return "", err
	}
	return filepath.Join(reportsDir, filename), nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := WriteFileAtomic(path, jsonData); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
