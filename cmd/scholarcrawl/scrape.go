package main

import (
	"fmt"

	"github.com/RotateLab/scholarcrawl/internal/core"
	"github.com/RotateLab/scholarcrawl/internal/utils"
	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "执行完整的按年份增量采集",
	Long: `按年份倒序抓取检索结果,每完成一个年份保存检查点。

被限流、预算耗尽或按Ctrl+C中断时进度会保存到检查点文件,
重新运行同一命令即可从断点恢复,已完成的年份不会重抓。
全部年份完成后输出按URL去重的最终语料 (JSON+CSV)。

示例:
  scholarcrawl scrape --year-start 1970
  scholarcrawl scrape -q "mental rotation" --year-start 1990 --year-end 2000
  scholarcrawl scrape --resume=false   # 忽略检查点重新开始`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadAppConfig()
		if err != nil {
			return err
		}

		headerManager, err := newHeaderManager()
		if err != nil {
			return err
		}

		scraper, err := core.NewScraper(config, headerManager)
		if err != nil {
			return fmt.Errorf("创建采集器失败: %w", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := scraper.Run(ctx); err != nil {
			return fmt.Errorf("采集失败: %w", err)
		}

		utils.Info("✨ 采集任务结束!")
		return nil
	},
}
