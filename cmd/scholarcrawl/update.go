package main

import (
	"fmt"

	"github.com/RotateLab/scholarcrawl/internal/core"
	"github.com/RotateLab/scholarcrawl/internal/utils"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "更新当前年份的文献",
	Long: `重抓当前年份的检索结果,与最新语料按URL去重合并。

已有记录不会被修改,只追加新出现的文献;合并结果保存为
一份新的带时间戳语料文件,历史版本保留。

示例:
  scholarcrawl update
  scholarcrawl update -H "Cookie: GSP=ID=xxxx"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadAppConfig()
		if err != nil {
			return err
		}

		headerManager, err := newHeaderManager()
		if err != nil {
			return err
		}

		updater, err := core.NewUpdater(config, headerManager)
		if err != nil {
			return fmt.Errorf("创建更新器失败: %w", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := updater.Run(ctx); err != nil {
			return fmt.Errorf("更新失败: %w", err)
		}

		utils.Info("✨ 更新任务结束!")
		return nil
	},
}
