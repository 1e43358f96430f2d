package main

import (
	"fmt"

	"github.com/RotateLab/scholarcrawl/internal/core"
	"github.com/RotateLab/scholarcrawl/internal/utils"
	"github.com/spf13/cobra"
)

var rangesVerify bool

var rangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "规划年份区间",
	Long: `逐年探测结果数,把相邻年份合并成结果数不超限的区间。

搜索引擎单个查询只展示前1000条结果,热门检索词必须按年份
切分后才能抓全。规划结果以表格输出,并保存JSON报告供
后续采集参考。

示例:
  scholarcrawl ranges --year-start 1970
  scholarcrawl ranges --verify    # 对每个区间做验证查询`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadAppConfig()
		if err != nil {
			return err
		}

		headerManager, err := newHeaderManager()
		if err != nil {
			return err
		}

		planner, err := core.NewRangePlanner(config, headerManager)
		if err != nil {
			return fmt.Errorf("创建区间规划器失败: %w", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		ranges, err := planner.Plan(ctx, rangesVerify)
		if err != nil {
			return fmt.Errorf("区间规划失败: %w", err)
		}

		core.RenderRanges(ranges)

		// 保存JSON报告
		reporter := utils.NewReporter(config.Output.DataDir)
		path, err := reporter.SaveAnalysisReport("year_ranges", ranges)
		if err != nil {
			return err
		}
		utils.Infof("✨ 区间规划已保存: %s", path)
		return nil
	},
}

func init() {
	rangesCmd.Flags().BoolVar(&rangesVerify, "verify", false, "对每个区间做验证查询")
}
