package main

import (
	"fmt"
	"time"

	"github.com/RotateLab/scholarcrawl/internal/analysis"
	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/RotateLab/scholarcrawl/internal/store"
	"github.com/RotateLab/scholarcrawl/internal/utils"
	"github.com/spf13/cobra"
)

var (
	analyzeFile    string
	analyzeExplore bool
	analyzeSeed    int64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "统计与文本挖掘",
	Long: `对语料做描述性统计,可选执行文本挖掘。

默认加载数据目录中最新的完整语料,输出年份分布、引用分布、
高被引文献、高频期刊与高产作者等表格。加--explore后额外
执行TF-IDF关键词提取、k-means主题聚类与被引次数回归。
所有结果同时保存为JSON报告。

示例:
  scholarcrawl analyze
  scholarcrawl analyze --explore
  scholarcrawl analyze --file data/mental_rotation_complete_20250101_120000.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadAppConfig()
		if err != nil {
			return err
		}

		corpus := store.NewCorpusStore(config.Output.DataDir)

		// 加载语料
		loaded, path, err := loadCorpus(corpus, config.Scrape.Query)
		if err != nil {
			return err
		}
		utils.Infof("📂 已加载语料: %s (%d 篇)", path, len(loaded))

		reporter := utils.NewReporter(config.Output.DataDir)

		// 描述性统计
		summary := analysis.Summarize(loaded, config.Analysis.TopKeywords)
		analysis.RenderSummary(summary)
		if reportPath, err := reporter.SaveAnalysisReport("corpus_summary", summary); err == nil {
			utils.Infof("统计报告已保存: %s", reportPath)
		}

		// 文本挖掘
		if analyzeExplore {
			result, err := analysis.Explore(loaded, analysis.ExploreOptions{
				TopKeywords: config.Analysis.TopKeywords,
				Clusters:    config.Analysis.Clusters,
				TopTerms:    config.Analysis.TopTerms,
				Seed:        analyzeSeed,
			})
			if err != nil {
				return fmt.Errorf("文本挖掘失败: %w", err)
			}
			analysis.RenderExplore(result)
			if reportPath, err := reporter.SaveAnalysisReport("corpus_explore", result); err == nil {
				utils.Infof("挖掘报告已保存: %s", reportPath)
			}
		}

		utils.Info("✨ 分析完成!")
		return nil
	},
}

// loadCorpus 按--file参数或最新语料加载
func loadCorpus(corpus *store.CorpusStore, query string) ([]models.Article, string, error) {
	if analyzeFile != "" {
		articles, err := corpus.LoadJSON(analyzeFile)
		return articles, analyzeFile, err
	}
	return corpus.LoadLatest(query)
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "指定语料JSON文件 (默认取最新)")
	analyzeCmd.Flags().BoolVar(&analyzeExplore, "explore", false, "执行TF-IDF/聚类/回归挖掘")
	analyzeCmd.Flags().Int64Var(&analyzeSeed, "seed", time.Now().UnixNano(), "聚类随机种子")
}
