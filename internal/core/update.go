package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/RotateLab/scholarcrawl/internal/scholar"
	"github.com/RotateLab/scholarcrawl/internal/store"
	"github.com/RotateLab/scholarcrawl/internal/utils"
)

// Updater 当前年份增量更新器
//
// 完整语料生成后,当年的新文献仍在持续发表。更新器只重抓当前
// 年份,与最新语料按URL去重合并,输出一份新的带时间戳语料,
// 历史记录不被修改 (旧URL保留首次抓取的版本)
type Updater struct {
	config *Config
	engine *scholar.Engine
	corpus *store.CorpusStore
}

// NewUpdater 创建更新器
func NewUpdater(config *Config, headerProvider models.HeaderProvider) (*Updater, error) {
	engine, err := scholar.NewEngine(config.Scrape, headerProvider)
	if err != nil {
		return nil, err
	}

	return &Updater{
		config: config,
		engine: engine,
		corpus: store.NewCorpusStore(config.Output.DataDir),
	}, nil
}

// Run 执行当前年份更新
func (u *Updater) Run(ctx context.Context) error {
	cfg := u.config.Scrape
	year := time.Now().Year()

	// 1. 加载最新语料
	existing, path, err := u.corpus.LoadLatest(cfg.Query)
	if err != nil {
		return fmt.Errorf("没有可更新的语料, 请先执行完整采集: %w", err)
	}
	utils.Infof("📂 已加载语料: %s (%d 篇)", path, len(existing))

	// 2. 重抓当前年份
	utils.Infof("🔄 更新年份 %d", year)

	u.engine.ResetTotal()
	if err := u.engine.VisitPage(cfg.Query, year, year, 0); err != nil {
		return fmt.Errorf("访问首页失败: %w", err)
	}
	u.engine.Wait()

	outcomes := u.engine.DrainOutcomes()
	fresh, stats := collectOutcomes(outcomes)
	if stats.RateLimitedPages > 0 {
		return fmt.Errorf("更新时被限流, 请稍后重试")
	}

	total, ok := u.engine.Total()
	if ok {
		pages := models.PagesNeeded(total, cfg.MaxPages)
		for page := 1; page < pages; page++ {
			select {
			case <-ctx.Done():
				return fmt.Errorf("更新被中断")
			default:
			}
			if err := u.engine.VisitPage(cfg.Query, year, year, page); err != nil {
				utils.Warnf("页 %d 入队失败: %v", page, err)
			}
		}
		u.engine.Wait()

		restArticles, restStats := collectOutcomes(u.engine.DrainOutcomes())
		if restStats.RateLimitedPages > 0 {
			return fmt.Errorf("更新时被限流, 请稍后重试")
		}
		fresh = append(fresh, restArticles...)
	}

	for i := range fresh {
		fresh[i].SearchYear = year
	}
	utils.Infof("年份 %d 抓取到 %d 篇", year, len(fresh))

	// 3. 合并去重并保存新版本
	merged, added := u.corpus.Merge(existing, fresh)
	if added == 0 {
		utils.Infof("✅ 没有新文献, 语料保持不变")
		return nil
	}

	if _, err := u.corpus.Save(cfg.Query, merged); err != nil {
		return fmt.Errorf("保存更新后语料失败: %w", err)
	}
	utils.Infof("✅ 更新完成: 新增 %d 篇, 语料共 %d 篇", added, len(merged))
	return nil
}
