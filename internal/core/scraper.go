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

// Scraper 按年份分段的增量采集器
//
// 工作流程:
//  1. 如有进度文件且允许恢复,加载检查点,跳过已完成年份
//  2. 从最新年份倒序逐年抓取: 先探测首页估计总数,再抓剩余页
//  3. 每完成一个年份立即写盘检查点
//  4. 遇到限流、预算耗尽或中断信号时保存进度退出,下次恢复
//  5. 全部年份完成后按URL去重合并,输出最终语料并删除进度文件
type Scraper struct {
	config   *Config
	engine   *scholar.Engine
	corpus   *store.CorpusStore
	reporter *utils.Reporter
}

// NewScraper 创建采集器
func NewScraper(config *Config, headerProvider models.HeaderProvider) (*Scraper, error) {
	engine, err := scholar.NewEngine(config.Scrape, headerProvider)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		config:   config,
		engine:   engine,
		corpus:   store.NewCorpusStore(config.Output.DataDir),
		reporter: utils.NewReporter(config.Output.DataDir),
	}, nil
}

// Run 执行完整采集流程
func (s *Scraper) Run(ctx context.Context) error {
	cfg := s.config.Scrape
	startTime := time.Now()

	task, err := models.NewScrapeTask(cfg)
	if err != nil {
		return err
	}
	task.MarkStarted()

	yearEnd := cfg.EffectiveYearEnd(time.Now())

	utils.Infof("🚀 采集任务启动: %q", cfg.Query)
	utils.Infof("年份范围: %d-%d", cfg.YearStart, yearEnd)
	utils.Infof("并发数: %d, 延迟窗口: %d-%d秒, 会话预算: %d",
		cfg.Concurrency, cfg.DelayMin, cfg.DelayMax, cfg.SessionRequests)

	// 加载或新建进度检查点
	progress := s.loadOrCreateProgress(task)

	stats := models.ScrapeStats{}
	completed := true
	interruptReason := ""

	// 从最新年份倒序抓取: 新文献价值更高,中断时优先保住近年数据
	for year := yearEnd; year >= cfg.YearStart; year-- {
		if progress.IsYearCompleted(year) {
			utils.Debugf("年份 %d 已完成,跳过", year)
			continue
		}

		select {
		case <-ctx.Done():
			completed = false
			interruptReason = "收到中断信号"
		default:
		}
		if !completed {
			break
		}

		if s.engine.BudgetExhausted() {
			completed = false
			interruptReason = "会话请求预算已用尽"
			break
		}

		articles, yearStats, err := s.scrapeYear(ctx, year)
		stats.PagesFetched += yearStats.PagesFetched
		stats.FailedPages += yearStats.FailedPages
		stats.RateLimitedPages += yearStats.RateLimitedPages

		if err != nil {
			completed = false
			interruptReason = err.Error()
			break
		}

		progress.AddYear(year, articles)
		stats.YearsCompleted++

		if err := progress.SaveToFile(s.corpus.ProgressPath()); err != nil {
			return fmt.Errorf("保存进度检查点失败: %w", err)
		}
		utils.Infof("✅ 年份 %d 完成: %d 篇 (累计 %d 篇, 检查点已保存)",
			year, len(articles), progress.TotalArticles)
	}

	stats.RequestsUsed = s.engine.RequestCount()
	stats.Duration = time.Since(startTime).Seconds()

	if !completed {
		// 中断: 保存进度,下次运行恢复
		if err := progress.SaveToFile(s.corpus.ProgressPath()); err != nil {
			utils.Errorf("保存进度检查点失败: %v", err)
		}
		stats.TotalArticles = progress.TotalArticles
		task.MarkInterrupted(stats, interruptReason)

		utils.Warnf("⚠️  采集中断: %s", interruptReason)
		utils.Infof("进度已保存到 %s, 重新运行即可恢复", s.corpus.ProgressPath())
		s.printSummary(task)
		return s.reporter.GenerateScrapeReport(task)
	}

	// 全部年份完成: 去重合并并输出最终语料
	merged, dupes := progress.MergedArticles()
	stats.TotalArticles = len(merged)
	stats.DuplicatesMerged = dupes

	if _, err := s.corpus.Save(cfg.Query, merged); err != nil {
		return fmt.Errorf("保存最终语料失败: %w", err)
	}
	if err := s.corpus.RemoveProgress(); err != nil {
		utils.Warnf("删除进度文件失败: %v", err)
	}

	task.MarkCompleted(stats)
	s.printSummary(task)
	return s.reporter.GenerateScrapeReport(task)
}

// loadOrCreateProgress 加载进度检查点,不可用时新建
func (s *Scraper) loadOrCreateProgress(task *models.ScrapeTask) *models.ScrapeProgress {
	cfg := s.config.Scrape
	path := s.corpus.ProgressPath()

	if !cfg.Resume || !utils.FileExists(path) {
		return models.NewScrapeProgress(task.ID, cfg)
	}

	progress, err := models.LoadProgressFromFile(path)
	if err != nil {
		utils.Warnf("进度文件损坏,重新开始: %v", err)
		return models.NewScrapeProgress(task.ID, cfg)
	}

	// 检索词变化时旧进度不可复用
	if progress.Query != cfg.Query {
		utils.Warnf("进度文件的检索词不匹配 (%q != %q), 重新开始", progress.Query, cfg.Query)
		return models.NewScrapeProgress(task.ID, cfg)
	}

	utils.Infof("📂 从检查点恢复: 已完成 %d 个年份, 累计 %d 篇文献",
		len(progress.YearsCompleted), progress.TotalArticles)
	return progress
}

// scrapeYear 抓取单个年份的全部结果页
// 返回该年份的文献列表与页面统计;遇到限流时返回错误,调用方保存进度后退出
func (s *Scraper) scrapeYear(ctx context.Context, year int) ([]models.Article, models.ScrapeStats, error) {
	cfg := s.config.Scrape
	stats := models.ScrapeStats{}

	utils.Infof("🔍 开始抓取年份 %d", year)

	// 1. 探测首页,估计该年份结果总数
	s.engine.ResetTotal()
	if err := s.engine.VisitPage(cfg.Query, year, year, 0); err != nil {
		return nil, stats, fmt.Errorf("访问首页失败 (年份 %d): %w", year, err)
	}
	s.engine.Wait()

	firstOutcomes := s.engine.DrainOutcomes()
	articles, pageStats := collectOutcomes(firstOutcomes)
	stats.PagesFetched += pageStats.PagesFetched
	stats.FailedPages += pageStats.FailedPages
	stats.RateLimitedPages += pageStats.RateLimitedPages

	if pageStats.RateLimitedPages > 0 {
		return nil, stats, fmt.Errorf("年份 %d 首页被限流", year)
	}

	total, ok := s.engine.Total()
	pages := 1
	if ok {
		pages = models.PagesNeeded(total, cfg.MaxPages)
		utils.Infof("年份 %d: 约 %d 条结果, 需抓取 %d 页", year, total, pages)
	} else {
		utils.Warnf("年份 %d: 无法估计结果总数, 仅保留首页", year)
	}

	// 2. 抓取剩余页
	if pages > 1 {
		bar := utils.NewProgressBar(pages-1, fmt.Sprintf("年份 %d", year))
		for page := 1; page < pages; page++ {
			select {
			case <-ctx.Done():
				return nil, stats, fmt.Errorf("抓取年份 %d 时被中断", year)
			default:
			}
			if err := s.engine.VisitPage(cfg.Query, year, year, page); err != nil {
				utils.Warnf("页 %d 入队失败 (年份 %d): %v", page, year, err)
			}
		}
		s.engine.Wait()
		_ = bar.Finish()

		restOutcomes := s.engine.DrainOutcomes()
		restArticles, restStats := collectOutcomes(restOutcomes)
		articles = append(articles, restArticles...)
		stats.PagesFetched += restStats.PagesFetched
		stats.FailedPages += restStats.FailedPages
		stats.RateLimitedPages += restStats.RateLimitedPages

		if restStats.RateLimitedPages > 0 {
			return nil, stats, fmt.Errorf("年份 %d 抓取中被限流", year)
		}
	}

	if s.engine.BudgetExhausted() {
		return nil, stats, fmt.Errorf("年份 %d 抓取中会话预算用尽", year)
	}

	return articles, stats, nil
}

// collectOutcomes 汇总一批页面结果
func collectOutcomes(outcomes []*scholar.PageOutcome) ([]models.Article, models.ScrapeStats) {
	stats := models.ScrapeStats{}
	articles := make([]models.Article, 0)

	for _, o := range outcomes {
		switch {
		case o.RateLimited:
			stats.RateLimitedPages++
		case o.Err != nil:
			stats.FailedPages++
		default:
			stats.PagesFetched++
			articles = append(articles, o.Articles...)
		}
	}
	return articles, stats
}

// printSummary 打印任务摘要
func (s *Scraper) printSummary(task *models.ScrapeTask) {
	utils.Infof("📊 ========== 采集摘要 ==========")
	utils.Infof("任务ID: %s", task.ID)
	utils.Infof("状态: %s", task.Status)
	utils.Infof("文献总数: %d", task.Stats.TotalArticles)
	utils.Infof("完成年份数: %d", task.Stats.YearsCompleted)
	utils.Infof("成功页数: %d, 失败页数: %d, 限流页数: %d",
		task.Stats.PagesFetched, task.Stats.FailedPages, task.Stats.RateLimitedPages)
	utils.Infof("合并去重: %d", task.Stats.DuplicatesMerged)
	utils.Infof("请求消耗: %d / %d", task.Stats.RequestsUsed, task.Config.SessionRequests)
	utils.Infof("总耗时: %s", utils.FormatDuration(time.Duration(task.Stats.Duration*float64(time.Second))))
	utils.Infof("================================")
}
