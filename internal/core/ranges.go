package core

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/RotateLab/scholarcrawl/internal/scholar"
	"github.com/RotateLab/scholarcrawl/internal/utils"
	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/time/rate"
)

const (
	// maxResultsPerRange 单个年份区间的结果数上限
	// 搜索引擎每个查询最多返回约1000条,取800留出估计误差余量
	maxResultsPerRange = 800

	// probeDelayMin 两次探测请求之间的最小间隔 (秒)
	probeDelayMin = 5

	// probeDelayMax 两次探测请求之间的最大间隔 (秒)
	probeDelayMax = 10
)

// YearRange 一个可完整抓取的年份区间
type YearRange struct {
	StartYear int `json:"start_year"` // 区间起始年份
	EndYear   int `json:"end_year"`   // 区间结束年份
	Estimated int `json:"estimated"`  // 估计结果数
	Verified  int `json:"verified"`   // 验证查询返回的实际结果数 (0表示未验证)
}

// String 格式化为 "1971-1985 (约650条)"
func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d (约%d条)", r.StartYear, r.EndYear, r.Estimated)
}

// RangePlanner 年份区间规划器
//
// 搜索引擎单个查询只展示前1000条结果,结果多的检索词必须按年份
// 切分后才能抓全。规划器逐年探测结果数,把相邻年份合并成
// 不超过上限的区间,最后对每个区间做一次验证查询
type RangePlanner struct {
	config  *Config
	client  *resty.Client
	limiter *rate.Limiter
	parser  *scholar.Parser
}

// NewRangePlanner 创建区间规划器
func NewRangePlanner(config *Config, headerProvider models.HeaderProvider) (*RangePlanner, error) {
	client := resty.New().
		SetTimeout(time.Duration(config.Scrape.Timeout) * time.Second)

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

	// 探测请求逐个发出,速率下限取探测窗口的下界,
	// 每次请求前再叠加随机抖动,实际间隔落在5-10秒窗口内
	return &RangePlanner{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(probeDelayMin*time.Second), 1),
		parser:  scholar.NewParser(),
	}, nil
}

// Plan 规划年份区间
// 逐年探测结果数并合并成区间;verify为true时对每个区间做验证查询
func (rp *RangePlanner) Plan(ctx context.Context, verify bool) ([]YearRange, error) {
	cfg := rp.config.Scrape
	yearEnd := cfg.EffectiveYearEnd(time.Now())

	utils.Infof("🔍 探测各年份结果数: %d-%d", cfg.YearStart, yearEnd)

	// 1. 逐年探测
	totals := make(map[int]int)
	bar := utils.NewProgressBar(yearEnd-cfg.YearStart+1, "探测年份")
	for year := cfg.YearStart; year <= yearEnd; year++ {
		total, err := rp.probeTotal(ctx, year, year)
		if err != nil {
			return nil, fmt.Errorf("探测年份 %d 失败: %w", year, err)
		}
		totals[year] = total
		_ = bar.Add(1)
		utils.Debugf("年份 %d: 约 %d 条", year, total)
	}

	// 2. 合并相邻年份
	ranges := groupYears(cfg.YearStart, yearEnd, totals, maxResultsPerRange)
	utils.Infof("📊 规划完成: %d 个区间", len(ranges))

	// 3. 验证查询
	if verify {
		for i := range ranges {
			actual, err := rp.probeTotal(ctx, ranges[i].StartYear, ranges[i].EndYear)
			if err != nil {
				utils.Warnf("验证区间 %s 失败: %v", ranges[i], err)
				continue
			}
			ranges[i].Verified = actual
			if actual > maxResultsPerRange {
				utils.Warnf("⚠️  区间 %d-%d 实际结果数 %d 超出上限, 建议手动拆分",
					ranges[i].StartYear, ranges[i].EndYear, actual)
			}
		}
	}

	return ranges, nil
}

// probeJitter 返回叠加在速率下限之上的随机抖动
func probeJitter() time.Duration {
	return time.Duration(rand.Intn(probeDelayMax-probeDelayMin+1)) * time.Second
}

// probeTotal 探测指定年份区间的结果总数
func (rp *RangePlanner) probeTotal(ctx context.Context, yearStart, yearEnd int) (int, error) {
	if err := rp.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(probeJitter()):
	}

	url := scholar.PageURL(rp.config.Scrape.Query, yearStart, yearEnd, 0)
	resp, err := rp.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return 0, fmt.Errorf("遇到限流 (HTTP 429)")
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode())
	}

	body := resp.Body()
	if rp.parser.IsBlockedPage(body) {
		return 0, fmt.Errorf("被反爬验证页拦截")
	}

	total, ok := rp.parser.EstimateTotal(body)
	if !ok {
		// 结果极少时页面不显示总数文本,按0条处理
		return 0, nil
	}
	return total, nil
}

// groupYears 把相邻年份合并成不超过limit的区间
// 单年结果数已超限的年份独立成段 (无法再细分)
func groupYears(yearStart, yearEnd int, totals map[int]int, limit int) []YearRange {
	ranges := make([]YearRange, 0)
	var current *YearRange

	for year := yearStart; year <= yearEnd; year++ {
		total := totals[year]

		if current == nil {
			current = &YearRange{StartYear: year, EndYear: year, Estimated: total}
			continue
		}

		if current.Estimated+total <= limit {
			current.EndYear = year
			current.Estimated += total
		} else {
			ranges = append(ranges, *current)
			current = &YearRange{StartYear: year, EndYear: year, Estimated: total}
		}
	}

	if current != nil {
		ranges = append(ranges, *current)
	}
	return ranges
}

// RenderRanges 以表格形式输出区间规划
func RenderRanges(ranges []YearRange) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "年份区间", "估计结果数", "验证结果数"})

	totalEstimated := 0
	for i, r := range ranges {
		verified := "-"
		if r.Verified > 0 {
			verified = fmt.Sprintf("%d", r.Verified)
		}
		t.AppendRow(table.Row{i + 1, fmt.Sprintf("%d-%d", r.StartYear, r.EndYear), r.Estimated, verified})
		totalEstimated += r.Estimated
	}
	t.AppendFooter(table.Row{"", "合计", totalEstimated, ""})
	t.SetStyle(table.StyleLight)
	t.Render()
}
