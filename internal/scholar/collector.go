package scholar

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/RotateLab/scholarcrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// PageOutcome 单个结果页的抓取结果
type PageOutcome struct {
	// Page 页号 (从0开始)
	Page int

	// Articles 解析出的文献条目
	Articles []models.Article

	// StatusCode HTTP状态码
	StatusCode int

	// RateLimited 是否被限流 (HTTP 429 或验证页)
	RateLimited bool

	// Err 抓取或解析错误
	Err error
}

// Engine 结果页抓取引擎
// 基于colly实现并发抓取: 并发数与随机延迟窗口由配置决定,
// 所有页面共享一个会话请求预算,超出后拒绝继续发起请求
type Engine struct {
	collector *colly.Collector
	parser    *Parser
	config    models.ScrapeConfig

	// baseURL 搜索入口地址,默认为BaseURL
	baseURL string

	// headerProvider HTTP头部提供者
	headerProvider models.HeaderProvider

	mu sync.Mutex

	// outcomes 当前批次的页面抓取结果 (页号 -> 结果)
	outcomes map[int]*PageOutcome

	// total 检索结果总数估计 (首个成功解析的页面写入)
	total   int
	totalOK bool

	// requests 本次会话已发起的请求数
	requests int

	// budgetExhausted 会话预算是否已用尽
	budgetExhausted bool

	// rateLimited 本批次是否遇到限流
	rateLimited bool
}

// NewEngine 创建抓取引擎
func NewEngine(config models.ScrapeConfig, headerProvider models.HeaderProvider) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		parser:         NewParser(),
		config:         config,
		baseURL:        BaseURL,
		headerProvider: headerProvider,
		outcomes:       make(map[int]*PageOutcome),
	}

	if err := e.initCollector(); err != nil {
		return nil, err
	}
	return e, nil
}

// initCollector 初始化colly collector
func (e *Engine) initCollector() error {
	c := colly.NewCollector(
		colly.Async(true),
		colly.AllowURLRevisit(),
	)

	c.SetRequestTimeout(time.Duration(e.config.Timeout) * time.Second)

	// 并发上限 + 随机延迟窗口,只约束搜索站点本身
	// 延迟在 [DelayMin, DelayMax] 秒之间随机,对应站点限流阈值下的安全节奏
	delayMin := time.Duration(e.config.DelayMin) * time.Second
	delaySpan := time.Duration(e.config.DelayMax-e.config.DelayMin) * time.Second
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  Host,
		Parallelism: e.config.Concurrency,
		Delay:       delayMin,
		RandomDelay: delaySpan,
	}); err != nil {
		return fmt.Errorf("设置限速规则失败: %w", err)
	}

	// 请求前: 检查会话预算并应用自定义头部
	c.OnRequest(func(r *colly.Request) {
		e.mu.Lock()
		if e.requests >= e.config.SessionRequests {
			e.budgetExhausted = true
			e.mu.Unlock()
			utils.Warnf("会话请求预算已用尽 (%d), 中止请求: %s", e.config.SessionRequests, r.URL)
			r.Abort()
			return
		}
		e.requests++
		e.mu.Unlock()

		if e.headerProvider != nil {
			headers, err := e.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}

		utils.Debugf("访问结果页: %s", r.URL.String())
	})

	// 响应处理: 解压、识别限流页、解析条目
	c.OnResponse(func(r *colly.Response) {
		page := pageFromURL(r.Request.URL.Query().Get("start"))

		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressBody(encoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [页 %d] (编码=%s): %v", page, encoding, err)
			} else {
				body = decompressed
			}
		}

		outcome := &PageOutcome{Page: page, StatusCode: r.StatusCode}

		// 验证页意味着已被限流,内容不可用
		if e.parser.IsBlockedPage(body) {
			utils.Warnf("检测到人机验证页 [页 %d], 视为限流", page)
			outcome.RateLimited = true
			outcome.Err = fmt.Errorf("页 %d 被反爬验证页拦截", page)
			e.recordOutcome(outcome)
			return
		}

		articles, err := e.parser.ParsePage(body, page)
		if err != nil {
			outcome.Err = fmt.Errorf("解析页 %d 失败: %w", page, err)
			e.recordOutcome(outcome)
			return
		}
		outcome.Articles = articles

		// 总数估计: 任意成功页面都可以提供
		if total, ok := e.parser.EstimateTotal(body); ok {
			e.mu.Lock()
			if !e.totalOK {
				e.total = total
				e.totalOK = true
				utils.Infof("📊 检索结果总数估计: %d", total)
			}
			e.mu.Unlock()
		}

		e.recordOutcome(outcome)
	})

	// 错误处理: 区分429限流与其他失败
	c.OnError(func(r *colly.Response, err error) {
		page := pageFromURL(r.Request.URL.Query().Get("start"))
		outcome := &PageOutcome{Page: page, StatusCode: r.StatusCode, Err: err}

		if r.StatusCode == http.StatusTooManyRequests {
			utils.Warnf("遇到限流 (HTTP 429) [页 %d]", page)
			outcome.RateLimited = true
		} else {
			utils.Errorf("抓取结果页失败 [页 %d]: %v", page, err)
		}

		e.recordOutcome(outcome)
	})

	e.collector = c
	return nil
}

// recordOutcome 记录页面抓取结果
func (e *Engine) recordOutcome(outcome *PageOutcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcomes[outcome.Page] = outcome
	if outcome.RateLimited {
		e.rateLimited = true
	}
}

// SetBaseURL 覆盖搜索入口地址 (镜像站点或本地联调)
func (e *Engine) SetBaseURL(base string) {
	e.baseURL = base
}

// VisitPage 将指定页加入抓取队列
func (e *Engine) VisitPage(query string, yearStart, yearEnd, page int) error {
	return e.collector.Visit(SearchQuery{
		Base:      e.baseURL,
		Query:     query,
		YearStart: yearStart,
		YearEnd:   yearEnd,
		Start:     page * models.ResultsPerPage,
	}.BuildURL())
}

// Wait 等待当前批次的所有页面抓取完成
func (e *Engine) Wait() {
	e.collector.Wait()
}

// DrainOutcomes 取出当前批次的全部页面结果并清空,按页号升序返回
func (e *Engine) DrainOutcomes() []*PageOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	outcomes := make([]*PageOutcome, 0, len(e.outcomes))
	maxPage := -1
	for page := range e.outcomes {
		if page > maxPage {
			maxPage = page
		}
	}
	for page := 0; page <= maxPage; page++ {
		if o, ok := e.outcomes[page]; ok {
			outcomes = append(outcomes, o)
		}
	}

	e.outcomes = make(map[int]*PageOutcome)
	e.rateLimited = false
	return outcomes
}

// Total 返回检索结果总数估计
func (e *Engine) Total() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total, e.totalOK
}

// ResetTotal 清除总数估计 (切换年份范围后总数会变化)
func (e *Engine) ResetTotal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.total = 0
	e.totalOK = false
}

// RequestCount 返回本次会话已发起的请求数
func (e *Engine) RequestCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests
}

// BudgetExhausted 返回会话预算是否已用尽
func (e *Engine) BudgetExhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.budgetExhausted
}

// RateLimited 返回当前批次是否遇到限流
func (e *Engine) RateLimited() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rateLimited
}

// pageFromURL 从start参数反推页号
func pageFromURL(start string) int {
	if start == "" {
		return 0
	}
	n, err := strconv.Atoi(start)
	if err != nil || n < 0 {
		return 0
	}
	return n / models.ResultsPerPage
}

// decompressBody 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
