package scholar

import (
	"testing"

	"github.com/RotateLab/scholarcrawl/internal/models"
)

// resultPageHTML 模拟一页搜索结果: 统计行 + 两个结果条目
const resultPageHTML = `
<html><body>
<div id="gs_ab_md"><div class="gs_ab_mdw">About 17,300 results (0.05 sec)</div></div>
<div class="gs_r gs_or gs_scl">
  <div class="gs_ri">
    <h3 class="gs_rt">
      <span class="gs_ctc"><span class="gs_ct1">[PDF]</span></span>
      <a href="https://www.science.org/doi/10.1126/science.171.3972.701">Mental rotation of three-dimensional objects</a>
    </h3>
    <div class="gs_a">RN Shepard, J Metzler - Science, 1971 - science.org</div>
    <div class="gs_rs">The time required to recognize that two perspective drawings portray
      objects of the same three-dimensional shape ...</div>
    <div class="gs_fl">
      <a href="/scholar?cites=123">Cited by 8504</a>
      <a href="/scholar?q=related:abc">Related articles</a>
    </div>
  </div>
</div>
<div class="gs_r gs_or gs_scl">
  <div class="gs_ri">
    <h3 class="gs_rt"><span class="gs_ctu">[CITATION]</span> Untitled citation entry</h3>
    <div class="gs_a">A Author - 1972</div>
    <div class="gs_fl"></div>
  </div>
</div>
</body></html>`

func TestParser_ParsePage(t *testing.T) {
	parser := NewParser()

	articles, err := parser.ParsePage([]byte(resultPageHTML), 2)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("期望2条记录, 得到%d条", len(articles))
	}

	t.Run("完整条目", func(t *testing.T) {
		a := articles[0]
		if a.Title != "Mental rotation of three-dimensional objects" {
			t.Errorf("标题不正确 (应剔除[PDF]标记): '%s'", a.Title)
		}
		if a.URL != "https://www.science.org/doi/10.1126/science.171.3972.701" {
			t.Errorf("URL不正确: '%s'", a.URL)
		}
		if a.Authors != "RN Shepard, J Metzler" {
			t.Errorf("作者不正确: '%s'", a.Authors)
		}
		if a.Publication != "Science" {
			t.Errorf("期刊不正确: '%s'", a.Publication)
		}
		if a.Year != "1971" {
			t.Errorf("年份不正确: '%s'", a.Year)
		}
		if a.Citations != 8504 {
			t.Errorf("被引次数不正确: %d", a.Citations)
		}
		if a.RelatedURL != "/scholar?q=related:abc" {
			t.Errorf("相关文献链接不正确: '%s'", a.RelatedURL)
		}
		if a.Abstract == models.FieldNA {
			t.Error("摘要不应缺失")
		}
		if a.Page != 2 || a.Position != 0 {
			t.Errorf("页码/位置不正确: page=%d position=%d", a.Page, a.Position)
		}
	})

	t.Run("不完整条目回退到占位值", func(t *testing.T) {
		a := articles[1]
		if a.Title != "Untitled citation entry" {
			t.Errorf("标题不正确: '%s'", a.Title)
		}
		if a.URL != "" {
			t.Errorf("无链接条目URL应为空: '%s'", a.URL)
		}
		if a.Year != "1972" {
			t.Errorf("年份不正确: '%s'", a.Year)
		}
		if a.Publication != models.FieldNA {
			t.Errorf("无期刊时应为占位值: '%s'", a.Publication)
		}
		if a.Abstract != models.FieldNA {
			t.Errorf("无摘要时应为占位值: '%s'", a.Abstract)
		}
		if a.Citations != 0 {
			t.Errorf("无引用数据时应为0: %d", a.Citations)
		}
		if a.Position != 1 {
			t.Errorf("页内位置不正确: %d", a.Position)
		}
	})
}

func TestParser_ParsePage_EmptyPage(t *testing.T) {
	parser := NewParser()

	articles, err := parser.ParsePage([]byte("<html><body>no results here</body></html>"), 0)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("无结果页应返回空列表, 得到%d条", len(articles))
	}
}

func TestParser_EstimateTotal(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name      string
		html      string
		wantTotal int
		wantOK    bool
	}{
		{
			"About格式",
			`<div class="gs_ab_mdw">About 17,300 results (0.05 sec)</div>`,
			17300, true,
		},
		{
			"Page-of格式",
			`<div class="gs_ab_mdw">Page 2 of 3,470 results (0.03 sec)</div>`,
			3470, true,
		},
		{
			"无千位分隔符",
			`<div class="gs_ab_mdw">About 42 results</div>`,
			42, true,
		},
		{
			"单数results",
			`<div class="gs_ab_mdw">About 1 result</div>`,
			1, true,
		},
		{
			"统计区域缺失时全文兜底",
			`<body><p>Page 1 of 120 results</p></body>`,
			120, true,
		},
		{
			"零结果",
			`<div class="gs_ab_mdw">About 0 results</div>`,
			0, true,
		},
		{
			"无统计文本",
			`<body><p>nothing relevant</p></body>`,
			0, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, ok := parser.EstimateTotal([]byte(tt.html))
			if ok != tt.wantOK || total != tt.wantTotal {
				t.Errorf("期望 (%d, %v), 得到 (%d, %v)", tt.wantTotal, tt.wantOK, total, ok)
			}
		})
	}
}

// 空年份的统计行解析出0条后,翻页规划必须收敛到首页,
// 不能按上限页数空抓而耗尽会话预算
func TestParser_EmptyYearPlansSinglePage(t *testing.T) {
	parser := NewParser()

	total, ok := parser.EstimateTotal([]byte(`<div class="gs_ab_mdw">About 0 results</div>`))
	if !ok || total != 0 {
		t.Fatalf("期望解析出 (0, true), 得到 (%d, %v)", total, ok)
	}

	if pages := models.PagesNeeded(total, 100); pages != 1 {
		t.Errorf("零结果年份应只抓1页, 实际规划 %d 页", pages)
	}
}

func TestParser_IsBlockedPage(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"异常流量提示", "Our systems have detected Unusual Traffic from your network", true},
		{"人机验证提示", "please confirm you are not a robot", true},
		{"验证码页面", "<form>Please complete the CAPTCHA below</form>", true},
		{"正常结果页", resultPageHTML, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parser.IsBlockedPage([]byte(tt.body)); got != tt.want {
				t.Errorf("期望 %v, 得到 %v", tt.want, got)
			}
		})
	}
}
