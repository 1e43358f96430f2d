package models

import (
	"testing"
	"time"
)

// validScrapeConfig 返回一份通过校验的采集配置
func validScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		Query:           "mental rotation",
		YearStart:       1950,
		YearEnd:         0,
		MaxPages:        100,
		Concurrency:     3,
		DelayMin:        30,
		DelayMax:        50,
		SessionRequests: 900,
		Timeout:         30,
		Resume:          true,
	}
}

func TestScrapeConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*ScrapeConfig)
		expectError bool
	}{
		{"合法配置", func(c *ScrapeConfig) {}, false},
		{"空检索短语", func(c *ScrapeConfig) { c.Query = "" }, true},
		{"起始年份过早", func(c *ScrapeConfig) { c.YearStart = 1850 }, true},
		{"起始年份过晚", func(c *ScrapeConfig) { c.YearStart = 2200 }, true},
		{"结束年份早于起始", func(c *ScrapeConfig) { c.YearStart = 2000; c.YearEnd = 1990 }, true},
		{"结束年份为0表示当前年", func(c *ScrapeConfig) { c.YearEnd = 0 }, false},
		{"页数为0", func(c *ScrapeConfig) { c.MaxPages = 0 }, true},
		{"页数超过硬上限", func(c *ScrapeConfig) { c.MaxPages = MaxPagesPerQuery + 1 }, true},
		{"并发数为0", func(c *ScrapeConfig) { c.Concurrency = 0 }, true},
		{"并发数过大", func(c *ScrapeConfig) { c.Concurrency = 11 }, true},
		{"延迟区间倒置", func(c *ScrapeConfig) { c.DelayMin = 50; c.DelayMax = 30 }, true},
		{"延迟为负", func(c *ScrapeConfig) { c.DelayMin = -1 }, true},
		{"请求预算为0", func(c *ScrapeConfig) { c.SessionRequests = 0 }, true},
		{"超时为0", func(c *ScrapeConfig) { c.Timeout = 0 }, true},
		{"超时过长", func(c *ScrapeConfig) { c.Timeout = 300 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validScrapeConfig()
			tt.modify(&config)

			err := config.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestScrapeConfig_EffectiveYearEnd(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	t.Run("为0时返回当前年", func(t *testing.T) {
		config := ScrapeConfig{YearEnd: 0}
		if got := config.EffectiveYearEnd(now); got != 2026 {
			t.Errorf("期望 2026, 得到 %d", got)
		}
	})

	t.Run("非0时原样返回", func(t *testing.T) {
		config := ScrapeConfig{YearEnd: 2010}
		if got := config.EffectiveYearEnd(now); got != 2010 {
			t.Errorf("期望 2010, 得到 %d", got)
		}
	})
}

func TestScrapeTask_Lifecycle(t *testing.T) {
	config := validScrapeConfig()

	task, err := NewScrapeTask(config)
	if err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}

	t.Run("新任务状态为pending", func(t *testing.T) {
		if task.Status != TaskStatusPending {
			t.Errorf("期望状态 %s, 得到 %s", TaskStatusPending, task.Status)
		}
		if task.ID == "" {
			t.Error("任务ID不能为空")
		}
	})

	t.Run("标记开始", func(t *testing.T) {
		task.MarkStarted()
		if task.Status != TaskStatusRunning {
			t.Errorf("期望状态 %s, 得到 %s", TaskStatusRunning, task.Status)
		}
		if task.StartedAt == nil {
			t.Error("开始时间应被记录")
		}
	})

	t.Run("标记完成", func(t *testing.T) {
		stats := ScrapeStats{TotalArticles: 42, PagesFetched: 5}
		task.MarkCompleted(stats)
		if task.Status != TaskStatusCompleted {
			t.Errorf("期望状态 %s, 得到 %s", TaskStatusCompleted, task.Status)
		}
		if task.Stats.TotalArticles != 42 {
			t.Error("统计信息应被保存")
		}
	})

	t.Run("标记中断", func(t *testing.T) {
		task2, _ := NewScrapeTask(config)
		task2.MarkStarted()
		task2.MarkInterrupted(ScrapeStats{}, "收到中断信号")
		if task2.Status != TaskStatusInterrupted {
			t.Errorf("期望状态 %s, 得到 %s", TaskStatusInterrupted, task2.Status)
		}
		if task2.ErrorMessage == "" {
			t.Error("中断原因应被记录")
		}
	})

	t.Run("非法配置创建失败", func(t *testing.T) {
		bad := validScrapeConfig()
		bad.Query = ""
		if _, err := NewScrapeTask(bad); err == nil {
			t.Error("期望配置校验失败, 但无错误")
		}
	})
}

func TestScrapeTask_JSONRoundTrip(t *testing.T) {
	task, err := NewScrapeTask(validScrapeConfig())
	if err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	task.MarkStarted()

	data, err := task.ToJSON()
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}

	var restored ScrapeTask
	if err := restored.FromJSON(data); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}

	if restored.ID != task.ID || restored.Query != task.Query || restored.Status != task.Status {
		t.Error("序列化往返后字段不一致")
	}
}
