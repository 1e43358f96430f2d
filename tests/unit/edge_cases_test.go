package unit

import (
	"strings"
	"testing"

	"github.com/RotateLab/scholarcrawl/internal/models"
)

func TestCliHeaders_Parse(t *testing.T) {
	tests := []struct {
		name        string
		input       models.CliHeaders
		expectError bool
		checkName   string
		checkValue  string
	}{
		{"空列表", models.CliHeaders{}, false, "", ""},
		{"nil列表", nil, false, "", ""},
		{"标准格式", models.CliHeaders{"User-Agent: Test/1.0"}, false, "User-Agent", "Test/1.0"},
		{"无空格格式", models.CliHeaders{"User-Agent:Test/1.0"}, false, "User-Agent", "Test/1.0"},
		{"多余空格被去除", models.CliHeaders{"  X-Custom  :   value   "}, false, "X-Custom", "value"},
		{"值中包含冒号", models.CliHeaders{"Referer: https://scholar.google.com/scholar"}, false, "Referer", "https://scholar.google.com/scholar"},
		{"值为空", models.CliHeaders{"X-Empty:"}, false, "X-Empty", ""},
		{"缺少冒号", models.CliHeaders{"InvalidHeader"}, true, "", ""},
		{"名称为空", models.CliHeaders{": value"}, true, "", ""},
		{"仅冒号", models.CliHeaders{":"}, true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, err := tt.input.Parse()
			if (err != nil) != tt.expectError {
				t.Fatalf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
			if err != nil {
				return
			}

			if tt.checkName != "" {
				if got := headers.Get(tt.checkName); got != tt.checkValue {
					t.Errorf("头部 %s 期望值 '%s', 得到 '%s'", tt.checkName, tt.checkValue, got)
				}
			}
		})
	}
}

func TestCliHeaders_Parse_ValueEmptyButPresent(t *testing.T) {
	// http.Header.Get 对空值和不存在的头部都返回"", 需用map确认键存在
	headers, err := models.CliHeaders{"X-Empty:"}.Parse()
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	if _, ok := headers["X-Empty"]; !ok {
		t.Error("值为空的头部仍应保留键")
	}
}

func TestCliHeaders_Parse_LaterOverridesEarlier(t *testing.T) {
	headers, err := models.CliHeaders{
		"X-Dup: first",
		"X-Dup: second",
	}.Parse()
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	if got := headers.Get("X-Dup"); got != "second" {
		t.Errorf("重复头部应后者覆盖前者, 得到 '%s'", got)
	}
}

func TestValidationError_Format(t *testing.T) {
	t.Run("带建议的错误信息", func(t *testing.T) {
		err := &models.ValidationError{
			Field:      "name",
			HeaderName: "User Agent",
			Reason:     "名称包含非法字符",
			Suggestion: "使用连字符代替空格",
		}

		msg := err.Error()
		if msg == "" {
			t.Fatal("错误信息不应为空")
		}
		if !strings.Contains(msg, "User Agent") || !strings.Contains(msg, "建议") {
			t.Errorf("错误信息应包含头部名称和建议: '%s'", msg)
		}
	})

	t.Run("无建议的错误信息", func(t *testing.T) {
		err := &models.ValidationError{
			Field:      "value",
			HeaderName: "X-Bad",
			Reason:     "值包含控制字符",
		}

		if strings.Contains(err.Error(), "建议") {
			t.Errorf("无建议时不应出现建议字样: '%s'", err.Error())
		}
	})
}
