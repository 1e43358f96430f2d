package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	// unsafeFilenameChars 文件名中不允许出现的字符
	unsafeFilenameChars = regexp.MustCompile(`[^\w\s\-.]`)

	// multiSpace 连续空白字符
	multiSpace = regexp.MustCompile(`\s+`)
)

// SafeFilename 将文献标题转换为安全的文件名
// 移除非法字符,压缩空白为下划线,并截断至maxLen字符
func SafeFilename(title string, maxLen int) string {
	name := unsafeFilenameChars.ReplaceAllString(title, "")
	name = strings.TrimSpace(name)
	name = multiSpace.ReplaceAllString(name, "_")

	if maxLen > 0 && len(name) > maxLen {
		name = name[:maxLen]
		name = strings.TrimRight(name, "_.")
	}

	if name == "" {
		name = "untitled"
	}
	return name
}

// EnsureDir 确保目录存在,不存在则创建
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
	}
	return nil
}

// FileExists 检查文件是否存在且不是目录
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// WriteFileAtomic 原子写入文件 (先写临时文件再重命名)
// 避免写入中途被中断导致数据文件损坏
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("写入临时文件失败: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("重命名临时文件失败: %w", err)
	}
	return nil
}

// TruncateString 截断字符串并追加省略号 (用于表格/日志显示)
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatDuration 格式化持续时间为可读字符串
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1f秒", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1f分钟", d.Minutes())
	}
	return fmt.Sprintf("%.1f小时", d.Hours())
}
