package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Scrape   models.ScrapeConfig `mapstructure:"scrape"`
	Logging  LoggingConfig       `mapstructure:"logging"`
	Output   OutputConfig        `mapstructure:"output"`
	Analysis AnalysisConfig      `mapstructure:"analysis"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	DownloadDir string `mapstructure:"download_dir"`
}

// AnalysisConfig 分析配置
type AnalysisConfig struct {
	TopKeywords int `mapstructure:"top_keywords"`
	Clusters    int `mapstructure:"clusters"`
	TopTerms    int `mapstructure:"top_terms"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".scholarcrawl"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 抓取配置默认值
	// 延迟窗口30-50秒是学术站点限流阈值下的经验值,不要轻易调低
	v.SetDefault("scrape.query", "mental rotation")
	v.SetDefault("scrape.year_start", 1950)
	v.SetDefault("scrape.year_end", 0)
	v.SetDefault("scrape.max_pages", 100)
	v.SetDefault("scrape.concurrency", 3)
	v.SetDefault("scrape.delay_min", 30)
	v.SetDefault("scrape.delay_max", 50)
	v.SetDefault("scrape.session_requests", 900)
	v.SetDefault("scrape.timeout", 30)
	v.SetDefault("scrape.resume", true)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.data_dir", "data")
	v.SetDefault("output.download_dir", "data/papers")

	// 分析配置默认值
	v.SetDefault("analysis.top_keywords", 20)
	v.SetDefault("analysis.clusters", 5)
	v.SetDefault("analysis.top_terms", 10)
}

// GetScrapeConfig 从配置中提取抓取配置
func (c *Config) GetScrapeConfig() models.ScrapeConfig {
	return c.Scrape
}

// MergeCLIFlags 合并命令行参数到配置
func (c *Config) MergeCLIFlags(
	query string,
	yearStart int,
	yearEnd int,
	maxPages int,
	concurrency int,
	sessionRequests int,
	resume bool,
) {
	// 命令行参数优先于配置文件
	if query != "" {
		c.Scrape.Query = query
	}
	if yearStart > 0 {
		c.Scrape.YearStart = yearStart
	}
	if yearEnd > 0 {
		c.Scrape.YearEnd = yearEnd
	}
	if maxPages > 0 {
		c.Scrape.MaxPages = maxPages
	}
	if concurrency > 0 {
		c.Scrape.Concurrency = concurrency
	}
	if sessionRequests > 0 {
		c.Scrape.SessionRequests = sessionRequests
	}
	c.Scrape.Resume = resume
}
