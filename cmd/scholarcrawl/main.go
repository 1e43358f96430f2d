package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RotateLab/scholarcrawl/internal/core"
	"github.com/RotateLab/scholarcrawl/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	headersFile    string   // HTTP头部配置文件路径
	validateConfig bool     // 验证配置文件

	// 采集参数
	query           string
	yearStart       int
	yearEnd         int
	maxPages        int
	concurrency     int
	sessionRequests int
	resume          bool
)

var rootCmd = &cobra.Command{
	Use:   "scholarcrawl",
	Short: "学术文献采集与分析工具",
	Long: `ScholarCrawl - 学术搜索结果采集与文献调研工具

面向单个检索主题的文献调研工作流,支持:
  • 按年份分段的限速增量采集 (断点续采)
  • 年份区间规划 (绕过单查询结果数上限)
  • 当前年份增量更新与按URL去重合并
  • 阅读清单管理 (增删查、导出、下载、引用格式)
  • 语料统计与文本挖掘 (TF-IDF / 聚类 / 回归)

HTTP头部配置示例:
  # 通过配置文件 (configs/headers.yaml)
  scholarcrawl scrape

  # 通过命令行参数携带会话Cookie
  scholarcrawl scrape -H "Cookie: GSP=ID=xxxx"

  # 验证配置文件
  scholarcrawl --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证HTTP头部配置...")
			headerManager, err := core.NewHeaderManager(headersFile, headers)
			if err != nil {
				return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
			}
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			// 显示合并后的头部(脱敏)
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		return cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ScholarCrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("学术文献采集与分析工具")
	},
}

// loadAppConfig 加载配置并合并采集相关的命令行参数
func loadAppConfig() (*core.Config, error) {
	config, err := core.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	config.MergeCLIFlags(query, yearStart, yearEnd, maxPages, concurrency, sessionRequests, resume)
	return config, nil
}

// newHeaderManager 创建HTTP头部管理器
func newHeaderManager() (*core.HeaderManager, error) {
	hm, err := core.NewHeaderManager(headersFile, headers)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	return hm, nil
}

// signalContext 返回收到SIGINT/SIGTERM时取消的context
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		utils.Warnf("收到中断信号: %v, 正在保存进度后退出...", sig)
		cancel()
	}()

	return ctx, cancel
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().StringVar(&headersFile, "headers-config", "", "HTTP头部配置文件路径 (默认 configs/headers.yaml)")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 采集参数 (scrape/ranges/update共用)
	rootCmd.PersistentFlags().StringVarP(&query, "query", "q", "", "检索短语 (默认取配置文件)")
	rootCmd.PersistentFlags().IntVar(&yearStart, "year-start", 0, "起始年份")
	rootCmd.PersistentFlags().IntVar(&yearEnd, "year-end", 0, "结束年份 (0表示当前年)")
	rootCmd.PersistentFlags().IntVar(&maxPages, "max-pages", 0, "每年最多抓取页数")
	rootCmd.PersistentFlags().IntVar(&concurrency, "threads", 0, "并发请求数")
	rootCmd.PersistentFlags().IntVar(&sessionRequests, "session-budget", 0, "单次会话请求预算")
	rootCmd.PersistentFlags().BoolVar(&resume, "resume", true, "从进度检查点恢复")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(rangesCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(readingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
