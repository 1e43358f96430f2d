package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/RotateLab/scholarcrawl/internal/models"
	"github.com/RotateLab/scholarcrawl/internal/scholar"
	"github.com/RotateLab/scholarcrawl/internal/store"
	"github.com/RotateLab/scholarcrawl/internal/utils"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	readingTitle   string
	readingAuthors string
	readingURL     string
	readingYear    string
	readingTags    []string
	readingNotes   string
	readingPaywall bool
	readingTag     string
	citeFormat     string
	importTop      int
	importTags     []string
	downloadURL    string
	downloadIndex  int
)

var readingCmd = &cobra.Command{
	Use:   "reading",
	Short: "阅读清单管理",
	Long: `管理文献调研的阅读清单 (data/reading_list.json)。

清单整体存于一个JSON文件,条目按URL去重。支持增删查、
按标签过滤、导出链接、批量下载正文与生成引用格式。

示例:
  scholarcrawl reading list
  scholarcrawl reading add -t "Mental rotation of three-dimensional objects" -a "Shepard, Metzler" -l "https://..." -y 1971
  scholarcrawl reading remove 3
  scholarcrawl reading search rotation
  scholarcrawl reading cite --format bibtex
  scholarcrawl reading download`,
}

var readingListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出清单条目",
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := openReadingStore()
		if err != nil {
			return err
		}

		list, err := rs.Load()
		if err != nil {
			return err
		}

		entries := list.Entries
		if readingTag != "" {
			entries = list.FilterByTag(readingTag)
		}

		renderEntries(entries)
		utils.Infof("共 %d 条", len(entries))
		return nil
	},
}

var readingAddCmd = &cobra.Command{
	Use:   "add",
	Short: "添加条目",
	RunE: func(cmd *cobra.Command, args []string) error {
		if readingTitle == "" {
			return fmt.Errorf("标题不能为空 (-t)")
		}

		rs, err := openReadingStore()
		if err != nil {
			return err
		}

		entry := models.NewReadingEntry(readingTitle, readingAuthors, readingURL)
		if readingYear != "" {
			entry.Year = readingYear
		}
		entry.Tags = append(entry.Tags, readingTags...)
		entry.Notes = readingNotes
		entry.Paywall = readingPaywall

		return rs.Add(entry)
	},
}

var readingRemoveCmd = &cobra.Command{
	Use:   "remove <序号>",
	Short: "按序号删除条目",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("序号必须是数字: %s", args[0])
		}

		rs, err := openReadingStore()
		if err != nil {
			return err
		}

		_, err = rs.Remove(index)
		return err
	},
}

var readingSearchCmd = &cobra.Command{
	Use:   "search <关键词>",
	Short: "搜索标题、作者与标签",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := openReadingStore()
		if err != nil {
			return err
		}

		matched, err := rs.Search(args[0])
		if err != nil {
			return err
		}

		renderEntries(matched)
		utils.Infof("匹配 %d 条", len(matched))
		return nil
	},
}

var readingImportCmd = &cobra.Command{
	Use:   "import <关键词>",
	Short: "从语料检索文献并导入清单",
	Long: `在最新语料的标题与摘要中检索关键词,按被引次数降序展示
匹配结果,并把前N篇 (--top) 导入阅读清单,按URL去重。

示例:
  scholarcrawl reading import "angular disparity" --top 5
  scholarcrawl reading import chronometric --top 3 --add-tag 经典范式`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadAppConfig()
		if err != nil {
			return err
		}

		corpus := store.NewCorpusStore(config.Output.DataDir)
		articles, path, err := corpus.LoadLatest(config.Scrape.Query)
		if err != nil {
			return err
		}
		utils.Infof("📂 已加载语料: %s (%d 篇)", path, len(articles))

		matched := searchCorpus(articles, args[0])
		if len(matched) == 0 {
			utils.Warnf("语料中没有匹配 '%s' 的文献", args[0])
			return nil
		}

		if importTop > 0 && len(matched) > importTop {
			matched = matched[:importTop]
		}
		renderArticles(matched)

		rs := store.NewReadingListStore(config.Output.DataDir)
		added, err := rs.ImportArticles(matched, importTags)
		if err != nil {
			return err
		}
		utils.Infof("✅ 已导入 %d 篇新文献 (匹配 %d 篇, 重复跳过 %d 篇)",
			added, len(matched), len(matched)-added)
		return nil
	},
}

var readingLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "为条目补充检索链接",
	Long: `为清单中缺少检索链接的条目生成按标题精确短语查询的
搜索引擎URL,并写回清单文件。已有链接的条目保持不变。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := openReadingStore()
		if err != nil {
			return err
		}

		list, err := rs.Load()
		if err != nil {
			return err
		}
		if len(list.Entries) == 0 {
			utils.Warn("阅读清单为空")
			return nil
		}

		filled := list.FillScholarURLs(scholar.TitleSearchURL)
		if filled == 0 {
			utils.Info("所有条目已有检索链接")
			return nil
		}

		if err := rs.Save(list); err != nil {
			return err
		}
		utils.Infof("✅ 已为 %d 条补充检索链接", filled)
		return nil
	},
}

var readingExportCmd = &cobra.Command{
	Use:   "export [输出文件]",
	Short: "导出所有条目的URL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadAppConfig()
		if err != nil {
			return err
		}

		outPath := filepath.Join(config.Output.DataDir, "reading_list_urls.txt")
		if len(args) > 0 {
			outPath = args[0]
		}

		rs := store.NewReadingListStore(config.Output.DataDir)
		count, err := rs.ExportURLs(outPath)
		if err != nil {
			return err
		}

		utils.Infof("✅ 已导出 %d 个URL到 %s", count, outPath)
		return nil
	},
}

var readingDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "下载清单中文献的正文",
	Long: `逐篇下载清单条目的正文 (PDF或HTML快照)。

默认下载整个清单;--url或--index可只下载单个条目。
跳过无URL和标记为付费墙的条目,两次下载间随机暂停数秒。
文件按 "年份_标题.扩展名" 保存到下载目录。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadAppConfig()
		if err != nil {
			return err
		}

		headerManager, err := newHeaderManager()
		if err != nil {
			return err
		}

		rs := store.NewReadingListStore(config.Output.DataDir)
		list, err := rs.Load()
		if err != nil {
			return err
		}
		if len(list.Entries) == 0 {
			utils.Warn("阅读清单为空")
			return nil
		}

		entries, err := selectDownloadEntries(list)
		if err != nil {
			return err
		}

		downloader, err := scholar.NewDownloader(config.Output.DownloadDir, headerManager)
		if err != nil {
			return fmt.Errorf("创建下载器失败: %w", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		results := downloader.DownloadAll(ctx, entries)

		ok, skipped, failed := 0, 0, 0
		for _, r := range results {
			switch {
			case r.Err != nil:
				failed++
			case r.Skipped:
				skipped++
			default:
				ok++
			}
		}
		utils.Infof("✨ 下载完成: 成功 %d, 跳过 %d, 失败 %d", ok, skipped, failed)
		return nil
	},
}

var readingCiteCmd = &cobra.Command{
	Use:   "cite",
	Short: "生成引用格式",
	Long: `为清单中所有条目生成引用格式并写回清单文件。

支持 apa / chicago / bibtex / markdown 四种格式,
--format all 时全部生成。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := openReadingStore()
		if err != nil {
			return err
		}

		list, err := rs.Load()
		if err != nil {
			return err
		}
		if len(list.Entries) == 0 {
			utils.Warn("阅读清单为空")
			return nil
		}

		format := strings.ToLower(citeFormat)
		for _, entry := range list.Entries {
			entry.GenerateCitations()

			if format == "all" {
				for _, f := range []string{models.CiteAPA, models.CiteChicago, models.CiteBibTeX, models.CiteMarkdown} {
					fmt.Println(entry.FormattedCitations[f])
				}
				fmt.Println()
				continue
			}

			citation, ok := entry.FormattedCitations[format]
			if !ok {
				return fmt.Errorf("未知的引用格式: %s (有效值: apa, chicago, bibtex, markdown, all)", citeFormat)
			}
			fmt.Println(citation)
			fmt.Println()
		}

		if err := rs.Save(list); err != nil {
			return err
		}
		utils.Infof("✅ 引用格式已写回清单 (%d 条)", len(list.Entries))
		return nil
	},
}

// selectDownloadEntries 按--url/--index筛选待下载条目,默认全部
func selectDownloadEntries(list *models.ReadingList) ([]*models.ReadingEntry, error) {
	switch {
	case downloadURL != "":
		for _, e := range list.Entries {
			if e.URL == downloadURL {
				return []*models.ReadingEntry{e}, nil
			}
		}
		return nil, fmt.Errorf("清单中没有URL为 %s 的条目", downloadURL)
	case downloadIndex > 0:
		if downloadIndex > len(list.Entries) {
			return nil, fmt.Errorf("序号 %d 超出范围 (共 %d 条)", downloadIndex, len(list.Entries))
		}
		return []*models.ReadingEntry{list.Entries[downloadIndex-1]}, nil
	default:
		return list.Entries, nil
	}
}

// searchCorpus 在标题与摘要中做大小写不敏感匹配,按被引次数降序返回
func searchCorpus(articles []models.Article, keyword string) []models.Article {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil
	}

	var matched []models.Article
	for _, a := range articles {
		text := strings.ToLower(a.Title)
		if a.Abstract != "" && a.Abstract != models.FieldNA {
			text += " " + strings.ToLower(a.Abstract)
		}
		if strings.Contains(text, needle) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Citations > matched[j].Citations })
	return matched
}

// renderArticles 以表格形式输出语料检索结果
func renderArticles(articles []models.Article) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "标题", "年份", "被引", "URL"})
	for i, a := range articles {
		t.AppendRow(table.Row{
			i + 1,
			utils.TruncateString(a.Title, 50),
			a.Year,
			a.Citations,
			utils.TruncateString(a.URL, 40),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// openReadingStore 按配置打开阅读清单存储
func openReadingStore() (*store.ReadingListStore, error) {
	config, err := loadAppConfig()
	if err != nil {
		return nil, err
	}
	return store.NewReadingListStore(config.Output.DataDir), nil
}

// renderEntries 以表格形式输出清单条目
func renderEntries(entries []*models.ReadingEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "标题", "作者", "年份", "被引", "标签", "付费墙"})

	for i, e := range entries {
		paywall := ""
		if e.Paywall {
			paywall = "是"
		}
		t.AppendRow(table.Row{
			i + 1,
			utils.TruncateString(e.Title, 50),
			utils.TruncateString(e.Authors, 30),
			e.Year,
			e.Citations,
			strings.Join(e.Tags, ","),
			paywall,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func init() {
	readingAddCmd.Flags().StringVarP(&readingTitle, "title", "t", "", "标题 (必需)")
	readingAddCmd.Flags().StringVarP(&readingAuthors, "authors", "a", "", "作者")
	readingAddCmd.Flags().StringVarP(&readingURL, "link", "l", "", "文献URL")
	readingAddCmd.Flags().StringVarP(&readingYear, "year", "y", "", "发表年份")
	readingAddCmd.Flags().StringSliceVar(&readingTags, "tag", []string{}, "标签,可多次指定")
	readingAddCmd.Flags().StringVar(&readingNotes, "notes", "", "笔记")
	readingAddCmd.Flags().BoolVar(&readingPaywall, "paywall", false, "标记为付费墙")

	readingListCmd.Flags().StringVar(&readingTag, "tag", "", "按标签过滤")

	readingImportCmd.Flags().IntVar(&importTop, "top", 10, "导入被引最高的前N篇")
	readingImportCmd.Flags().StringSliceVar(&importTags, "add-tag", []string{}, "为导入条目附加标签,可多次指定")

	readingDownloadCmd.Flags().StringVar(&downloadURL, "url", "", "只下载指定URL的条目")
	readingDownloadCmd.Flags().IntVar(&downloadIndex, "index", 0, "只下载指定序号的条目")

	readingCiteCmd.Flags().StringVar(&citeFormat, "format", "apa", "引用格式 (apa|chicago|bibtex|markdown|all)")

	readingCmd.AddCommand(readingListCmd)
	readingCmd.AddCommand(readingAddCmd)
	readingCmd.AddCommand(readingRemoveCmd)
	readingCmd.AddCommand(readingSearchCmd)
	readingCmd.AddCommand(readingImportCmd)
	readingCmd.AddCommand(readingLinkCmd)
	readingCmd.AddCommand(readingExportCmd)
	readingCmd.AddCommand(readingDownloadCmd)
	readingCmd.AddCommand(readingCiteCmd)
}
