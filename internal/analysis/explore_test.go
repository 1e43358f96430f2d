package analysis

import (
	"testing"

	"github.com/RotateLab/scholarcrawl/internal/models"
)

// exploreCorpus 构造足够支撑聚类与回归的小语料
func exploreCorpus() []models.Article {
	articles := []models.Article{
		{Title: "Mental rotation chronometric experiment", Abstract: "angular disparity reaction time", Year: "1971", Authors: "A One, B Two", Citations: 5000},
		{Title: "Mental rotation chronometric paradigm", Abstract: "angular disparity response latency", Year: "1975", Authors: "C Three", Citations: 3000},
		{Title: "Mental rotation angular disparity", Abstract: "chronometric reaction latency", Year: "1980", Authors: "D Four, E Five", Citations: 2000},
		{Title: "Hippocampus spatial navigation neurons", Abstract: "firing recording place cells", Year: "1990", Authors: "F Six", Citations: 1500},
		{Title: "Hippocampus neurons firing recording", Abstract: "navigation place cells", Year: "1995", Authors: "G Seven, H Eight", Citations: 800},
		{Title: "Hippocampus place cells navigation", Abstract: "neurons firing recording", Year: "2000", Authors: "I Nine", Citations: 400},
		{Title: "Spatial working memory capacity", Abstract: "individual differences span", Year: "2005", Authors: "J Ten", Citations: 300},
		{Title: "Working memory span differences", Abstract: "capacity individual measurement", Year: "2010", Authors: "K Eleven, L Twelve", Citations: 150},
	}
	return articles
}

func TestExplore(t *testing.T) {
	result, err := Explore(exploreCorpus(), ExploreOptions{
		TopKeywords: 5,
		Clusters:    2,
		TopTerms:    3,
		Seed:        42,
	})
	if err != nil {
		t.Fatalf("分析失败: %v", err)
	}

	t.Run("关键词提取", func(t *testing.T) {
		if len(result.Keywords) == 0 {
			t.Fatal("应提取到关键词")
		}
		if len(result.Keywords) > 5 {
			t.Errorf("关键词数量不应超过上限: %d", len(result.Keywords))
		}
		for i := 1; i < len(result.Keywords); i++ {
			if result.Keywords[i].Weight > result.Keywords[i-1].Weight {
				t.Error("关键词应按权重降序")
			}
		}
	})

	t.Run("主题聚类", func(t *testing.T) {
		if len(result.Clusters) != 2 {
			t.Fatalf("期望2个聚类, 得到%d个", len(result.Clusters))
		}
		total := 0
		for _, c := range result.Clusters {
			total += c.Size
			if c.MeanCitations <= 0 {
				t.Errorf("聚类%d平均被引应为正: %.1f", c.ID, c.MeanCitations)
			}
			if float64(c.MaxCitations) < c.MeanCitations {
				t.Errorf("聚类%d最大被引不应小于均值", c.ID)
			}
		}
		if total != 8 {
			t.Errorf("聚类覆盖全部文档, 期望8, 得到%d", total)
		}
	})

	t.Run("引用数回归", func(t *testing.T) {
		if result.Regression == nil {
			t.Fatal("样本充足时应产出回归结果")
		}
		if result.Regression.Samples != 8 {
			t.Errorf("回归样本数期望8, 得到%d", result.Regression.Samples)
		}
		if len(result.Regression.FeatureNames) != 4 {
			t.Errorf("特征名应含截距共4项: %v", result.Regression.FeatureNames)
		}
	})
}

func TestExplore_EmptyCorpus(t *testing.T) {
	if _, err := Explore(nil, ExploreOptions{}); err == nil {
		t.Error("空语料应返回错误")
	}
}

func TestExplore_RegressionSkippedWithoutYears(t *testing.T) {
	articles := []models.Article{
		{Title: "one mental rotation study example", Abstract: "angular disparity", Year: models.FieldNA, Citations: 10},
		{Title: "two mental rotation study example", Abstract: "angular disparity", Year: models.FieldNA, Citations: 20},
		{Title: "three mental rotation study example", Abstract: "angular disparity", Year: models.FieldNA, Citations: 30},
	}

	result, err := Explore(articles, ExploreOptions{Clusters: 1, Seed: 1})
	if err != nil {
		t.Fatalf("分析失败: %v", err)
	}
	if result.Regression != nil {
		t.Error("无年份样本时回归应被跳过")
	}
}
