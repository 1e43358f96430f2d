// Package ml 提供语料文本挖掘: TF-IDF向量化、k-means聚类与引用数回归。
// 数值计算基于gonum,规模为个人语料级别 (数千篇),不做稀疏优化。
package ml

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	// tokenRegex 提取英文词元 (3个字母以上)
	tokenRegex = regexp.MustCompile(`[a-z]{3,}`)

	// stopwords 英文停用词 + 检索领域的无信息高频词
	stopwords = map[string]bool{
		"the": true, "and": true, "for": true, "with": true, "that": true,
		"this": true, "from": true, "are": true, "was": true, "were": true,
		"been": true, "not": true, "but": true, "can": true,
		"all": true, "its": true, "has": true, "had": true, "have": true,
		"more": true, "than": true, "between": true, "during": true,
		"these": true, "their": true, "which": true, "into": true,
		"such": true, "also": true, "both": true, "each": true,
		"other": true, "using": true, "used": true, "use": true,
		"two": true, "one": true, "may": true, "our": true, "new": true,
		"results": true, "study": true, "studies": true, "effect": true,
		"effects": true, "task": true, "tasks": true, "test": true,
	}
)

// Tokenize 将文本切分为小写词元并过滤停用词
func Tokenize(text string) []string {
	tokens := tokenRegex.FindAllString(strings.ToLower(text), -1)
	result := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopwords[t] {
			result = append(result, t)
		}
	}
	return result
}

// Vectorizer TF-IDF向量化器
type Vectorizer struct {
	// Vocabulary 词表: 词 -> 列索引
	Vocabulary map[string]int

	// Terms 列索引 -> 词 (词表的逆映射)
	Terms []string

	// idf 每个词的逆文档频率
	idf []float64

	// MinDocFreq 词的最小文档频率 (低于此值的词不进词表)
	MinDocFreq int

	// MaxFeatures 词表上限 (按文档频率取前N个)
	MaxFeatures int
}

// NewVectorizer 创建向量化器
func NewVectorizer(minDocFreq, maxFeatures int) *Vectorizer {
	if minDocFreq < 1 {
		minDocFreq = 1
	}
	if maxFeatures < 1 {
		maxFeatures = 1000
	}
	return &Vectorizer{
		MinDocFreq:  minDocFreq,
		MaxFeatures: maxFeatures,
	}
}

// FitTransform 构建词表并计算TF-IDF矩阵
// 返回 文档数×词表大小 的稠密矩阵,行向量做了L2归一化
func (v *Vectorizer) FitTransform(docs []string) *mat.Dense {
	tokenized := make([][]string, len(docs))
	docFreq := make(map[string]int)

	for i, doc := range docs {
		tokenized[i] = Tokenize(doc)
		seen := make(map[string]bool)
		for _, t := range tokenized[i] {
			if !seen[t] {
				seen[t] = true
				docFreq[t]++
			}
		}
	}

	// 按文档频率筛选词表
	type termFreq struct {
		term string
		freq int
	}
	candidates := make([]termFreq, 0, len(docFreq))
	for term, freq := range docFreq {
		if freq >= v.MinDocFreq {
			candidates = append(candidates, termFreq{term, freq})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].freq != candidates[j].freq {
			return candidates[i].freq > candidates[j].freq
		}
		return candidates[i].term < candidates[j].term
	})
	if len(candidates) > v.MaxFeatures {
		candidates = candidates[:v.MaxFeatures]
	}

	v.Vocabulary = make(map[string]int, len(candidates))
	v.Terms = make([]string, len(candidates))
	v.idf = make([]float64, len(candidates))
	n := float64(len(docs))
	for i, c := range candidates {
		v.Vocabulary[c.term] = i
		v.Terms[i] = c.term
		// 平滑IDF,与常见实现保持一致
		v.idf[i] = math.Log((n+1)/(float64(c.freq)+1)) + 1
	}

	// 构建TF-IDF矩阵
	matrix := mat.NewDense(len(docs), max(len(candidates), 1), nil)
	for i, tokens := range tokenized {
		counts := make(map[int]int)
		for _, t := range tokens {
			if col, ok := v.Vocabulary[t]; ok {
				counts[col]++
			}
		}
		if len(counts) == 0 {
			continue
		}

		norm := 0.0
		for col, count := range counts {
			tfidf := float64(count) * v.idf[col]
			matrix.Set(i, col, tfidf)
			norm += tfidf * tfidf
		}

		// L2归一化
		if norm > 0 {
			norm = math.Sqrt(norm)
			for col := range counts {
				matrix.Set(i, col, matrix.At(i, col)/norm)
			}
		}
	}

	return matrix
}

// TopTerms 返回整个语料中TF-IDF权重之和最高的前N个词
func (v *Vectorizer) TopTerms(matrix *mat.Dense, n int) []TermWeight {
	if len(v.Terms) == 0 {
		return nil
	}

	rows, cols := matrix.Dims()
	weights := make([]TermWeight, cols)
	for col := 0; col < cols; col++ {
		sum := 0.0
		for row := 0; row < rows; row++ {
			sum += matrix.At(row, col)
		}
		weights[col] = TermWeight{Term: v.Terms[col], Weight: sum}
	}

	sort.Slice(weights, func(i, j int) bool { return weights[i].Weight > weights[j].Weight })
	if len(weights) > n {
		weights = weights[:n]
	}
	return weights
}

// TermWeight 词及其权重
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
