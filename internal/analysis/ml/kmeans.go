package ml

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	// kmeansMaxIter 最大迭代次数
	kmeansMaxIter = 100

	// kmeansTolerance 质心移动收敛阈值
	kmeansTolerance = 1e-6
)

// Cluster 一个聚类及其摘要
type Cluster struct {
	// ID 聚类编号
	ID int `json:"id"`

	// Size 成员文档数
	Size int `json:"size"`

	// Members 成员文档索引
	Members []int `json:"members"`

	// TopTerms 质心权重最高的词,作为该主题的摘要
	TopTerms []TermWeight `json:"top_terms"`
}

// KMeans 对TF-IDF矩阵的行向量做k-means聚类
// 返回每个文档的聚类标签与各聚类摘要;向量已L2归一化,
// 欧氏距离与余弦相似度单调等价
func KMeans(matrix *mat.Dense, vectorizer *Vectorizer, k, topTerms int, seed int64) ([]int, []Cluster) {
	rows, cols := matrix.Dims()
	if rows == 0 || cols == 0 || k < 1 {
		return nil, nil
	}
	if k > rows {
		k = rows
	}

	rng := rand.New(rand.NewSource(seed))

	// 初始化: 随机选k个不同的文档作为初始质心
	centroids := mat.NewDense(k, cols, nil)
	perm := rng.Perm(rows)
	for i := 0; i < k; i++ {
		centroids.SetRow(i, mat.Row(nil, perm[i], matrix))
	}

	labels := make([]int, rows)

	for iter := 0; iter < kmeansMaxIter; iter++ {
		// 分配: 每个文档归入最近的质心
		for row := 0; row < rows; row++ {
			labels[row] = nearestCentroid(matrix, centroids, row, k)
		}

		// 更新: 重新计算质心
		newCentroids := mat.NewDense(k, cols, nil)
		counts := make([]int, k)
		for row := 0; row < rows; row++ {
			c := labels[row]
			counts[c]++
			for col := 0; col < cols; col++ {
				newCentroids.Set(c, col, newCentroids.At(c, col)+matrix.At(row, col))
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// 空聚类: 用随机文档重新播种
				newCentroids.SetRow(c, mat.Row(nil, rng.Intn(rows), matrix))
				continue
			}
			for col := 0; col < cols; col++ {
				newCentroids.Set(c, col, newCentroids.At(c, col)/float64(counts[c]))
			}
		}

		// 收敛判定: 质心移动距离
		shift := 0.0
		for c := 0; c < k; c++ {
			for col := 0; col < cols; col++ {
				d := newCentroids.At(c, col) - centroids.At(c, col)
				shift += d * d
			}
		}
		centroids = newCentroids
		if shift < kmeansTolerance {
			break
		}
	}

	// 构建聚类摘要
	clusters := make([]Cluster, k)
	for c := 0; c < k; c++ {
		clusters[c] = Cluster{ID: c, Members: make([]int, 0)}
	}
	for row, label := range labels {
		clusters[label].Members = append(clusters[label].Members, row)
	}
	for c := 0; c < k; c++ {
		clusters[c].Size = len(clusters[c].Members)
		clusters[c].TopTerms = centroidTopTerms(centroids, vectorizer, c, topTerms)
	}

	// 大聚类在前
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Size > clusters[j].Size })
	return labels, clusters
}

// nearestCentroid 返回距离指定行最近的质心编号
func nearestCentroid(matrix, centroids *mat.Dense, row, k int) int {
	_, cols := matrix.Dims()
	best := 0
	bestDist := math.MaxFloat64

	for c := 0; c < k; c++ {
		dist := 0.0
		for col := 0; col < cols; col++ {
			d := matrix.At(row, col) - centroids.At(c, col)
			dist += d * d
		}
		if dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best
}

// centroidTopTerms 取质心向量中权重最高的词
func centroidTopTerms(centroids *mat.Dense, vectorizer *Vectorizer, c, n int) []TermWeight {
	if vectorizer == nil || len(vectorizer.Terms) == 0 {
		return nil
	}

	_, cols := centroids.Dims()
	weights := make([]TermWeight, 0, cols)
	for col := 0; col < cols && col < len(vectorizer.Terms); col++ {
		w := centroids.At(c, col)
		if w > 0 {
			weights = append(weights, TermWeight{Term: vectorizer.Terms[col], Weight: w})
		}
	}

	sort.Slice(weights, func(i, j int) bool { return weights[i].Weight > weights[j].Weight })
	if len(weights) > n {
		weights = weights[:n]
	}
	return weights
}
