package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RegressionResult 引用数回归结果
type RegressionResult struct {
	// FeatureNames 特征名 (第一项为截距)
	FeatureNames []string `json:"feature_names"`

	// Coefficients 回归系数 (与FeatureNames对应)
	Coefficients []float64 `json:"coefficients"`

	// R2 决定系数
	R2 float64 `json:"r2"`

	// Samples 样本数
	Samples int `json:"samples"`
}

// OLS 最小二乘线性回归
// features为 样本数×特征数 矩阵,target为因变量;内部自动添加截距列,
// 通过QR分解求解,特征共线时返回错误
func OLS(featureNames []string, features *mat.Dense, target []float64) (*RegressionResult, error) {
	rows, cols := features.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("回归样本为空")
	}
	if rows != len(target) {
		return nil, fmt.Errorf("特征行数与因变量长度不一致: %d != %d", rows, len(target))
	}
	if rows <= cols+1 {
		return nil, fmt.Errorf("样本数不足: %d 个样本无法拟合 %d 个特征", rows, cols)
	}

	// 添加截距列
	design := mat.NewDense(rows, cols+1, nil)
	for row := 0; row < rows; row++ {
		design.Set(row, 0, 1)
		for col := 0; col < cols; col++ {
			design.Set(row, col+1, features.At(row, col))
		}
	}

	y := mat.NewVecDense(rows, target)

	// QR分解求解最小二乘
	var qr mat.QR
	qr.Factorize(design)

	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, y); err != nil {
		return nil, fmt.Errorf("最小二乘求解失败 (特征可能共线): %w", err)
	}

	// 计算R²
	var fitted mat.VecDense
	fitted.MulVec(design, &coef)

	predicted := make([]float64, rows)
	for i := 0; i < rows; i++ {
		predicted[i] = fitted.AtVec(i)
	}
	r2 := stat.RSquaredFrom(predicted, target, nil)

	names := make([]string, 0, cols+1)
	names = append(names, "intercept")
	names = append(names, featureNames...)

	coefficients := make([]float64, cols+1)
	for i := range coefficients {
		coefficients[i] = coef.AtVec(i)
	}

	return &RegressionResult{
		FeatureNames: names,
		Coefficients: coefficients,
		R2:           r2,
		Samples:      rows,
	}, nil
}
