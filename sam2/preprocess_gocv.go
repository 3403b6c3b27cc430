//go:build gocv
// +build gocv

package sam2

import (
	"fmt"
	"image"

	"github.com/getcharzp/go-segment/internal/parallel"
	"gocv.io/x/gocv"
)

// preprocessMat OpenCV 图像预处理, Mat 为 BGR 通道顺序
func preprocessMat(mat gocv.Mat, size Size, workers int) ([]float32, error) {
	if mat.Empty() {
		return nil, ErrEmptyImage
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(size.W, size.H), 0, 0, gocv.InterpolationLinear)

	// 模型按 RGB 训练, OpenCV 解码结果为 BGR, 需要显式交换
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)

	scaled := gocv.NewMat()
	defer scaled.Close()
	rgb.ConvertToWithParams(&scaled, gocv.MatTypeCV32FC3, 1.0/255.0, 0)

	pix, err := scaled.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("读取 Mat 数据失败: %w", err)
	}

	var invStd [3]float32
	for c := range invStd {
		invStd[c] = 1 / pixelStd[c]
	}

	plane := size.W * size.H
	data := make([]float32, 3*plane)
	parallel.For(size.H, workers, func(y int) {
		for x := 0; x < size.W; x++ {
			src := (y*size.W + x) * 3
			idx := y*size.W + x
			for c := 0; c < 3; c++ {
				data[c*plane+idx] = (pix[src+c] - pixelMean[c]) * invStd[c]
			}
		}
	})
	return data, nil
}

// EncodeMat 对 OpenCV 图像做特征提取
func (e *Engine) EncodeMat(mat gocv.Mat) (*ImageContext, error) {
	if mat.Empty() {
		return nil, ErrEmptyImage
	}
	orig := Size{W: mat.Cols(), H: mat.Rows()}
	return e.encode(orig, func(size Size) ([]float32, error) {
		return preprocessMat(mat, size, e.config.NumWorkers)
	})
}

// PredictMat 对 OpenCV 图像执行完整的分割流程
func (e *Engine) PredictMat(mat gocv.Mat, positive, negative []Shape) ([]MaskResult, error) {
	if mat.Empty() {
		return nil, ErrEmptyImage
	}
	if len(positive) == 0 {
		return nil, ErrNoPositivePrompt
	}
	imgCtx, err := e.EncodeMat(mat)
	if err != nil {
		return nil, err
	}
	defer imgCtx.Destroy()
	return imgCtx.Predict(positive, negative)
}
