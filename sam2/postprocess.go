package sam2

import (
	"fmt"
	"image"
	"math"

	"github.com/getcharzp/go-segment/internal/parallel"
)

// checkMaskOutputs 校验 logits [1, N, h, w] 与 scores 的 N 一致
func checkMaskOutputs(logits, scores *Tensor) (numMasks, h, w int, err error) {
	if logits == nil || scores == nil {
		return 0, 0, 0, &ShapeError{Tensor: "decoder outputs", Want: "logits 与 scores"}
	}
	if len(logits.Shape) != 4 || logits.Shape[0] != 1 {
		return 0, 0, 0, &ShapeError{Tensor: "mask logits", Want: "[1, N, H, W]", Got: logits.Shape}
	}
	numMasks, h, w = int(logits.Shape[1]), int(logits.Shape[2]), int(logits.Shape[3])
	if len(logits.Data) != numMasks*h*w {
		return 0, 0, 0, &ShapeError{Tensor: "mask logits", Want: fmt.Sprintf("%d 个元素, 实际 %d", numMasks*h*w, len(logits.Data)), Got: logits.Shape}
	}

	want := fmt.Sprintf("[%d] 或 [1, %d]", numMasks, numMasks)
	if len(scores.Shape) == 0 || scores.Shape[len(scores.Shape)-1] != int64(numMasks) ||
		numElements(scores.Shape) != numMasks || len(scores.Data) != numMasks {
		return 0, 0, 0, &ShapeError{Tensor: "scores", Want: want, Got: scores.Shape}
	}
	return numMasks, h, w, nil
}

// Postprocess 将 Mask logits 转换为原图尺寸的 Mask
//
// # Params:
//
//	logits: Decoder 输出 [1, N, h, w]
//	scores: 每个 Mask 的置信度, 长度为 N
//	threshold: logit 大于该值为前景
//	orig: 原图尺寸
//	workers: 并行 worker 数
//
// 先二值化再线性插值缩放, 边缘像素会出现 0~255 之间的值, 需要严格二值时使用 MaskResult.Binary。
// 结果顺序与通道顺序一致。
func Postprocess(logits, scores *Tensor, threshold float32, orig Size, workers int) ([]MaskResult, error) {
	if orig.Empty() {
		return nil, fmt.Errorf("sam2: 原图尺寸无效 %v", orig)
	}
	numMasks, h, w, err := checkMaskOutputs(logits, scores)
	if err != nil {
		return nil, err
	}

	plane := h * w
	results := make([]MaskResult, numMasks)
	for i := 0; i < numMasks; i++ {
		mask := binarize(logits.Data[i*plane:(i+1)*plane], w, h, threshold, workers)
		results[i] = MaskResult{
			Mask:  resizeLinear(mask, orig, workers),
			Score: scores.Data[i],
		}
	}
	return results, nil
}

// binarize 按行并行二值化, 前景 255, 背景 0
func binarize(logits []float32, w, h int, threshold float32, workers int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	parallel.For(h, workers, func(y int) {
		src := logits[y*w : (y+1)*w]
		dst := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, v := range src {
			if v > threshold {
				dst[x] = 255
			} else {
				dst[x] = 0
			}
		}
	})
	return mask
}

// axisWeights 目标坐标到源坐标的映射, 像素中心对齐
//
// 返回每个目标位置的左侧源下标与右侧权重。
func axisWeights(srcLen, dstLen int) ([]int, []float32) {
	idx := make([]int, dstLen)
	frac := make([]float32, dstLen)
	scale := float64(srcLen) / float64(dstLen)
	for d := 0; d < dstLen; d++ {
		f := (float64(d)+0.5)*scale - 0.5
		s := int(math.Floor(f))
		f -= float64(s)
		if s < 0 {
			s, f = 0, 0
		}
		if s >= srcLen-1 {
			s, f = srcLen-1, 0
		}
		idx[d] = s
		frac[d] = float32(f)
	}
	return idx, frac
}

// resizeLinear 双线性插值缩放单通道 Mask
func resizeLinear(src *image.Gray, dst Size, workers int) *image.Gray {
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, dst.W, dst.H))
	if sw == 0 || sh == 0 {
		return out
	}

	xs, fxs := axisWeights(sw, dst.W)
	ys, fys := axisWeights(sh, dst.H)

	parallel.For(dst.H, workers, func(y int) {
		sy, fy := ys[y], fys[y]
		sy1 := min(sy+1, sh-1)
		row0 := src.Pix[sy*src.Stride:]
		row1 := src.Pix[sy1*src.Stride:]
		dstRow := out.Pix[y*out.Stride : y*out.Stride+dst.W]
		for x := range dstRow {
			sx, fx := xs[x], fxs[x]
			sx1 := min(sx+1, sw-1)
			top := float32(row0[sx])*(1-fx) + float32(row0[sx1])*fx
			bottom := float32(row1[sx])*(1-fx) + float32(row1[sx1])*fx
			dstRow[x] = uint8(top*(1-fy) + bottom*fy + 0.5)
		}
	})
	return out
}
