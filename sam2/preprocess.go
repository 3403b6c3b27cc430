package sam2

import (
	"image"
	"image/color"

	"github.com/getcharzp/go-segment/internal/parallel"
	"golang.org/x/image/draw"
)

// preprocess 缩放、归一化并转换为 CHW 布局
//
// # Params:
//
//	img: 原图, 不会被修改
//	size: 编码器输入尺寸
//	workers: 并行行数
//
// 返回 [1, 3, H, W] 的张量数据。
func preprocess(img image.Image, size Size, workers int) ([]float32, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	// 线性插值缩放到固定输入尺寸 (不保持长宽比)
	resized := image.NewRGBA(image.Rect(0, 0, size.W, size.H))
	src := dropAlpha(img, workers)
	draw.BiLinear.Scale(resized, resized.Bounds(), src, src.Bounds(), draw.Src, nil)

	return normalizeRGBA(resized, workers), nil
}

// dropAlpha 丢弃 Alpha 通道, 保留原始 RGB 值
//
// 非预乘格式 (NRGBA 等) 直接取颜色值, 透明像素不会变黑; 预乘格式的颜色即为与黑色合成的结果。
func dropAlpha(img image.Image, workers int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	parallel.For(h, workers, func(y int) {
		dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
		switch src := img.(type) {
		case *image.NRGBA:
			copy(dst, src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		case *image.RGBA:
			copy(dst, src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		default:
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				dst[x*4], dst[x*4+1], dst[x*4+2] = c.R, c.G, c.B
			}
		}
		for x := 0; x < w; x++ {
			dst[x*4+3] = 255
		}
	})
	return out
}

// normalizeRGBA 像素按 RGB 顺序写入三个通道平面, 并做 (v/255 - mean) / std
func normalizeRGBA(src *image.RGBA, workers int) []float32 {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	plane := w * h
	data := make([]float32, 3*plane)

	var invStd [3]float32
	for c := range invStd {
		invStd[c] = 1 / pixelStd[c]
	}

	parallel.For(h, workers, func(y int) {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+3]
			idx := y*w + x
			for c := 0; c < 3; c++ {
				v := float32(px[c]) / 255.0
				data[c*plane+idx] = (v - pixelMean[c]) * invStd[c]
			}
		}
	})
	return data
}
