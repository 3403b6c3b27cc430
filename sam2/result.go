package sam2

import (
	"image"
	"sort"
)

// MaskResult Mask 预测结果
type MaskResult struct {
	Mask  *image.Gray // 原图尺寸, 前景 255, 边缘为插值结果
	Score float32     // Decoder 输出的置信度
}

// Area 统计 Mask 中不小于 level 的像素数
func (r MaskResult) Area(level uint8) int {
	if r.Mask == nil {
		return 0
	}
	area := 0
	w, h := r.Mask.Rect.Dx(), r.Mask.Rect.Dy()
	for y := 0; y < h; y++ {
		row := r.Mask.Pix[y*r.Mask.Stride : y*r.Mask.Stride+w]
		for _, v := range row {
			if v >= level {
				area++
			}
		}
	}
	return area
}

// Binary 按 level 重新二值化, 返回新的 Mask
func (r MaskResult) Binary(level uint8) *image.Gray {
	out := image.NewGray(r.Mask.Rect)
	for i, v := range r.Mask.Pix {
		if v >= level {
			out.Pix[i] = 255
		}
	}
	return out
}

// FilterByArea 过滤面积小于 minArea 的 Mask, 不改变原有顺序
func FilterByArea(results []MaskResult, minArea int) []MaskResult {
	kept := make([]MaskResult, 0, len(results))
	for _, r := range results {
		if r.Area(128) >= minArea {
			kept = append(kept, r)
		}
	}
	return kept
}

// BestResult 返回置信度最高的 Mask
func BestResult(results []MaskResult) (MaskResult, bool) {
	if len(results) == 0 {
		return MaskResult{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, true
}

// SortByScore 按置信度从高到低排序, 返回新的切片
func SortByScore(results []MaskResult) []MaskResult {
	sorted := append([]MaskResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}
