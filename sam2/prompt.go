package sam2

import "fmt"

// EncodedPrompts 编码后的提示, 坐标已换算到编码器输入坐标系
type EncodedPrompts struct {
	Coords []float32 // [x0, y0, x1, y1, ...]
	Labels []float32 // 与 Coords 中的点一一对应
}

// Len 提示点个数
func (p *EncodedPrompts) Len() int {
	return len(p.Labels)
}

// CoordsShape point_coords 的形状 [1, N, 2]
func (p *EncodedPrompts) CoordsShape() []int64 {
	return []int64{1, int64(p.Len()), 2}
}

// LabelsShape point_labels 的形状 [1, N]
func (p *EncodedPrompts) LabelsShape() []int64 {
	return []int64{1, int64(p.Len())}
}

// At 返回第 i 个提示点及其标签
func (p *EncodedPrompts) At(i int) (Point, Label) {
	return Point{X: p.Coords[2*i], Y: p.Coords[2*i+1]}, Label(p.Labels[i])
}

func (p *EncodedPrompts) add(pt Point, label Label) {
	p.Coords = append(p.Coords, pt.X, pt.Y)
	p.Labels = append(p.Labels, float32(label))
}

// ScalePoint 原图坐标 -> 编码器输入坐标
func ScalePoint(pt Point, orig, input Size) Point {
	return Point{
		X: pt.X * (float32(input.W) / float32(orig.W)),
		Y: pt.Y * (float32(input.H) / float32(orig.H)),
	}
}

// UnscalePoint 编码器输入坐标 -> 原图坐标
func UnscalePoint(pt Point, orig, input Size) Point {
	return Point{
		X: pt.X * (float32(orig.W) / float32(input.W)),
		Y: pt.Y * (float32(orig.H) / float32(input.H)),
	}
}

// EncodePrompts 将正负向提示编码为坐标与标签
//
// # Params:
//
//	positive: 正向提示, 点标签为 1, 矩形展开为左上(2)和右下(3)两个点
//	negative: 负向提示, 只能是点, 标签为 0
//	orig: 原图尺寸
//	input: 编码器输入尺寸
//
// 两组提示都为空时返回长度为 0 的结果, 是否允许解码由调用方决定。
func EncodePrompts(positive, negative []Shape, orig, input Size) (*EncodedPrompts, error) {
	if orig.Empty() || input.Empty() {
		return nil, fmt.Errorf("sam2: 尺寸无效, 原图 %v, 输入 %v", orig, input)
	}

	n := len(negative)
	for _, s := range positive {
		if s.Kind == ShapeRectangle {
			n += 2
		} else {
			n++
		}
	}
	p := &EncodedPrompts{
		Coords: make([]float32, 0, 2*n),
		Labels: make([]float32, 0, n),
	}

	for i, s := range positive {
		switch s.Kind {
		case ShapePoint:
			p.add(s.Min, LabelForeground)
		case ShapeRectangle:
			p.add(s.Min, LabelBoxTopLeft)
			p.add(s.Max, LabelBoxBotRight)
		default:
			return nil, fmt.Errorf("正向提示 #%d (%d): %w", i, s.Kind, ErrUnknownShape)
		}
	}

	for i, s := range negative {
		switch s.Kind {
		case ShapePoint:
			p.add(s.Min, LabelBackground)
		case ShapeRectangle:
			return nil, fmt.Errorf("负向提示 #%d: %w", i, ErrNegativeRectangle)
		default:
			return nil, fmt.Errorf("负向提示 #%d (%d): %w", i, s.Kind, ErrUnknownShape)
		}
	}

	// 统一换算到编码器输入坐标系
	sx := float32(input.W) / float32(orig.W)
	sy := float32(input.H) / float32(orig.H)
	for i := 0; i < len(p.Coords); i += 2 {
		p.Coords[i] *= sx
		p.Coords[i+1] *= sy
	}
	return p, nil
}
