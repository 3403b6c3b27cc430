package sam2

import "image"

// Point 原图坐标系中的点
type Point struct {
	X, Y float32
}

// ShapeKind 提示形状类型
type ShapeKind uint8

const (
	ShapePoint     ShapeKind = iota + 1 // 单点, 只使用 Min
	ShapeRectangle                      // 轴对齐矩形, Min 为左上角, Max 为右下角
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePoint:
		return "point"
	case ShapeRectangle:
		return "rectangle"
	}
	return "unknown"
}

// Shape 提示形状
type Shape struct {
	Kind ShapeKind
	Min  Point
	Max  Point
}

// NewPoint 创建点提示
func NewPoint(x, y float32) Shape {
	return Shape{Kind: ShapePoint, Min: Point{X: x, Y: y}}
}

// NewRect 创建矩形提示, 两个角点会被规整为左上和右下
func NewRect(x1, y1, x2, y2 float32) Shape {
	return Shape{
		Kind: ShapeRectangle,
		Min:  Point{X: min(x1, x2), Y: min(y1, y2)},
		Max:  Point{X: max(x1, x2), Y: max(y1, y2)},
	}
}

// RectFromImage 由 image.Rectangle 创建矩形提示
func RectFromImage(r image.Rectangle) Shape {
	r = r.Canon()
	return NewRect(float32(r.Min.X), float32(r.Min.Y), float32(r.Max.X), float32(r.Max.Y))
}
