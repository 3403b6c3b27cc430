package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/getcharzp/go-segment/sam2"
)

// shapeList 可重复的命令行提示参数
type shapeList struct {
	shapes []sam2.Shape
	rect   bool
}

func (l *shapeList) String() string {
	parts := make([]string, 0, len(l.shapes))
	for _, s := range l.shapes {
		if s.Kind == sam2.ShapeRectangle {
			parts = append(parts, fmt.Sprintf("%g,%g,%g,%g", s.Min.X, s.Min.Y, s.Max.X, s.Max.Y))
		} else {
			parts = append(parts, fmt.Sprintf("%g,%g", s.Min.X, s.Min.Y))
		}
	}
	return strings.Join(parts, " ")
}

func (l *shapeList) Set(value string) error {
	nums, err := parseFloats(value)
	if err != nil {
		return err
	}
	switch {
	case l.rect && len(nums) == 4:
		l.shapes = append(l.shapes, sam2.NewRect(nums[0], nums[1], nums[2], nums[3]))
	case !l.rect && len(nums) == 2:
		l.shapes = append(l.shapes, sam2.NewPoint(nums[0], nums[1]))
	case l.rect:
		return fmt.Errorf("矩形格式应为 x1,y1,x2,y2: %q", value)
	default:
		return fmt.Errorf("点格式应为 x,y: %q", value)
	}
	return nil
}

func parseFloats(value string) ([]float32, error) {
	fields := strings.Split(value, ",")
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("无效的坐标 %q: %w", f, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}
