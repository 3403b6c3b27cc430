package sam2

import (
	"errors"
	"fmt"
)

// 前置条件错误, 在任何推理开始之前返回
var (
	ErrEmptyImage       = errors.New("sam2: 图片为空")
	ErrNoPositivePrompt = errors.New("sam2: 至少需要一个正向提示")
	ErrNotLoaded        = errors.New("sam2: 模型未加载")
	ErrDestroyed        = errors.New("sam2: 图片特征已销毁")
)

// 提示编码错误
var (
	ErrNoPrompts         = errors.New("sam2: 提示为空")
	ErrNegativeRectangle = errors.New("sam2: 负向提示只支持点")
	ErrUnknownShape      = errors.New("sam2: 未知的提示形状")
)

// IsPrecondition 判断是否为前置条件错误
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrEmptyImage) ||
		errors.Is(err, ErrNoPositivePrompt) ||
		errors.Is(err, ErrNotLoaded) ||
		errors.Is(err, ErrDestroyed)
}

// ShapeError 张量形状与约定不符, 属于内部不变量被破坏
type ShapeError struct {
	Tensor string
	Want   string
	Got    []int64
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("sam2: %s 形状错误, 期望 %s, 实际 %v", e.Tensor, e.Want, e.Got)
}
