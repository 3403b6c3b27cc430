package sam2

import "fmt"

// Tensor 行优先存储的 float32 张量
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewTensor 创建张量并校验数据长度
func NewTensor(shape []int64, data []float32) (*Tensor, error) {
	if n := numElements(shape); n != len(data) {
		return nil, &ShapeError{
			Tensor: fmt.Sprintf("tensor %v", shape),
			Want:   fmt.Sprintf("%d 个元素", n),
			Got:    []int64{int64(len(data))},
		}
	}
	return &Tensor{Shape: shape, Data: data}, nil
}

// zeros 创建全零张量
func zeros(shape ...int64) *Tensor {
	return &Tensor{Shape: shape, Data: make([]float32, numElements(shape))}
}

func numElements(shape []int64) int {
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}

// TensorInfo 模型声明的输入/输出信息
type TensorInfo struct {
	Name  string
	Shape []int64 // 动态维度为 -1
	Int64 bool    // 元素类型为 int64, 否则为 float32
}

// Network 网络执行接口, 一个实例对应一个已加载的模型会话
//
// Run 的输入输出顺序与 Inputs / Outputs 的声明顺序一致。实现不要求并发安全,
// 同一实例同时只允许一次推理。
type Network interface {
	Inputs() []TensorInfo
	Outputs() []TensorInfo
	Run(inputs []*Tensor) ([]*Tensor, error)
	Destroy() error
}

// openFunc 按路径加载网络
type openFunc func(path string, cfg Config) (Network, error)
