package sam2

import (
	"fmt"

	segment "github.com/getcharzp/go-segment"
	"github.com/up-zero/gotool/convertutil"
	ort "github.com/yalue/onnxruntime_go"
)

// onnxNetwork 基于 ONNX Runtime 的 Network 实现
type onnxNetwork struct {
	session *ort.DynamicAdvancedSession
	inputs  []TensorInfo
	outputs []TensorInfo
}

// openOnnxNetwork 读取模型元数据并创建会话
func openOnnxNetwork(path string, cfg Config) (Network, error) {
	oc := new(segment.OnnxConfig)
	if err := convertutil.CopyProperties(cfg, oc); err != nil {
		return nil, fmt.Errorf("复制参数失败: %w", err)
	}
	if err := oc.New(); err != nil {
		return nil, err
	}
	defer oc.Destroy()

	inInfo, outInfo, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("读取模型元数据失败 %s: %w", path, err)
	}
	n := &onnxNetwork{
		inputs:  toTensorInfo(inInfo),
		outputs: toTensorInfo(outInfo),
	}

	session, err := ort.NewDynamicAdvancedSession(path, names(n.inputs), names(n.outputs), oc.SessionOptions)
	if err != nil {
		return nil, fmt.Errorf("创建 ONNX 会话失败 %s: %w", path, err)
	}
	n.session = session
	return n, nil
}

func toTensorInfo(infos []ort.InputOutputInfo) []TensorInfo {
	out := make([]TensorInfo, len(infos))
	for i, info := range infos {
		out[i] = TensorInfo{
			Name:  info.Name,
			Shape: append([]int64(nil), info.Dimensions...),
			Int64: info.DataType == ort.TensorElementDataTypeInt64,
		}
	}
	return out
}

func names(infos []TensorInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Name
	}
	return out
}

func (n *onnxNetwork) Inputs() []TensorInfo  { return n.inputs }
func (n *onnxNetwork) Outputs() []TensorInfo { return n.outputs }

// Run 执行一次推理, 输出数据会拷贝出 ORT 管理的内存
func (n *onnxNetwork) Run(inputs []*Tensor) ([]*Tensor, error) {
	if len(inputs) != len(n.inputs) {
		return nil, fmt.Errorf("输入个数错误, 期望 %d, 实际 %d", len(n.inputs), len(inputs))
	}

	values := make([]ort.Value, 0, len(inputs))
	defer func() {
		for _, v := range values {
			v.Destroy()
		}
	}()
	for i, t := range inputs {
		v, err := n.toValue(n.inputs[i], t)
		if err != nil {
			return nil, fmt.Errorf("创建输入 %s 失败: %w", n.inputs[i].Name, err)
		}
		values = append(values, v)
	}

	outputs := make([]ort.Value, len(n.outputs))
	if err := n.session.Run(values, outputs); err != nil {
		return nil, err
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	result := make([]*Tensor, len(outputs))
	for i, o := range outputs {
		t, ok := o.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("输出 %s 不是 float32 张量", n.outputs[i].Name)
		}
		result[i] = &Tensor{
			Shape: append([]int64(nil), t.GetShape()...),
			Data:  append([]float32(nil), t.GetData()...),
		}
	}
	return result, nil
}

// toValue 按模型声明的元素类型创建输入张量
func (n *onnxNetwork) toValue(info TensorInfo, t *Tensor) (ort.Value, error) {
	shape := ort.NewShape(t.Shape...)
	if !info.Int64 {
		return ort.NewTensor(shape, t.Data)
	}
	data := make([]int64, len(t.Data))
	for i, v := range t.Data {
		data[i] = int64(v)
	}
	return ort.NewTensor(shape, data)
}

// Destroy 释放会话
func (n *onnxNetwork) Destroy() error {
	if n.session == nil {
		return nil
	}
	err := n.session.Destroy()
	n.session = nil
	return err
}
