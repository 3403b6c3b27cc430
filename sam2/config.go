package sam2

import (
	segment "github.com/getcharzp/go-segment"
	"go.uber.org/zap"
)

// Label 提示点标签
type Label int

const (
	LabelBackground  Label = 0 // 背景/排除
	LabelForeground  Label = 1 // 前景/点击
	LabelBoxTopLeft  Label = 2 // 框选左上
	LabelBoxBotRight Label = 3 // 框选右下
)

// 均值和方差常量 (RGB 顺序)
var (
	pixelMean = [3]float32{0.485, 0.456, 0.406}
	pixelStd  = [3]float32{0.229, 0.224, 0.225}
)

const (
	// defaultInputSize 模型元数据为动态尺寸时使用的编码器输入边长
	defaultInputSize = 1024
	// numDecoderInputs 解码器输入个数
	numDecoderInputs = 7
)

// Size 宽高
type Size struct {
	W, H int
}

// Empty 任一边不为正即为空
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Config 配置项
type Config struct {
	// 必填参数
	OnnxRuntimeLibPath string // onnxruntime.dll (或 .so, .dylib) 的路径
	EncodeModelPath    string // 图片特征提取模型
	DecodeModelPath    string // Mask解码模型

	// 推理参数
	MaskThreshold float32 // Mask 二值化阈值 (默认 0.25, 作用于 logits)
	ScaleFactor   int     // mask_input 相对编码器输入的缩小倍数 (默认 4)
	MinMaskArea   int     // 调用方过滤小 Mask 的最小像素面积 (默认 10000, 0 为不过滤)

	// 可选参数
	Device     segment.Device // (可选) 推理设备, 默认 CPU
	DeviceID   int            // (可选) GPU 编号
	NumThreads int            // (可选) ONNX 线程数, 默认由CPU核心数决定
	NumWorkers int            // (可选) 后处理 worker 数, 默认 CPU 核数
	InputSize  Size           // (可选) 模型输入尺寸为动态时的兜底值, 默认 1024x1024
	Logger     *zap.Logger    // (可选) 日志, 默认不输出
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		OnnxRuntimeLibPath: segment.DefaultLibraryPath(),
		EncodeModelPath:    "./sam2_weights/encoder.onnx",
		DecodeModelPath:    "./sam2_weights/decoder.onnx",
		MaskThreshold:      0.25,
		ScaleFactor:        4,
		MinMaskArea:        10000,
		Device:             segment.DeviceCPU,
		InputSize:          Size{W: defaultInputSize, H: defaultInputSize},
	}
}

// Geometry 单次推理用到的几何参数
type Geometry struct {
	InputSize     Size    // 编码器输入尺寸, 由模型决定
	OrigSize      Size    // 原图尺寸, 每张图片不同
	MaskThreshold float32 // Mask 二值化阈值
	ScaleFactor   int     // mask_input 缩小倍数
	MinMaskArea   int     // 最小 Mask 面积
}

// maskInputSize mask_input 的空间尺寸
func (g Geometry) maskInputSize() Size {
	sf := max(g.ScaleFactor, 1)
	return Size{W: g.InputSize.W / sf, H: g.InputSize.H / sf}
}
