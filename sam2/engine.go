package sam2

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine 持有 Encoder / Decoder 会话, 负责创建 ImageContext
//
// 同一 Engine 同时只执行一次推理, 并发调用会被串行化。
type Engine struct {
	mu     sync.Mutex
	config Config
	log    *zap.Logger
	open   openFunc

	encoder   Network
	decoder   *decoder
	inputSize Size
	gen       uint64 // 每次成功 Load 递增, 用于识别过期的 ImageContext
}

// New 创建未加载模型的引擎
//
// MaskThreshold 为 0 是合法取值, 不会被替换为默认值。MinMaskArea 为 0 表示不过滤,
// 只有负数才使用默认值。其余零值字段使用 DefaultConfig。
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.ScaleFactor <= 0 {
		cfg.ScaleFactor = def.ScaleFactor
	}
	if cfg.MinMaskArea < 0 {
		cfg.MinMaskArea = def.MinMaskArea
	}
	if cfg.InputSize.Empty() {
		cfg.InputSize = def.InputSize
	}
	if cfg.Device == "" {
		cfg.Device = def.Device
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		config: cfg,
		log:    log,
		open:   openOnnxNetwork,
	}
}

// NewEngine 初始化 sam2 引擎并加载模型
func NewEngine(cfg Config) (*Engine, error) {
	e := New(cfg)
	if err := e.Load(); err != nil {
		return nil, err
	}
	return e, nil
}

// Config 返回生效的配置
func (e *Engine) Config() Config {
	return e.config
}

// Load 加载 Encoder 和 Decoder, 任一步失败都会释放已创建的会话
func (e *Engine) Load() (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.encoder != nil {
		return nil
	}

	start := time.Now()
	enc, err := e.open(e.config.EncodeModelPath, e.config)
	if err != nil {
		return fmt.Errorf("加载 Encoder 失败: %w", err)
	}
	defer func() {
		if err != nil {
			enc.Destroy()
		}
	}()

	inputSize, err := encoderInputSize(enc, e.config.InputSize)
	if err != nil {
		return err
	}

	decNet, err := e.open(e.config.DecodeModelPath, e.config)
	if err != nil {
		return fmt.Errorf("加载 Decoder 失败: %w", err)
	}
	dec, err := newDecoder(decNet)
	if err != nil {
		decNet.Destroy()
		return err
	}

	e.encoder = enc
	e.decoder = dec
	e.inputSize = inputSize
	e.gen++
	e.log.Info("sam2 model loaded",
		zap.String("encoder", e.config.EncodeModelPath),
		zap.String("decoder", e.config.DecodeModelPath),
		zap.String("device", string(e.config.Device)),
		zap.Int("input_width", inputSize.W),
		zap.Int("input_height", inputSize.H),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// encoderInputSize 从 Encoder 输入 [1, 3, H, W] 读取输入尺寸, 动态维度时使用 fallback
func encoderInputSize(enc Network, fallback Size) (Size, error) {
	inputs := enc.Inputs()
	if len(inputs) != 1 {
		return Size{}, fmt.Errorf("encoder 输入个数错误, 期望 1, 实际 %d", len(inputs))
	}
	if n := len(enc.Outputs()); n != 3 {
		return Size{}, fmt.Errorf("encoder 输出个数错误, 期望 3, 实际 %d", n)
	}
	shape := inputs[0].Shape
	if len(shape) != 4 {
		return Size{}, &ShapeError{Tensor: inputs[0].Name, Want: "[1, 3, H, W]", Got: shape}
	}
	size := Size{W: int(shape[3]), H: int(shape[2])}
	if size.Empty() {
		return fallback, nil
	}
	return size, nil
}

// IsLoaded 模型是否已加载
func (e *Engine) IsLoaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encoder != nil
}

// InputSize 编码器输入尺寸, 未加载时为空
func (e *Engine) InputSize() Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputSize
}

// Unload 释放 Encoder 和 Decoder 会话, 可重复调用
func (e *Engine) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	if e.encoder != nil {
		if err := e.encoder.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("销毁 Encoder 会话失败: %w", err))
		}
		e.encoder = nil
	}
	if e.decoder != nil {
		if err := e.decoder.net.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("销毁 Decoder 会话失败: %w", err))
		}
		e.decoder = nil
	}
	e.inputSize = Size{}
	return errors.Join(errs...)
}

// Destroy 释放相关资源
func (e *Engine) Destroy() error {
	return e.Unload()
}

// Predict 对图片执行 预处理 -> Encoder -> 提示编码 -> Decoder -> 后处理
//
// # Params:
//
//	img: 原图
//	positive: 正向提示, 至少一个 (点或矩形)
//	negative: 负向提示, 只能是点
func (e *Engine) Predict(img image.Image, positive, negative []Shape) ([]MaskResult, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if len(positive) == 0 {
		return nil, ErrNoPositivePrompt
	}
	if !e.IsLoaded() {
		return nil, ErrNotLoaded
	}

	imgCtx, err := e.EncodeImage(img)
	if err != nil {
		return nil, err
	}
	defer imgCtx.Destroy()
	return imgCtx.Predict(positive, negative)
}

// Predict 复用已提取的图像特征进行解码
//
// 图像特征已销毁, 或引擎在编码之后重新加载过模型时返回 ErrDestroyed。
func (ctx *ImageContext) Predict(positive, negative []Shape) ([]MaskResult, error) {
	if len(positive) == 0 {
		return nil, ErrNoPositivePrompt
	}
	return ctx.engine.decode(ctx, positive, negative)
}

// Geometry 返回当前图像对应的几何参数
func (ctx *ImageContext) Geometry() Geometry {
	ctx.engine.mu.Lock()
	defer ctx.engine.mu.Unlock()
	return ctx.engine.geometry(ctx.origSize)
}

func (e *Engine) geometry(orig Size) Geometry {
	return Geometry{
		InputSize:     e.inputSize,
		OrigSize:      orig,
		MaskThreshold: e.config.MaskThreshold,
		ScaleFactor:   e.config.ScaleFactor,
		MinMaskArea:   e.config.MinMaskArea,
	}
}

// decode 提示编码 -> Decoder -> 后处理
func (e *Engine) decode(ctx *ImageContext, positive, negative []Shape) ([]MaskResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.decoder == nil {
		return nil, ErrNotLoaded
	}
	if ctx.isDestroyed || ctx.gen != e.gen {
		return nil, ErrDestroyed
	}

	start := time.Now()
	geom := e.geometry(ctx.origSize)
	prompts, err := EncodePrompts(positive, negative, geom.OrigSize, geom.InputSize)
	if err != nil {
		return nil, err
	}

	logits, scores, err := e.decoder.decode(ctx.embedding, prompts, geom)
	if err != nil {
		return nil, err
	}

	results, err := Postprocess(logits, scores, geom.MaskThreshold, geom.OrigSize, e.config.NumWorkers)
	if err != nil {
		return nil, err
	}
	e.log.Debug("mask decoded",
		zap.Int("prompts", prompts.Len()),
		zap.Int("masks", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
