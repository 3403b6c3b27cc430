package sam2

import (
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"
)

// Embedding 图像特征, 每张图片编码一次, 可被多次解码复用
type Embedding struct {
	HighRes0   *Tensor // high_res_feats_0
	HighRes1   *Tensor // high_res_feats_1
	ImageEmbed *Tensor // image_embed
}

// ImageContext 包含特定图像的特征缓存和参数
type ImageContext struct {
	engine    *Engine
	embedding *Embedding

	origSize    Size
	gen         uint64
	isDestroyed bool
}

// Embedding 返回图像特征
func (ctx *ImageContext) Embedding() *Embedding {
	ctx.engine.mu.Lock()
	defer ctx.engine.mu.Unlock()
	return ctx.embedding
}

// OrigSize 原图尺寸
func (ctx *ImageContext) OrigSize() Size {
	return ctx.origSize
}

// Destroy 释放图像特征缓存
func (ctx *ImageContext) Destroy() {
	ctx.engine.mu.Lock()
	defer ctx.engine.mu.Unlock()
	if ctx.isDestroyed {
		return
	}
	ctx.embedding = nil
	ctx.isDestroyed = true
}

// EncodeImage 图像特征提取
func (e *Engine) EncodeImage(img image.Image) (*ImageContext, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	bounds := img.Bounds()
	orig := Size{W: bounds.Dx(), H: bounds.Dy()}
	return e.encode(orig, func(size Size) ([]float32, error) {
		return preprocess(img, size, e.config.NumWorkers)
	})
}

// encode 执行预处理和 Encoder 推理
//
// # Params:
//
//	orig: 原图尺寸
//	prep: 按编码器输入尺寸生成 [1, 3, H, W] 数据
func (e *Engine) encode(orig Size, prep func(Size) ([]float32, error)) (*ImageContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.encoder == nil {
		return nil, ErrNotLoaded
	}

	start := time.Now()
	data, err := prep(e.inputSize)
	if err != nil {
		return nil, fmt.Errorf("预处理失败: %w", err)
	}
	input, err := NewTensor([]int64{1, 3, int64(e.inputSize.H), int64(e.inputSize.W)}, data)
	if err != nil {
		return nil, err
	}

	outputs, err := e.encoder.Run([]*Tensor{input})
	if err != nil {
		return nil, fmt.Errorf("encoder 推理失败: %w", err)
	}
	emb, err := newEmbedding(outputs)
	if err != nil {
		return nil, err
	}

	e.log.Debug("image encoded",
		zap.Int("width", orig.W),
		zap.Int("height", orig.H),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &ImageContext{
		engine:    e,
		embedding: emb,
		origSize:  orig,
		gen:       e.gen,
	}, nil
}

// newEmbedding 校验 Encoder 输出, 顺序固定为 high_res_feats_0, high_res_feats_1, image_embed
func newEmbedding(outputs []*Tensor) (*Embedding, error) {
	if len(outputs) != 3 {
		return nil, &ShapeError{Tensor: "encoder outputs", Want: "3 个输出", Got: []int64{int64(len(outputs))}}
	}
	names := [3]string{"high_res_feats_0", "high_res_feats_1", "image_embed"}
	for i, t := range outputs {
		if t == nil || len(t.Shape) != 4 || t.Shape[0] != 1 {
			var got []int64
			if t != nil {
				got = t.Shape
			}
			return nil, &ShapeError{Tensor: names[i], Want: "[1, C, H, W]", Got: got}
		}
	}
	return &Embedding{
		HighRes0:   outputs[0],
		HighRes1:   outputs[1],
		ImageEmbed: outputs[2],
	}, nil
}
