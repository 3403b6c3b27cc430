package sam2

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeNetwork 记录输入并返回预设输出
type fakeNetwork struct {
	inputs    []TensorInfo
	outputs   []TensorInfo
	run       func(inputs []*Tensor) ([]*Tensor, error)
	calls     [][]*Tensor
	destroyed bool
}

func (n *fakeNetwork) Inputs() []TensorInfo  { return n.inputs }
func (n *fakeNetwork) Outputs() []TensorInfo { return n.outputs }

func (n *fakeNetwork) Run(inputs []*Tensor) ([]*Tensor, error) {
	n.calls = append(n.calls, inputs)
	return n.run(inputs)
}

func (n *fakeNetwork) Destroy() error {
	n.destroyed = true
	return nil
}

const testInputSize = 64

func newFakeEncoder() *fakeNetwork {
	return &fakeNetwork{
		inputs: []TensorInfo{{Name: "image", Shape: []int64{1, 3, testInputSize, testInputSize}}},
		outputs: []TensorInfo{
			{Name: "high_res_feats_0"}, {Name: "high_res_feats_1"}, {Name: "image_embed"},
		},
		run: func(inputs []*Tensor) ([]*Tensor, error) {
			return []*Tensor{
				zeros(1, 2, 16, 16),
				zeros(1, 2, 8, 8),
				zeros(1, 4, 4, 4),
			}, nil
		},
	}
}

// newFakeDecoder 输出 3 个 4x4 的 Mask: 全前景、左半前景、全背景
func newFakeDecoder() *fakeNetwork {
	names := []string{"image_embed", "high_res_feats_0", "high_res_feats_1",
		"point_coords", "point_labels", "mask_input", "has_mask_input"}
	inputs := make([]TensorInfo, len(names))
	for i, name := range names {
		inputs[i] = TensorInfo{Name: name}
	}
	return &fakeNetwork{
		inputs:  inputs,
		outputs: []TensorInfo{{Name: "masks"}, {Name: "iou_predictions"}},
		run: func([]*Tensor) ([]*Tensor, error) {
			return []*Tensor{maskLogits(), {Shape: []int64{1, 3}, Data: []float32{0.9, 0.5, 0.1}}}, nil
		},
	}
}

func maskLogits() *Tensor {
	t := zeros(1, 3, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			t.Data[0*16+y*4+x] = 5
			if x < 2 {
				t.Data[1*16+y*4+x] = 5
			} else {
				t.Data[1*16+y*4+x] = -5
			}
			t.Data[2*16+y*4+x] = -5
		}
	}
	return t
}

// newTestEngine 使用假网络创建并加载引擎
func newTestEngine(t *testing.T, enc, dec *fakeNetwork) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.NumWorkers = 2
	e := New(cfg)
	e.open = func(path string, _ Config) (Network, error) {
		switch path {
		case cfg.EncodeModelPath:
			return enc, nil
		case cfg.DecodeModelPath:
			return dec, nil
		}
		return nil, errors.New("unexpected path " + path)
	}
	require.NoError(t, e.Load())
	return e
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}
