package sam2

import (
	"fmt"
)

// decoder 组装 Prompt Encoder + Mask Decoder 的输入并推理
//
// 输入顺序: image_embed, high_res_feats_0, high_res_feats_1,
// point_coords, point_labels, mask_input, has_mask_input
type decoder struct {
	net Network
}

func newDecoder(net Network) (*decoder, error) {
	if n := len(net.Inputs()); n != numDecoderInputs {
		return nil, fmt.Errorf("decoder 输入个数错误, 期望 %d, 实际 %d", numDecoderInputs, n)
	}
	if n := len(net.Outputs()); n < 2 {
		return nil, fmt.Errorf("decoder 输出个数错误, 期望至少 2, 实际 %d", n)
	}
	return &decoder{net: net}, nil
}

// inputs 组装 7 个解码器输入
func (d *decoder) inputs(emb *Embedding, prompts *EncodedPrompts, geom Geometry) []*Tensor {
	mi := geom.maskInputSize()
	return []*Tensor{
		emb.ImageEmbed,
		emb.HighRes0,
		emb.HighRes1,
		{Shape: prompts.CoordsShape(), Data: prompts.Coords},
		{Shape: prompts.LabelsShape(), Data: prompts.Labels},
		// 没有上一轮的 Mask 作为提示
		zeros(1, 1, int64(mi.H), int64(mi.W)),
		{Shape: []int64{1}, Data: []float32{0}},
	}
}

// decode Mask 解码, 返回 logits [1, N, h, w] 和 scores [N]
func (d *decoder) decode(emb *Embedding, prompts *EncodedPrompts, geom Geometry) (*Tensor, *Tensor, error) {
	if emb == nil {
		return nil, nil, ErrDestroyed
	}
	if prompts.Len() == 0 {
		return nil, nil, ErrNoPrompts
	}

	outputs, err := d.net.Run(d.inputs(emb, prompts, geom))
	if err != nil {
		return nil, nil, fmt.Errorf("decoder 推理失败: %w", err)
	}
	if len(outputs) < 2 {
		return nil, nil, &ShapeError{Tensor: "decoder outputs", Want: "至少 2 个输出", Got: []int64{int64(len(outputs))}}
	}

	masks, scores := outputs[0], outputs[1]
	if _, _, _, err := checkMaskOutputs(masks, scores); err != nil {
		return nil, nil, err
	}
	return masks, scores, nil
}
