package sam2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmbedding() *Embedding {
	return &Embedding{
		HighRes0:   zeros(1, 2, 16, 16),
		HighRes1:   zeros(1, 2, 8, 8),
		ImageEmbed: zeros(1, 4, 4, 4),
	}
}

func TestDecoder_RejectsEmptyPrompts(t *testing.T) {
	net := newFakeDecoder()
	d, err := newDecoder(net)
	require.NoError(t, err)

	empty, err := EncodePrompts(nil, nil, Size{W: 8, H: 8}, Size{W: 8, H: 8})
	require.NoError(t, err)

	_, _, err = d.decode(testEmbedding(), empty, Geometry{InputSize: Size{W: 8, H: 8}, ScaleFactor: 4})
	assert.ErrorIs(t, err, ErrNoPrompts)
	assert.Empty(t, net.calls)
}

func TestDecoder_InputOrderAndMaskHint(t *testing.T) {
	d, err := newDecoder(newFakeDecoder())
	require.NoError(t, err)

	emb := testEmbedding()
	prompts, err := EncodePrompts([]Shape{NewPoint(4, 4)}, nil, Size{W: 8, H: 8}, Size{W: 1024, H: 1024})
	require.NoError(t, err)

	in := d.inputs(emb, prompts, Geometry{InputSize: Size{W: 1024, H: 1024}, ScaleFactor: 4})
	require.Len(t, in, numDecoderInputs)
	assert.Same(t, emb.ImageEmbed, in[0])
	assert.Same(t, emb.HighRes0, in[1])
	assert.Same(t, emb.HighRes1, in[2])
	assert.Equal(t, []float32{512, 512}, in[3].Data)
	assert.Equal(t, []int64{1, 1, 256, 256}, in[5].Shape)
	assert.Len(t, in[5].Data, 256*256)
	assert.Equal(t, []float32{0}, in[6].Data)
}

func TestDecoder_ReturnsOutputs(t *testing.T) {
	d, err := newDecoder(newFakeDecoder())
	require.NoError(t, err)

	prompts, err := EncodePrompts([]Shape{NewPoint(1, 1)}, nil, Size{W: 8, H: 8}, Size{W: 8, H: 8})
	require.NoError(t, err)

	masks, scores, err := d.decode(testEmbedding(), prompts, Geometry{InputSize: Size{W: 8, H: 8}, ScaleFactor: 4})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4, 4}, masks.Shape)
	assert.Equal(t, []float32{0.9, 0.5, 0.1}, scores.Data)
}

func TestNewDecoder_InputCount(t *testing.T) {
	net := newFakeDecoder()
	net.inputs = append(net.inputs, TensorInfo{Name: "orig_im_size"})
	_, err := newDecoder(net)
	assert.Error(t, err)
}

func TestNewTensor_LengthCheck(t *testing.T) {
	_, err := NewTensor([]int64{1, 2, 3}, make([]float32, 5))
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "6 个元素", shapeErr.Want)
	assert.Equal(t, []int64{5}, shapeErr.Got)

	tensor, err := NewTensor([]int64{2, 3}, make([]float32, 6))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, tensor.Shape)
}
