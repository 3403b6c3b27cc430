package segment

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Palette 叠加 Mask 时按序号取用的颜色
var Palette = []color.RGBA{
	{B: 255, A: 255},
	{G: 255, A: 255},
	{R: 255, A: 255},
	{G: 255, B: 255, A: 255},
	{R: 255, B: 255, A: 255},
	{R: 255, G: 255, A: 255},
	{R: 128, B: 128, A: 255},
	{R: 255, G: 165, A: 255},
	{G: 128, B: 128, A: 255},
	{R: 128, G: 128, A: 255},
}

// PaletteColor 返回第 i 个颜色, 超出范围时循环
func PaletteColor(i int) color.RGBA {
	return Palette[i%len(Palette)]
}

// DrawMask 将 Mask 以半透明颜色叠加到图片上, 返回新图片
//
// # Params:
//
//	img: 原图, 不会被修改
//	mask: 与原图同尺寸的单通道 Mask, 像素值作为不透明度权重
//	c: 叠加颜色
//	alpha: 叠加强度 [0, 1]
func DrawMask(img image.Image, mask *image.Gray, c color.RGBA, alpha float64) (*image.RGBA, error) {
	bounds := img.Bounds()
	if mask.Rect.Dx() != bounds.Dx() || mask.Rect.Dy() != bounds.Dy() {
		return nil, fmt.Errorf("Mask 尺寸 %v 与图片尺寸 %v 不一致", mask.Rect.Size(), bounds.Size())
	}
	alpha = min(max(alpha, 0), 1)

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	w, h := bounds.Dx(), bounds.Dy()
	for y := 0; y < h; y++ {
		mrow := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x, m := range mrow {
			if m == 0 {
				continue
			}
			a := alpha * float64(m) / 255
			px := drow[x*4 : x*4+3]
			px[0] = blend(px[0], c.R, a)
			px[1] = blend(px[1], c.G, a)
			px[2] = blend(px[2], c.B, a)
		}
	}
	return dst, nil
}

func blend(dst, src uint8, a float64) uint8 {
	return uint8(float64(dst)*(1-a) + float64(src)*a + 0.5)
}

// TextDrawer 文本绘制工具
type TextDrawer struct {
	font     *opentype.Font
	face     font.Face
	fontSize float64
}

// NewTextDrawer 创建文本绘制工具
//
// # Params:
//
//	fontPath: 字体路径
func NewTextDrawer(fontPath string) (*TextDrawer, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("打开字体文件失败：%w", err)
	}

	ttFont, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("解析字体文件失败：%w", err)
	}

	d := &TextDrawer{font: ttFont}
	if err := d.SetSize(12); err != nil {
		return nil, err
	}
	return d, nil
}

// SetSize 动态调整字体大小
func (d *TextDrawer) SetSize(fontSize float64) error {
	if d.face != nil && d.fontSize == fontSize {
		return nil
	}

	nf, err := opentype.NewFace(d.font, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return err
	}

	if d.face != nil {
		d.face.Close()
	}
	d.face = nf
	d.fontSize = fontSize
	return nil
}

// DrawText 在 (x, y) 处绘制文本, y 为基线位置
func (d *TextDrawer) DrawText(img draw.Image, text string, x, y int, c color.Color) {
	dr := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: d.face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	dr.DrawString(text)
}

// DrawLabel 在 Mask 的包围框左上角标注文本
func (d *TextDrawer) DrawLabel(img draw.Image, mask *image.Gray, text string, c color.Color) {
	box := MaskBounds(mask)
	if box.Empty() {
		return
	}
	ascent := d.face.Metrics().Ascent.Ceil()
	d.DrawText(img, text, box.Min.X, max(box.Min.Y, ascent), c)
}

// Close 释放资源
func (d *TextDrawer) Close() {
	if d.face != nil {
		d.face.Close()
	}
}

// MaskBounds 返回 Mask 非零像素的包围框
func MaskBounds(mask *image.Gray) image.Rectangle {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	box := image.Rectangle{}
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, v := range row {
			if v == 0 {
				continue
			}
			box = box.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return box
}
