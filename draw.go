package redetect

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/esimov/redetect/imop"
	"github.com/esimov/redetect/utils"
)

// Colors used to annotate the output frames.
const (
	DefaultBoxColor    = "#ff2d55"
	defaultWindowColor = "#4cd96480"
)

// drawRect strokes the outline of r with the given thickness.
func drawRect(img *image.NRGBA, r image.Rectangle, col color.Color, thickness int) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	src := &image.Uniform{col}
	t := utils.Min(thickness, utils.Min(r.Dx(), r.Dy()))

	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), src, image.Point{}, draw.Over)
	draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), src, image.Point{}, draw.Over)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y+t, r.Min.X+t, r.Max.Y-t), src, image.Point{}, draw.Over)
	draw.Draw(img, image.Rect(r.Max.X-t, r.Min.Y+t, r.Max.X, r.Max.Y-t), src, image.Point{}, draw.Over)
}

// windowLayer paints the outline of every window onto a transparent layer.
func windowLayer(bounds image.Rectangle, windows []image.Rectangle, col color.Color) *image.NRGBA {
	layer := image.NewNRGBA(bounds)
	for _, w := range windows {
		drawRect(layer, w, col, 1)
	}
	return layer
}

// annotate draws the detection outcome on a copy of the frame. In debug
// mode the confident windows are screened over the frame before the
// consensus box gets drawn.
func (p *Processor) annotate(img image.Image, rep *FrameReport) *image.NRGBA {
	dst := imaging.Clone(img)

	if p.Debug && len(rep.Windows) > 0 {
		layer := windowLayer(dst.Bounds(), rep.Windows, utils.HexToRGBA(defaultWindowColor))

		blend := imop.NewBlend()
		blend.Set(imop.Screen)
		dst = imop.InitOp().Draw(nil, layer, dst, blend).Img
	}

	if rep.BB != nil {
		boxColor := p.BoxColor
		if boxColor == "" {
			boxColor = DefaultBoxColor
		}
		thickness := utils.Max(2, utils.Min(dst.Bounds().Dx(), dst.Bounds().Dy())/200)
		drawRect(dst, *rep.BB, utils.HexToRGBA(boxColor), thickness)
	}
	return dst
}
