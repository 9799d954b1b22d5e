package redetect

import (
	"image"
)

// Grayscale converts any image to a luminance frame. The luminance is
// computed with the Rec. 601 weights and expressed in the [0, 255] range.
func Grayscale(src image.Image) *Frame {
	b := src.Bounds()
	dst := NewFrame(b.Dx(), b.Dy())

	switch img := src.(type) {
	case *image.Gray:
		for y := 0; y < dst.Height; y++ {
			off := img.PixOffset(b.Min.X, b.Min.Y+y)
			row := dst.Pix[y*dst.Width : (y+1)*dst.Width]
			for x := range row {
				row[x] = float64(img.Pix[off+x])
			}
		}
	case *image.Gray16:
		for y := 0; y < dst.Height; y++ {
			for x := 0; x < dst.Width; x++ {
				dst.Pix[y*dst.Width+x] = float64(img.Gray16At(b.Min.X+x, b.Min.Y+y).Y) / 257
			}
		}
	default:
		nrgba := imgToNRGBA(src)
		for y := 0; y < dst.Height; y++ {
			off := nrgba.PixOffset(0, y)
			row := dst.Pix[y*dst.Width : (y+1)*dst.Width]
			for x := range row {
				px := nrgba.Pix[off+x*4 : off+x*4+4]
				row[x] = 0.299*float64(px[0]) + 0.587*float64(px[1]) + 0.114*float64(px[2])
			}
		}
	}
	return dst
}
