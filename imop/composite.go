package imop

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/esimov/redetect/utils"
)

const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// Bitmap is the destination of a composite operation.
type Bitmap struct {
	Img *image.NRGBA
}

// Composite holds the currently active composite operation.
type Composite struct {
	current string
	ops     []string
}

// NewBitmap allocates a transparent bitmap.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// InitOp initializes a composite operation, defaulting to source over.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Clear, Copy, Dst,
			SrcOver, DstOver,
			SrcIn, DstIn,
			SrcOut, DstOut,
			SrcAtop, DstAtop,
			Xor,
		},
	}
}

// Set changes the active composite operation.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(op.ops, cop) {
		return fmt.Errorf("unsupported composite operation: %q", cop)
	}
	op.current = cop
	return nil
}

// Get returns the active composite operation.
func (op *Composite) Get() string {
	return op.current
}

// factors returns the Porter-Duff coefficients of the source and the backdrop.
func (op *Composite) factors(as, ab float64) (fa, fb float64) {
	switch op.current {
	case Clear:
		return 0, 0
	case Copy:
		return 1, 0
	case Dst:
		return 0, 1
	case SrcOver:
		return 1, 1 - as
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	}
	return 1, 1 - as
}

// Draw composites src over the dst backdrop into the bitmap. When a blend
// mode is given the source colors are mixed with the backdrop first.
// The bitmap is allocated when nil; all images share the same bounds.
func (op *Composite) Draw(bitmap *Bitmap, src, dst *image.NRGBA, blend *Blend) *Bitmap {
	if bitmap == nil {
		bitmap = NewBitmap(src.Bounds())
	}
	b := src.Bounds()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s := src.NRGBAAt(x, y)
			d := dst.NRGBAAt(x, y)

			as := float64(s.A) / 255
			ab := float64(d.A) / 255
			fa, fb := op.factors(as, ab)

			ao := fa*as + fb*ab
			if ao == 0 {
				bitmap.Img.SetNRGBA(x, y, color.NRGBA{})
				continue
			}

			channel := func(cs, cb uint8) uint8 {
				csn, cbn := float64(cs)/255, float64(cb)/255
				if blend != nil {
					csn = (1-ab)*csn + ab*blend.Apply(csn, cbn)
				}
				co := (fa*as*csn + fb*ab*cbn) / ao
				return uint8(math.Round(utils.Clamp(co, 0, 1) * 255))
			}
			bitmap.Img.SetNRGBA(x, y, color.NRGBA{
				R: channel(s.R, d.R),
				G: channel(s.G, d.G),
				B: channel(s.B, d.B),
				A: uint8(math.Round(utils.Clamp(ao, 0, 1) * 255)),
			})
		}
	}
	return bitmap
}
