package redetect

import (
	"image"
	"math"

	"github.com/esimov/redetect/utils"
)

// scaleStep is the geometric factor between two neighbouring scales.
const scaleStep = 1.2

// Window is a candidate rectangle of the scanning grid. ScaleIndex points
// into the Scales table of the grid the window belongs to.
type Window struct {
	X, Y          int
	Width, Height int
	ScaleIndex    int
}

// Bounds returns the window as an image rectangle.
func (w Window) Bounds() image.Rectangle {
	return image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height)
}

// Area returns the number of pixels covered by the window.
func (w Window) Area() int {
	return w.Width * w.Height
}

// Scale is the window size used at one level of the grid.
type Scale struct {
	Width, Height int
}

// GridOptions holds the parameters needed to build the scanning grid.
type GridOptions struct {
	ImgWidth, ImgHeight int
	ObjWidth, ObjHeight int
	MinScale, MaxScale  int
	Shift               float64
	MinSize             int
}

// Grid is the precomputed set of candidate windows, independent of any frame.
type Grid struct {
	Windows []Window
	Scales  []Scale
}

// NewGrid tiles the scanning area with windows at every retained scale.
//
// The scanning area starts at (1, 1) and spans (ImgWidth-1, ImgHeight-1),
// so the corner lookups of every window into the integral images stay
// inside the frame. A scale whose window falls below MinSize or does not
// fit into the scanning area is skipped.
func NewGrid(opts GridOptions) *Grid {
	var (
		scanX, scanY = 1, 1
		scanW        = opts.ImgWidth - 1
		scanH        = opts.ImgHeight - 1
		grid         = &Grid{}
	)

	for i := opts.MinScale; i <= opts.MaxScale; i++ {
		scale := math.Pow(scaleStep, float64(i))
		w := int(float64(opts.ObjWidth) * scale)
		h := int(float64(opts.ObjHeight) * scale)

		if w < opts.MinSize || h < opts.MinSize || w > scanW || h > scanH {
			continue
		}
		scaleIdx := len(grid.Scales)
		grid.Scales = append(grid.Scales, Scale{Width: w, Height: h})

		ssw := utils.Max(1, int(float64(w)*opts.Shift))
		ssh := utils.Max(1, int(float64(h)*opts.Shift))

		for y := scanY; y+h <= scanY+scanH; y += ssh {
			for x := scanX; x+w <= scanX+scanW; x += ssw {
				grid.Windows = append(grid.Windows, Window{
					X:          x,
					Y:          y,
					Width:      w,
					Height:     h,
					ScaleIndex: scaleIdx,
				})
			}
		}
	}
	return grid
}

// Overlap returns the per-window intersection over union with bb.
func (g *Grid) Overlap(bb image.Rectangle) []float64 {
	overlap := make([]float64, len(g.Windows))
	for i, w := range g.Windows {
		overlap[i] = Overlap(w.Bounds(), bb)
	}
	return overlap
}

// Overlap computes the intersection over union of two rectangles.
// Degenerate rectangles have no overlap.
func Overlap(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := inter.Dx() * inter.Dy()
	union := a.Dx()*a.Dy() + b.Dx()*b.Dy() - ia
	if union <= 0 {
		return 0
	}
	return float64(ia) / float64(union)
}
