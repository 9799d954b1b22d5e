package redetect

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// IntegralImage holds the summed-area tables of a frame's pixel values and
// of their squares. Both tables have the same size as the frame; the value
// at (x, y) is the sum over the rectangle spanning (0, 0) to (x, y) inclusive.
type IntegralImage struct {
	Sum   *mat.Dense
	SqSum *mat.Dense

	width, height int
}

// NewIntegralImage computes the summed-area tables of f.
func NewIntegralImage(f *Frame) *IntegralImage {
	ii := &IntegralImage{}
	ii.Compute(f)
	return ii
}

// Compute recalculates both tables for a new frame. The backing matrices
// are reused when the frame size did not change.
func (ii *IntegralImage) Compute(f *Frame) {
	if f.Width == 0 || f.Height == 0 {
		ii.Sum, ii.SqSum = nil, nil
		ii.width, ii.height = f.Width, f.Height
		return
	}
	if ii.Sum == nil || ii.width != f.Width || ii.height != f.Height {
		ii.Sum = mat.NewDense(f.Height, f.Width, nil)
		ii.SqSum = mat.NewDense(f.Height, f.Width, nil)
		ii.width, ii.height = f.Width, f.Height
	}

	sum := ii.Sum.RawMatrix()
	sq := ii.SqSum.RawMatrix()

	for y := 0; y < f.Height; y++ {
		var rowSum, rowSq float64
		src := f.Pix[y*f.Width : (y+1)*f.Width]
		cur := sum.Data[y*sum.Stride : y*sum.Stride+f.Width]
		curSq := sq.Data[y*sq.Stride : y*sq.Stride+f.Width]

		// out[y][x] = out[y-1][x] + rowSum(0..x), which unrolls the
		// out[y-1][x] + out[y][x-1] - out[y-1][x-1] + v recurrence.
		for x, v := range src {
			rowSum += v
			rowSq += v * v
			cur[x] = rowSum
			curSq[x] = rowSq
		}
		if y == 0 {
			continue
		}
		prev := sum.Data[(y-1)*sum.Stride : (y-1)*sum.Stride+f.Width]
		prevSq := sq.Data[(y-1)*sq.Stride : (y-1)*sq.Stride+f.Width]
		for x := range cur {
			cur[x] += prev[x]
			curSq[x] += prevSq[x]
		}
	}
}

// at reads a table entry. Lookups left of or above the frame are zero.
func (ii *IntegralImage) at(m *mat.Dense, x, y int) float64 {
	if x < 0 || y < 0 {
		return 0
	}
	raw := m.RawMatrix()
	return raw.Data[y*raw.Stride+x]
}

// RectSum returns the sum and the sum of squares of the pixels inside r,
// using four lookups per table. r is clipped to the frame.
func (ii *IntegralImage) RectSum(r image.Rectangle) (sum, sqSum float64) {
	r = r.Intersect(image.Rect(0, 0, ii.width, ii.height))
	if r.Empty() || ii.Sum == nil {
		return 0, 0
	}
	x1, y1 := r.Min.X-1, r.Min.Y-1
	x2, y2 := r.Max.X-1, r.Max.Y-1

	sum = ii.at(ii.Sum, x2, y2) - ii.at(ii.Sum, x1, y2) - ii.at(ii.Sum, x2, y1) + ii.at(ii.Sum, x1, y1)
	sqSum = ii.at(ii.SqSum, x2, y2) - ii.at(ii.SqSum, x1, y2) - ii.at(ii.SqSum, x2, y1) + ii.at(ii.SqSum, x1, y1)
	return sum, sqSum
}
