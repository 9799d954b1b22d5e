package redetect

import (
	"image"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PatchSize is the side length of a normalized patch.
const PatchSize = 15

// Patch is a window of a source frame, resampled to PatchSize x PatchSize
// and mean centered on first access. The Positive flag carries the label
// when the patch is used as a learning sample.
type Patch struct {
	Source   *Frame
	Window   image.Rectangle
	Positive bool

	values []float64
}

// NewPatch creates a lazily normalized patch of window r in frame f.
func NewPatch(f *Frame, r image.Rectangle, positive bool) *Patch {
	return &Patch{Source: f, Window: r, Positive: positive}
}

// Values returns the normalized pixel buffer, materializing it on the first call.
func (p *Patch) Values() []float64 {
	if p.values == nil {
		var buf PatchBuffer
		p.values = append([]float64(nil), buf.Normalize(p.Source, p.Window)...)
	}
	return p.values
}

// Variance returns the mean of the squared, mean centered pixel values.
func (p *Patch) Variance() float64 {
	return patchVariance(p.Values())
}

// Clone returns a patch owning an independent copy of the pixel buffer.
func (p *Patch) Clone() *Patch {
	c := *p
	c.values = append([]float64(nil), p.Values()...)
	return &c
}

func patchVariance(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Dot(v, v) / float64(len(v))
}

// PatchBuffer is a reusable scratch area for patch normalization.
// A buffer must not be shared between goroutines; the slice returned
// by Normalize is overwritten by the next call.
type PatchBuffer struct {
	img    *image.Gray16
	values []float64
}

// Normalize resamples window r of frame f to PatchSize x PatchSize with a
// triangle filter and subtracts the mean. Windows falling outside the frame
// produce an all zero patch.
func (b *PatchBuffer) Normalize(f *Frame, r image.Rectangle) []float64 {
	if b.img == nil {
		b.img = image.NewGray16(image.Rect(0, 0, PatchSize, PatchSize))
		b.values = make([]float64, PatchSize*PatchSize)
	}
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		clear(b.values)
		return b.values
	}

	view := f.resampleView()
	draw.BiLinear.Scale(b.img, b.img.Bounds(), view, r, draw.Src, nil)

	for i := range b.values {
		y := uint16(b.img.Pix[2*i])<<8 | uint16(b.img.Pix[2*i+1])
		b.values[i] = view.intensity(y)
	}
	mean := stat.Mean(b.values, nil)
	floats.AddConst(-mean, b.values)

	return b.values
}
