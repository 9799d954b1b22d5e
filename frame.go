package redetect

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/disintegration/imaging"
)

// Frame is a single channel floating point image. Pixel values are stored
// row by row, so the value at (x, y) is Pix[y*Width+x].
//
// A frame handed to the detector is treated as immutable until the call
// returns. Writing Pix directly after a patch has been extracted requires
// a call to Invalidate.
type Frame struct {
	Width  int
	Height int
	Pix    []float64

	mu   sync.Mutex
	view *frameView
}

// NewFrame allocates an empty (black) frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// Value returns the pixel intensity at (x, y).
func (f *Frame) Value(x, y int) float64 {
	return f.Pix[y*f.Width+x]
}

// Set updates the pixel intensity at (x, y).
func (f *Frame) Set(x, y int, v float64) {
	f.Pix[y*f.Width+x] = v
	f.view = nil
}

// Invalidate drops any state derived from the pixel values.
func (f *Frame) Invalidate() {
	f.mu.Lock()
	f.view = nil
	f.mu.Unlock()
}

// Fill sets every pixel inside r (clipped to the frame) to v.
func (f *Frame) Fill(r image.Rectangle, v float64) {
	r = r.Intersect(f.Bounds())
	f.view = nil
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := f.Pix[y*f.Width : (y+1)*f.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = v
		}
	}
}

// Bounds returns the frame domain.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Clone returns an independent copy of the frame.
func (f *Frame) Clone() *Frame {
	dst := &Frame{Width: f.Width, Height: f.Height, Pix: make([]float64, len(f.Pix))}
	copy(dst.Pix, f.Pix)
	return dst
}

// Range returns the minimum and maximum pixel intensity.
func (f *Frame) Range() (lo, hi float64) {
	if len(f.Pix) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Gray converts the frame to an 8 bit grayscale image, clamping the
// intensities to the [0, 255] interval.
func (f *Frame) Gray() *image.Gray {
	dst := image.NewGray(f.Bounds())
	for i, v := range f.Pix {
		dst.Pix[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return dst
}

// Blur returns a gaussian smoothed copy of the frame. The original frame is
// left untouched. A non-positive sigma returns the frame itself.
//
// The frame's dynamic range is stretched over the 8 bit scale before
// smoothing and mapped back afterwards, so the result keeps the intensity
// domain of the source whatever its range is.
func (f *Frame) Blur(sigma float64) *Frame {
	if sigma <= 0 {
		return f
	}
	lo, hi := f.Range()
	if hi <= lo {
		return f.Clone()
	}
	scale := 255 / (hi - lo)

	src := image.NewGray(f.Bounds())
	for i, v := range f.Pix {
		src.Pix[i] = uint8(math.Round((v - lo) * scale))
	}
	blurred := imaging.Blur(src, sigma)

	dst := NewFrame(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		off := blurred.PixOffset(0, y)
		row := dst.Pix[y*f.Width : (y+1)*f.Width]
		for x := range row {
			row[x] = lo + float64(blurred.Pix[off+x*4])/scale
		}
	}
	return dst
}

// frameView exposes a frame as a 16 bit image.Image, so it can be fed into
// the resampling kernels of the x/image/draw package. The frame's dynamic
// range is mapped linearly onto [0, 0xffff].
type frameView struct {
	f     *Frame
	lo    float64
	scale float64
}

// resampleView returns the cached 16 bit view of the frame.
func (f *Frame) resampleView() *frameView {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.view == nil {
		f.view = newFrameView(f)
	}
	return f.view
}

func newFrameView(f *Frame) *frameView {
	lo, hi := f.Range()
	v := &frameView{f: f, lo: lo}
	if hi > lo {
		v.scale = 0xffff / (hi - lo)
	}
	return v
}

func (v *frameView) ColorModel() color.Model { return color.Gray16Model }

func (v *frameView) Bounds() image.Rectangle { return v.f.Bounds() }

func (v *frameView) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(v.f.Bounds())) {
		return color.Gray16{}
	}
	return color.Gray16{Y: uint16(math.Round((v.f.Value(x, y) - v.lo) * v.scale))}
}

// intensity maps a 16 bit sample back to the frame's intensity domain.
func (v *frameView) intensity(y uint16) float64 {
	if v.scale == 0 {
		return v.lo
	}
	return v.lo + float64(y)/v.scale
}
