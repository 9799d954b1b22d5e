package redetect

import (
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
)

func TestPatch_SizeAndZeroMean(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 21))
	f := randomFrame(rng, 64, 48)

	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 15, 15),
		image.Rect(3, 5, 40, 30),
		image.Rect(10, 10, 17, 14),
	} {
		p := NewPatch(f, r, false)
		v := p.Values()
		assert.Len(t, v, PatchSize*PatchSize)
		assert.InDelta(t, 0, floats.Sum(v), 1e-6, "rect %v", r)
		assert.Greater(t, p.Variance(), 0.0)
	}
}

func TestPatch_FlatWindow(t *testing.T) {
	f := NewFrame(30, 30)
	f.Fill(f.Bounds(), 50)
	f.Fill(image.Rect(20, 20, 30, 30), 200)

	p := NewPatch(f, image.Rect(0, 0, 15, 15), true)
	for _, v := range p.Values() {
		assert.InDelta(t, 0, v, 1e-9)
	}
	assert.InDelta(t, 0, p.Variance(), 1e-9)

	outside := NewPatch(f, image.Rect(40, 40, 50, 50), false)
	assert.Len(t, outside.Values(), PatchSize*PatchSize)
	assert.Zero(t, outside.Variance())
}

func TestPatch_IdentityResampling(t *testing.T) {
	f := NewFrame(PatchSize, PatchSize)
	for y := 0; y < PatchSize; y++ {
		for x := 0; x < PatchSize; x++ {
			f.Set(x, y, float64(10*x+y))
		}
	}
	v := NewPatch(f, f.Bounds(), true).Values()

	mean := floats.Sum(f.Pix) / float64(len(f.Pix))
	for i, want := range f.Pix {
		assert.InDelta(t, want-mean, v[i], 0.01)
	}
}

func TestPatch_BufferReuseDoesNotCorruptClones(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	f := randomFrame(rng, 40, 40)

	var buf PatchBuffer
	first := buf.Normalize(f, image.Rect(0, 0, 20, 20))
	kept := append([]float64(nil), first...)

	p := NewPatch(f, image.Rect(0, 0, 20, 20), true)
	clone := p.Clone()
	assert.Equal(t, p.Values(), clone.Values())
	assert.InDeltaSlice(t, kept, clone.Values(), 1e-12)

	second := buf.Normalize(f, image.Rect(20, 20, 40, 40))
	assert.Same(t, &first[0], &second[0])
	assert.InDeltaSlice(t, kept, clone.Values(), 1e-12)

	clone.Values()[0] = 1e6
	assert.NotEqual(t, 1e6, p.Values()[0])
}

func TestPatch_FollowsFrameUpdates(t *testing.T) {
	f := NewFrame(20, 20)
	f.Fill(image.Rect(0, 0, 10, 20), 100)
	before := NewPatch(f, f.Bounds(), false).Values()

	f.Fill(f.Bounds(), 0)
	f.Fill(image.Rect(10, 0, 20, 20), 100)
	after := NewPatch(f, f.Bounds(), false).Values()

	assert.Greater(t, before[0], 0.0)
	assert.Less(t, after[0], 0.0)
	assert.Greater(t, after[PatchSize-1], 0.0)
}
