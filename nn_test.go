package redetect

import (
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNCC(t *testing.T) {
	a := []float64{1, -1, 2, -2}
	b := []float64{-1, 1, -2, 2}
	zero := []float64{0, 0, 0, 0}

	assert.InDelta(t, 1, NCC(a, a), 1e-12)
	assert.InDelta(t, -1, NCC(a, b), 1e-12)
	assert.Zero(t, NCC(a, zero))
	assert.Zero(t, NCC(zero, zero))
}

func TestNNClassifier_EmptySets(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 8))
	f := randomFrame(rng, 30, 30)
	nn := NewNNClassifier(0.65, 0.5)

	values := NewPatch(f, image.Rect(0, 0, 15, 15), false).Values()
	assert.Zero(t, nn.Classify(values))

	nn.Positives = append(nn.Positives, NewPatch(f, image.Rect(10, 10, 30, 30), true).Values())
	assert.Equal(t, 1.0, nn.Classify(values))
	assert.Equal(t, 1.0, nn.ClassifyWindow(f, image.Rect(3, 3, 20, 20)))
}

func TestNNClassifier_Learn(t *testing.T) {
	rng := rand.New(rand.NewPCG(12, 13))
	f := randomFrame(rng, 60, 60)
	nn := NewNNClassifier(0.65, 0.5)

	obj := NewPatch(f, image.Rect(10, 10, 30, 30), true)
	bg := NewPatch(f, image.Rect(35, 35, 55, 55), false)
	nn.Learn([]*Patch{obj, bg})

	assert.Len(t, nn.Positives, 1)
	assert.Len(t, nn.Negatives, 1)
	assert.InDelta(t, 1, nn.ClassifyWindow(f, obj.Window), 1e-6)
	assert.InDelta(t, 0, nn.ClassifyWindow(f, bg.Window), 1e-6)

	// Known samples are not surprising anymore.
	nn.Learn([]*Patch{obj, bg})
	assert.Len(t, nn.Positives, 1)
	assert.Len(t, nn.Negatives, 1)

	// Stored exemplars are copies.
	obj.Values()[0] += 1000
	assert.NotEqual(t, obj.Values()[0], nn.Positives[0][0])
}

func TestNNClassifier_Filter(t *testing.T) {
	rng := rand.New(rand.NewPCG(14, 15))
	f := randomFrame(rng, 60, 60)
	nn := NewNNClassifier(0.65, 0.5)

	w := Window{X: 10, Y: 10, Width: 20, Height: 20}
	var buf PatchBuffer
	assert.False(t, nn.filter(f, w, &buf))

	nn.Learn([]*Patch{NewPatch(f, w.Bounds(), true)})
	assert.True(t, nn.filter(f, w, &buf))

	nn.Enabled = false
	nn.release()
	assert.True(t, nn.filter(f, w, &buf))
}
