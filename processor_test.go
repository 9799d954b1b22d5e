package redetect

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sceneImage renders a textured square on a uniform background.
func sceneImage(bb image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, sceneSize, sceneSize))
	for y := 0; y < sceneSize; y++ {
		for x := 0; x < sceneSize; x++ {
			v := uint8(background)
			if (image.Point{x, y}).In(bb) {
				v = uint8(100 + 3*(x-bb.Min.X) + 2*(y-bb.Min.Y))
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func newTestProcessor() *Processor {
	return &Processor{
		Params:     testParams(),
		InitialBox: objectBox,
		Learn:      true,
	}
}

func TestProcessor_TracksSequence(t *testing.T) {
	p := newTestProcessor()

	for i, offset := range []image.Point{{0, 0}, {2, 0}, {4, 2}} {
		bb := objectBox.Add(offset)
		img := sceneImage(bb)

		rep, out, err := p.ProcessFrame(img, Grayscale(img))
		require.NoError(t, err)
		assert.Equal(t, i, rep.Index)
		assert.True(t, rep.Valid)
		assert.Equal(t, img.Bounds(), out.Bounds())

		best := 0.0
		for _, w := range rep.Windows {
			best = max(best, Overlap(w, bb))
		}
		assert.Greater(t, best, 0.5, "frame %d", i)
		if rep.BB != nil {
			assert.Equal(t, 1, rep.Clusters)
		}
	}
	assert.NotNil(t, p.Cascade())

	p.Reset()
	assert.Nil(t, p.Cascade())
}

func TestProcessor_InitialBox(t *testing.T) {
	img := sceneImage(objectBox)

	p := &Processor{Params: testParams()}
	_, _, err := p.ProcessFrame(img, Grayscale(img))
	assert.ErrorIs(t, err, ErrNoInitialBox)

	p.InitialBox = image.Rect(200, 200, 220, 220)
	_, _, err = p.ProcessFrame(img, Grayscale(img))
	assert.Error(t, err)

	p.InitialBox = image.Rectangle{}
	p.FaceDetect = true
	_, _, err = p.ProcessFrame(img, Grayscale(img))
	assert.ErrorContains(t, err, "cascade classifier")
}

func TestProcessor_FrameSizeChange(t *testing.T) {
	p := newTestProcessor()
	img := sceneImage(objectBox)
	_, _, err := p.ProcessFrame(img, Grayscale(img))
	require.NoError(t, err)

	small := image.NewGray(image.Rect(0, 0, 50, 50))
	_, _, err = p.ProcessFrame(small, Grayscale(small))
	assert.ErrorIs(t, err, ErrFrameSize)
}

func TestProcessor_Process(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, sceneImage(objectBox)))

	var out bytes.Buffer
	p := newTestProcessor()
	rep, err := p.Process(&in, &out)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Windows)

	decoded, _, err := image.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, sceneSize, sceneSize), decoded.Bounds())

	_, err = p.Process(bytes.NewBufferString("garbage"), &out)
	assert.Error(t, err)
}
