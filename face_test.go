package redetect

import (
	"image"
	"path/filepath"
	"testing"

	pigo "github.com/esimov/pigo/core"
	"github.com/stretchr/testify/assert"
)

func TestFace_Rect(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	r := faceRect(pigo.Detection{Row: 50, Col: 40, Scale: 20}, bounds)
	assert.Equal(t, image.Rect(30, 40, 50, 60), r)

	r = faceRect(pigo.Detection{Row: 5, Col: 95, Scale: 20}, bounds)
	assert.Equal(t, image.Rect(85, 0, 100, 15), r)
}

func TestFace_LoadErrors(t *testing.T) {
	_, err := LoadFaceLocator(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "cascade file")
}
