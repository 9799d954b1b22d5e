package redetect

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/esimov/redetect/utils"
	pigo "github.com/esimov/pigo/core"
)

// ErrNoFace is returned when no face could be found on the first frame.
var ErrNoFace = errors.New("no face detected on the frame")

// FaceLocator provides the initial object box by running the pigo face
// detector over the first frame of a sequence.
type FaceLocator struct {
	classifier *pigo.Pigo

	Angle     float64
	MinSize   int
	Threshold float32
}

// NewFaceLocator unpacks a pigo cascade file.
func NewFaceLocator(cascadeFile []byte) (*FaceLocator, error) {
	classifier, err := pigo.NewPigo().Unpack(cascadeFile)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	return &FaceLocator{
		classifier: classifier,
		MinSize:    20,
		Threshold:  5.0,
	}, nil
}

// LoadFaceLocator reads the cascade file from path and unpacks it.
func LoadFaceLocator(path string) (*FaceLocator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read the cascade file: %w", err)
	}
	return NewFaceLocator(data)
}

// Locate returns the box of the best scoring face found in f.
func (fl *FaceLocator) Locate(f *Frame) (image.Rectangle, error) {
	gray := f.Gray()

	cParams := pigo.CascadeParams{
		MinSize:     fl.MinSize,
		MaxSize:     utils.Max(f.Width, f.Height),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,

		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   f.Height,
			Cols:   f.Width,
			Dim:    f.Width,
		},
	}

	// The result contains quadruplets representing the row, column, scale and detection score.
	faces := fl.classifier.RunCascade(cParams, fl.Angle)
	faces = fl.classifier.ClusterDetections(faces, 0.2)

	var best *pigo.Detection
	for i := range faces {
		if faces[i].Q < fl.Threshold {
			continue
		}
		if best == nil || faces[i].Q > best.Q {
			best = &faces[i]
		}
	}
	if best == nil {
		return image.Rectangle{}, ErrNoFace
	}
	return faceRect(*best, f.Bounds()), nil
}

// faceRect converts a detection centered on (Col, Row) into a rectangle
// clipped to the frame bounds.
func faceRect(det pigo.Detection, bounds image.Rectangle) image.Rectangle {
	half := det.Scale / 2
	r := image.Rect(det.Col-half, det.Row-half, det.Col-half+det.Scale, det.Row-half+det.Scale)
	return r.Intersect(bounds)
}
