package redetect

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/esimov/redetect/utils"
)

// ErrNoInitialBox is returned when the object box of the first frame is unknown.
var ErrNoInitialBox = errors.New("no initial bounding box: provide one or enable face detection")

// Processor options
type Processor struct {
	Params Params
	// InitialBox is the object location on the first frame.
	InitialBox image.Rectangle
	// FaceDetect locates the initial box with the face detector when
	// InitialBox is empty.
	FaceDetect bool
	FaceAngle  float64
	Classifier string
	// Learn retrains the detector on every frame where a single
	// consensus box was found.
	Learn    bool
	Debug    bool
	BoxColor string

	FaceLocator *FaceLocator
	Spinner     *utils.Spinner

	cascade *Cascade
	frames  int
}

// FrameReport summarizes the detection outcome on one frame.
type FrameReport struct {
	Index    int
	Valid    bool
	Clusters int
	// BB is the consensus box, nil when the windows did not agree on one.
	BB *image.Rectangle
	// Windows lists the confident windows.
	Windows []image.Rectangle

	VarCount     int
	EnsCount     int
	NNClassCount int
}

// Cascade returns the detector, nil before the first frame was processed.
func (p *Processor) Cascade() *Cascade {
	return p.cascade
}

// Reset drops the detector, so the next frame starts a new sequence.
func (p *Processor) Reset() {
	if p.cascade != nil {
		p.cascade.Release()
	}
	p.cascade = nil
	p.frames = 0
}

// Process decodes a frame from r, runs the detector on it and encodes the
// annotated frame into w. Both ends can be files, pipes or any other
// io.Reader and io.Writer.
func (p *Processor) Process(r io.Reader, w io.Writer) (*FrameReport, error) {
	img, f, err := DecodeFrame(r)
	if err != nil {
		return nil, err
	}
	rep, out, err := p.ProcessFrame(img, f)
	if err != nil {
		return nil, err
	}
	if err := encodeImg(w, out); err != nil {
		return rep, fmt.Errorf("could not encode the frame: %w", err)
	}
	return rep, nil
}

// ProcessFrame runs the detector over one frame of the sequence and
// returns the report together with the annotated image. The detector is
// created and trained on the first frame.
func (p *Processor) ProcessFrame(img image.Image, f *Frame) (*FrameReport, *image.NRGBA, error) {
	if p.cascade == nil {
		if err := p.bootstrap(f); err != nil {
			return nil, nil, err
		}
	}

	res := p.cascade.Detect(f)
	if !res.Valid {
		return nil, nil, fmt.Errorf("frame %d (%dx%d): %w", p.frames, f.Width, f.Height, ErrFrameSize)
	}
	rep := p.report(res)

	if p.Learn && rep.BB != nil && p.frames > 0 {
		if err := p.cascade.Update(f, *rep.BB); err != nil {
			return nil, nil, err
		}
	}
	p.frames++

	return rep, p.annotate(img, rep), nil
}

// bootstrap creates the detector and trains it on the first frame.
func (p *Processor) bootstrap(f *Frame) error {
	bb, err := p.initialBox(f)
	if err != nil {
		return err
	}

	c := NewCascade(p.Params, nil)
	c.SetImageSize(f.Width, f.Height)
	c.SetObjectSize(bb.Dx(), bb.Dy())
	if err := c.Init(); err != nil {
		return err
	}
	if err := c.Bootstrap(f, bb); err != nil {
		return err
	}
	p.cascade = c

	return nil
}

func (p *Processor) initialBox(f *Frame) (image.Rectangle, error) {
	if !p.InitialBox.Empty() {
		bb := p.InitialBox.Intersect(f.Bounds())
		if bb.Empty() {
			return bb, fmt.Errorf("initial box %s is outside of the frame", utils.FormatRect(p.InitialBox))
		}
		return bb, nil
	}
	if !p.FaceDetect {
		return image.Rectangle{}, ErrNoInitialBox
	}

	if p.FaceLocator == nil {
		if len(p.Classifier) == 0 {
			return image.Rectangle{}, errors.New("face detection requires a cascade classifier")
		}
		fl, err := LoadFaceLocator(p.Classifier)
		if err != nil {
			return image.Rectangle{}, err
		}
		p.FaceLocator = fl
	}
	p.FaceLocator.Angle = p.FaceAngle

	return p.FaceLocator.Locate(f)
}

func (p *Processor) report(res *Result) *FrameReport {
	rep := &FrameReport{
		Index:        p.frames,
		Valid:        res.Valid,
		Clusters:     res.NumClusters,
		VarCount:     res.VarCount,
		EnsCount:     res.EnsCount,
		NNClassCount: res.NNClassCount,
	}
	if res.DetectorBB != nil {
		bb := *res.DetectorBB
		rep.BB = &bb
	}
	rep.Windows = make([]image.Rectangle, 0, len(res.ConfidentIndices))
	for _, i := range res.ConfidentIndices {
		rep.Windows = append(rep.Windows, p.cascade.Window(i).Bounds())
	}
	return rep
}
