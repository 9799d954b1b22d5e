package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/esimov/redetect"
	"github.com/esimov/redetect/utils"
)

const HelpBanner = `
┬─┐┌─┐┌┬┐┌─┐┌┬┐┌─┐┌─┐┌┬┐
├┬┘├┤  ││├┤  │ ├┤ │   │
┴└─└─┘─┴┘└─┘ ┴ └─┘└─┘ ┴

Per-frame object re-detector.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source frame, frame directory or URL")
	destination = flag.String("out", pipeName, "Destination frame or directory")
	bbox        = flag.String("bbox", "", "Initial object box as x,y,width,height")
	config      = flag.String("config", "", "Detector parameters (JSON file)")
	learn       = flag.Bool("learn", true, "Retrain the detector on frames with a consensus box")
	debug       = flag.Bool("debug", false, "Draw the confident windows")
	boxColor    = flag.String("color", redetect.DefaultBoxColor, "Bounding box color")
	faceDetect  = flag.Bool("face", false, "Use face detection for the initial box")
	faceAngle   = flag.Float64("angle", 0.0, "Plane rotated faces angle")
	cascade     = flag.String("cc", "", "Cascade classifier")
	minSize     = flag.Int("minsize", 0, "Minimum window size (overrides the config)")
	seed        = flag.Uint64("seed", 0, "Seed of the fern feature generator (overrides the config)")
	workers     = flag.Int("conc", 0, "Number of goroutines scanning the windows (overrides the config)")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	params := redetect.DefaultParams()
	if *config != "" {
		var err error
		params, err = redetect.LoadParams(*config)
		if err != nil {
			log.Fatalf(utils.DecorateText("Failed to load the detector parameters: %v", utils.ErrorMessage), err)
		}
	}

	// Explicitly set flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "minsize":
			params.MinSize = *minSize
		case "seed":
			params.Seed = *seed
		case "conc":
			params.Workers = *workers
		}
	})
	if err := params.Validate(); err != nil {
		log.Fatalf(utils.DecorateText("Invalid detector parameters: %v", utils.ErrorMessage), err)
	}

	var initialBox image.Rectangle
	if *bbox != "" {
		var err error
		initialBox, err = utils.ParseRect(*bbox)
		if err != nil {
			log.Fatalf(utils.DecorateText("%v", utils.ErrorMessage), err)
		}
	}

	if initialBox.Empty() && !*faceDetect {
		flag.Usage()
		log.Fatal(utils.DecorateText("\nPlease provide an initial bounding box or use the -face flag!", utils.ErrorMessage))
	}
	if *faceDetect && len(*cascade) == 0 {
		log.Fatal(utils.DecorateText("Please specify a face classifier in case you are using the -face flag!", utils.ErrorMessage))
	}

	proc := &redetect.Processor{
		Params:     params,
		InitialBox: initialBox,
		FaceDetect: *faceDetect,
		FaceAngle:  *faceAngle,
		Classifier: *cascade,
		Learn:      *learn,
		Debug:      *debug,
		BoxColor:   *boxColor,
	}

	op := &redetect.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
	}
	if err := proc.Execute(op); err != nil {
		log.Fatal(
			utils.DecorateText("\nError processing the frames:", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err), utils.DefaultMessage),
		)
	}
}
