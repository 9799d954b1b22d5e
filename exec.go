package redetect

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/esimov/redetect/utils"
	"golang.org/x/term"
)

// Ops holds the source and the destination of a detection run. The source
// can be a single frame, a directory of frames, an URL or the pipe name.
type Ops struct {
	Src, Dst, PipeName string
	// Report is where the per frame summary gets printed.
	Report io.Writer
}

// Execute runs the detector over the frame sequence described by op.
// A directory is processed in file name order and the annotated frames
// are saved under the same names into the destination directory.
func (p *Processor) Execute(op *Ops) error {
	if op.Report == nil {
		op.Report = os.Stderr
	}
	if p.Spinner == nil {
		msg := fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ REDETECT", utils.StatusMessage),
			utils.DecorateText("⇢ scanning frames...", utils.DefaultMessage),
		)
		p.Spinner = utils.NewSpinner(msg, time.Millisecond*80, true)
	}

	// Capture CTRL-C signal and restore back the cursor visibility.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChan)
	go func() {
		if _, ok := <-signalChan; ok {
			p.Spinner.RestoreCursor()
			os.Exit(1)
		}
	}()

	now := time.Now()
	frames, err := p.execute(op)
	if err != nil {
		return err
	}
	fmt.Fprintf(op.Report, "\n%d frame(s) processed in %s\n", frames,
		utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))

	return nil
}

func (p *Processor) execute(op *Ops) (int, error) {
	// Check if source path is a local image or URL.
	if utils.IsValidUrl(op.Src) {
		src, err := utils.DownloadImage(op.Src)
		if src != nil {
			defer os.Remove(src.Name())
			defer src.Close()
		}
		if err != nil {
			return 0, fmt.Errorf("failed to load the source image: %w", err)
		}
		return 1, op.processFile(p, src.Name(), op.Dst)
	}

	if op.Src == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return 0, errors.New("`-` should be used with a pipe for stdin")
		}
		return 1, op.processStream(p, os.Stdin, op.Dst)
	}

	fs, err := os.Stat(op.Src)
	if err != nil {
		return 0, fmt.Errorf("failed to load the source: %w", err)
	}
	if !fs.IsDir() {
		return 1, op.processFile(p, op.Src, op.Dst)
	}

	if _, err := os.Stat(op.Dst); err != nil {
		if err := os.MkdirAll(op.Dst, 0755); err != nil {
			return 0, fmt.Errorf("unable to create the destination directory: %w", err)
		}
	}
	paths, err := walkDir(op.Src)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("no frames found in %s", op.Src)
	}
	for i, src := range paths {
		p.Spinner.SetMessage(fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ REDETECT", utils.StatusMessage),
			utils.DecorateText(fmt.Sprintf("⇢ frame %d/%d", i+1, len(paths)), utils.DefaultMessage),
		))
		dst := filepath.Join(op.Dst, filepath.Base(src))
		if err := op.processFile(p, src, dst); err != nil {
			return i, err
		}
	}
	return len(paths), nil
}

// processFile runs the detector over a frame file and saves the annotated
// frame to out, which may also be the pipe name.
func (op *Ops) processFile(p *Processor, in, out string) error {
	img, f, err := OpenFrame(in)
	if err != nil {
		return err
	}

	p.Spinner.Start()
	rep, annotated, err := p.ProcessFrame(img, f)
	p.Spinner.Stop()
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(in), err)
	}
	op.printOpStatus(in, rep)

	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		return encodeImg(os.Stdout, annotated)
	}
	if !isValidExtension(filepath.Ext(out)) {
		return fmt.Errorf("%v file type not supported", filepath.Ext(out))
	}
	if err := imaging.Save(annotated, out); err != nil {
		return fmt.Errorf("unable to save the frame: %w", err)
	}
	return nil
}

// processStream runs the detector over a frame read from r.
func (op *Ops) processStream(p *Processor, r io.Reader, out string) error {
	var w io.Writer
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		w = os.Stdout
	} else {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("unable to create the destination file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("could not close the opened file: %v", err)
			}
		}()
		w = f
	}

	p.Spinner.Start()
	rep, err := p.Process(r, w)
	p.Spinner.Stop()
	if err != nil {
		return err
	}
	op.printOpStatus(op.PipeName, rep)

	return nil
}

// printOpStatus displays the detection outcome of a frame.
func (op *Ops) printOpStatus(fname string, rep *FrameReport) {
	name := filepath.Base(fname)
	if fname == op.PipeName {
		name = "stdin"
	}
	status := utils.DecorateText("no consensus", utils.ErrorMessage)
	if rep.BB != nil {
		status = utils.DecorateText("box "+utils.FormatRect(*rep.BB), utils.SuccessMessage)
	}
	fmt.Fprintf(op.Report, "frame %04d %s: %s, %d cluster(s), %d confident window(s) [var %d, ens %d, nn %d]\n",
		rep.Index, name, status, rep.Clusters, len(rep.Windows),
		rep.VarCount, rep.EnsCount, rep.NNClassCount,
	)
}

// walkDir walks the directory tree in recursive manner and returns the
// supported frame files sorted by path.
func walkDir(src string) ([]string, error) {
	var paths []string
	err := filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !f.Mode().IsRegular() {
			return nil
		}
		if isValidExtension(filepath.Ext(f.Name())) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	return paths, nil
}
