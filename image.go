package redetect

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"

	"github.com/disintegration/imaging"
	"github.com/esimov/redetect/utils"
	"golang.org/x/image/bmp"
)

// validExtensions lists the supported frame file extensions.
var validExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif"}

// OpenFrame decodes an image file and returns both the decoded image and
// its luminance frame. The EXIF orientation of JPEG files is honored.
func OpenFrame(path string) (image.Image, *Frame, error) {
	ctype, err := utils.DetectContentType(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open the frame file: %w", err)
	}
	if !strings.Contains(ctype, "image") {
		return nil, nil, fmt.Errorf("%s is not an image file", filepath.Base(path))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, nil, fmt.Errorf("could not decode the frame file: %w", err)
	}
	return img, Grayscale(img), nil
}

// DecodeFrame decodes an image from r and returns both the decoded image and
// its luminance frame.
func DecodeFrame(r io.Reader) (image.Image, *Frame, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, nil, fmt.Errorf("could not decode the frame: %w", err)
	}
	return img, Grayscale(img), nil
}

// encodeImg encodes an image to a destination of type io.Writer.
// The output format is chosen by the file extension, or jpeg when the
// destination is not a file.
func encodeImg(w io.Writer, img image.Image) error {
	switch w := w.(type) {
	case *os.File:
		ext := strings.ToLower(filepath.Ext(w.Name()))
		switch ext {
		case "", ".jpg", ".jpeg":
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
		case ".png":
			return png.Encode(w, img)
		case ".bmp":
			return bmp.Encode(w, img)
		default:
			return errors.New("unsupported image format")
		}
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	}
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string) bool {
	return utils.Contains(validExtensions, strings.ToLower(ext))
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := srcBounds.Dx() * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}
